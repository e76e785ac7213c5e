package injector

import (
	"errors"

	"github.com/lk2023060901/microlearn-backend/internal/auth"
	"github.com/lk2023060901/microlearn-backend/internal/auth/middleware"
	"github.com/lk2023060901/microlearn-backend/internal/conf"
	"github.com/lk2023060901/microlearn-backend/internal/data"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	roadmapbiz "github.com/lk2023060901/microlearn-backend/internal/roadmap/biz"
	roadmapdata "github.com/lk2023060901/microlearn-backend/internal/roadmap/data"
	roadmapservice "github.com/lk2023060901/microlearn-backend/internal/roadmap/service"
	"github.com/lk2023060901/microlearn-backend/internal/server"
)

// App encapsulates all application dependencies
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	cleanup    func()
}

// Cleanup releases all resources
func (a *App) Cleanup() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

// InitializeApp 组装 HTTP 服务所需的全部依赖
func InitializeApp(config *conf.Config, log *logger.Logger) (*App, func(), error) {
	if config.Auth.JWTSecret == "" {
		return nil, nil, errors.New("auth.jwt_secret is required")
	}

	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		return nil, nil, err
	}

	repo := roadmapdata.NewRoadmapRepo(d.DB)
	stack, err := NewResearchStack(config, repo, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	uc := provideRoadmapUseCase(config, repo, stack, d, log)
	svc := roadmapservice.NewRoadmapService(uc, log)

	httpServer := server.NewHTTPServer(
		config,
		log,
		svc,
		auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.TokenDuration),
		provideScriptRunner(d),
		d,
	)

	app := &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		cleanup:    cleanup,
	}
	return app, cleanup, nil
}

func provideRoadmapUseCase(config *conf.Config, repo roadmapbiz.RoadmapRepo, stack *ResearchStack, d *data.Data, log *logger.Logger) *roadmapbiz.RoadmapUseCase {
	var locker roadmapbiz.Locker
	if d.Redis != nil {
		locker = d.Redis
	}
	return roadmapbiz.NewRoadmapUseCase(repo, stack.Orchestrator, stack.Analyzer, locker, roadmapbiz.Config{
		DedupeGeneration: config.Pipeline.DedupeGeneration,
		LockTTL:          config.Pipeline.LockTTL,
	}, log)
}

// provideScriptRunner Redis 未启用时返回 nil，服务端据此跳过限流
func provideScriptRunner(d *data.Data) middleware.ScriptRunner {
	if d.Redis == nil {
		return nil
	}
	return d.Redis
}
