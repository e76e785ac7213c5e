package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/microlearn-backend/internal/auth"
	"github.com/lk2023060901/microlearn-backend/internal/auth/middleware"
	"github.com/lk2023060901/microlearn-backend/internal/conf"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	roadmapservice "github.com/lk2023060901/microlearn-backend/internal/roadmap/service"
	"go.uber.org/zap"
)

// HealthChecker reports per-dependency status.
type HealthChecker interface {
	Health(ctx context.Context) (map[string]string, bool)
}

type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	logger *logger.Logger
}

// NewHTTPServer 创建 HTTP 服务。limiter 为 nil 时不限流
func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	roadmapService *roadmapservice.RoadmapService,
	jwtManager *auth.JWTManager,
	limiter middleware.ScriptRunner,
	health HealthChecker,
) *HTTPServer {
	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))
	router.Use(middleware.CORS())

	router.GET("/health", healthHandler(health))

	rate := func(cfg middleware.RateLimiterConfig) gin.HandlerFunc {
		if limiter == nil || !config.RateLimit.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(limiter, cfg, log)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager, log))
	{
		api.GET("/roadmap", roadmapService.GetRoadmap)

		research := api.Group("/research")
		research.POST("/roadmap", rate(config.RateLimit.Generate), roadmapService.GenerateRoadmap)
		research.POST("/search", rate(config.RateLimit.Search), roadmapService.Search)
		research.POST("/scrape", rate(config.RateLimit.Scrape), roadmapService.Scrape)
		research.POST("/analyze", rate(config.RateLimit.Analyze), roadmapService.Analyze)
		research.POST("/compare", rate(config.RateLimit.Compare), roadmapService.Compare)
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:         config.Server.Addr(),
			Handler:      router,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
		},
		router: router,
		logger: log,
	}
}

func healthHandler(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		}
		if health != nil {
			components, healthy := health.Health(ctx)
			body["components"] = components
			if !healthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}

// Handler 返回路由，供测试使用
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
