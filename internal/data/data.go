package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/microlearn-backend/internal/conf"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/database"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/redis"
	roadmapdata "github.com/lk2023060901/microlearn-backend/internal/roadmap/data"
	"go.uber.org/zap"
)

// Data 持有数据库与 Redis 连接；Redis 为可选
type Data struct {
	DB     *database.DB
	Redis  *redis.Client
	logger *logger.Logger
}

// NewData 初始化数据层，返回清理函数
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(&roadmapdata.RoadmapPO{}); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	d := &Data{DB: db, logger: log}

	if config.Redis.Enabled {
		rdb, err := redis.New(&config.Redis.Config, log)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.Redis = rdb
	} else {
		log.Warn("redis disabled, rate limiting and generation dedup are off")
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if d.Redis != nil {
			if err := d.Redis.Close(); err != nil {
				log.Error("failed to close redis", zap.Error(err))
			}
		}
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}

	return d, cleanup, nil
}

// Health 检查各依赖，返回每个组件的状态
func (d *Data) Health(ctx context.Context) (map[string]string, bool) {
	status := map[string]string{}
	healthy := true

	if err := d.DB.HealthCheck(ctx); err != nil {
		status["database"] = err.Error()
		healthy = false
	} else {
		status["database"] = "ok"
	}

	switch {
	case d.Redis == nil:
		status["redis"] = "disabled"
	default:
		if err := d.Redis.Ping(ctx); err != nil {
			status["redis"] = err.Error()
			healthy = false
		} else {
			status["redis"] = "ok"
		}
	}

	return status, healthy
}
