package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client Redis 客户端封装
type Client struct {
	rdb    redis.UniversalClient
	config *Config
	logger *logger.Logger
}

// New 创建 Redis 客户端并做一次健康检查
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.L()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	client := &Client{rdb: rdb, config: cfg, logger: log}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("redis client initialized successfully", zap.Strings("addrs", cfg.Addrs))
	return client, nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	c.logger.Info("closing redis client")
	return c.rdb.Close()
}

// Eval 执行 Lua 脚本
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	result, err := c.rdb.Eval(ctx, script, keys, args...).Result()
	if err != nil && !IsNil(err) {
		c.logger.Error("redis eval failed", zap.Strings("keys", keys), zap.Error(err))
	}
	return result, err
}

// ==================== Distributed Lock ====================

const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// Lock 获取分布式锁，返回用于释放的 token
func (c *Client) Lock(ctx context.Context, key string, expiration time.Duration) (string, error) {
	token := uuid.New().String()

	ok, err := c.rdb.SetNX(ctx, key, token, expiration).Result()
	if err != nil {
		c.logger.Error("redis lock failed", zap.String("key", key), zap.Error(err))
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
	}

	c.logger.Debug("redis lock acquired", zap.String("key", key), zap.Duration("expiration", expiration))
	return token, nil
}

// Unlock 释放分布式锁（Lua 保证只删除自己持有的锁）
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	result, err := c.Eval(ctx, unlockScript, []string{key}, token)
	if err != nil {
		return err
	}
	if n, _ := result.(int64); n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// WithLock 在锁保护下执行函数
func (c *Client) WithLock(ctx context.Context, key string, expiration time.Duration, fn func() error) error {
	token, err := c.Lock(ctx, key, expiration)
	if err != nil {
		return err
	}

	defer func() {
		// 请求 ctx 可能已超时，释放锁使用独立 ctx
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.Unlock(unlockCtx, key, token); err != nil && !errors.Is(err, ErrLockNotHeld) {
			c.logger.Error("failed to unlock", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn()
}
