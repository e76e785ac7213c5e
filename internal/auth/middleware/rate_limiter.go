package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/microlearn-backend/internal/pkg/errors"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// ScriptRunner runs a Lua script; *redis.Client satisfies it.
type ScriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	// Scope 区分不同端点的计数器
	Scope string `mapstructure:"scope"`
	// 时间窗口内允许的最大请求数
	MaxRequests int `mapstructure:"max_requests"`
	// 时间窗口
	Window time.Duration `mapstructure:"window"`
	// 限流策略：user（默认，未认证时回退到 ip）、ip
	Strategy string `mapstructure:"strategy"`
}

// 各端点的默认限流
var (
	GenerationRateLimit = RateLimiterConfig{Scope: "generate", MaxRequests: 10, Window: time.Minute, Strategy: "user"}
	SearchRateLimit     = RateLimiterConfig{Scope: "search", MaxRequests: 50, Window: time.Hour, Strategy: "user"}
	ScrapeRateLimit     = RateLimiterConfig{Scope: "scrape", MaxRequests: 20, Window: time.Hour, Strategy: "user"}
	AnalyzeRateLimit    = RateLimiterConfig{Scope: "analyze", MaxRequests: 50, Window: time.Hour, Strategy: "user"}
	CompareRateLimit    = RateLimiterConfig{Scope: "compare", MaxRequests: 20, Window: time.Hour, Strategy: "user"}
)

// 滑动窗口：score 为毫秒时间戳，member 唯一
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local current = redis.call('ZCARD', key)
if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1, now + window}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
return {0, 0, tonumber(oldest) + window}
`

// RateLimiter 基于 Redis 的滑动窗口限流中间件
func RateLimiter(runner ScriptRunner, cfg RateLimiterConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}

	return func(c *gin.Context) {
		key := buildRateLimitKey(c, cfg)

		ctx := c.Request.Context()
		allowed, remaining, resetAt, err := checkRateLimit(ctx, runner, key, cfg, time.Now())
		if err != nil {
			// 限流器故障时放行
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.AbortWithCode(c, apperrors.ErrTooManyRequests,
				fmt.Sprintf("try again in %d seconds", retryAfter))
			return
		}

		c.Next()
	}
}

func buildRateLimitKey(c *gin.Context, cfg RateLimiterConfig) string {
	prefix := "rate_limit:" + cfg.Scope

	if cfg.Strategy != "ip" {
		if userID := c.GetString("user_id"); userID != "" {
			return fmt.Sprintf("%s:user:%s", prefix, userID)
		}
	}
	return fmt.Sprintf("%s:ip:%s", prefix, c.ClientIP())
}

func checkRateLimit(ctx context.Context, runner ScriptRunner, key string, cfg RateLimiterConfig, now time.Time) (bool, int, time.Time, error) {
	result, err := runner.Eval(ctx, slidingWindowScript, []string{key},
		now.UnixMilli(), cfg.Window.Milliseconds(), cfg.MaxRequests, uuid.NewString())
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("invalid rate limit result: %v", result)
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	resetMillis, _ := values[2].(int64)

	return allowed == 1, int(remaining), time.UnixMilli(resetMillis), nil
}
