package redis

import (
	"errors"
	"time"
)

// Config Redis 配置
//
// Addrs 只有一个地址时为单机模式；配置 MasterName 时为哨兵模式；多个地址为集群模式
type Config struct {
	Addrs      []string `mapstructure:"addrs"`
	MasterName string   `mapstructure:"master_name"`

	// 认证配置
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	MaxRetries int `mapstructure:"max_retries"`
}

// DefaultConfig 默认单机配置
func DefaultConfig() *Config {
	return &Config{
		Addrs:        []string{"localhost:6379"},
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return errors.New("redis: at least one address is required")
	}
	for _, addr := range c.Addrs {
		if addr == "" {
			return errors.New("redis: empty address")
		}
	}
	if c.DB < 0 || c.DB > 15 {
		return errors.New("redis: db must be between 0 and 15")
	}
	if c.PoolSize < 0 {
		return errors.New("redis: pool size must be >= 0")
	}
	return nil
}
