package llm

import (
	"errors"
	"time"
)

// Config 语言模型客户端配置
type Config struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// JSONMode asks the endpoint for a JSON object response when the
	// request opts in. Not every OpenAI-compatible server supports it.
	JSONMode bool `mapstructure:"json_mode"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		MaxTokens:   4000,
		Temperature: 0.7,
		Timeout:     60 * time.Second,
		JSONMode:    true,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("llm api key is required")
	}
	if c.Model == "" {
		return errors.New("llm model is required")
	}
	if c.MaxTokens <= 0 {
		return errors.New("llm max_tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("llm temperature must be between 0 and 2")
	}
	return nil
}
