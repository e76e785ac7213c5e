package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient OpenAI 兼容接口实现
type OpenAIClient struct {
	client *openai.Client
	config *Config
	tokens *TokenCounter
	logger *logger.Logger
}

// NewOpenAIClient 创建 OpenAI 客户端
func NewOpenAIClient(cfg *Config, log *logger.Logger) (*OpenAIClient, error) {
	if cfg == nil {
		return nil, errors.New("llm config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	log.Info("llm client created",
		zap.String("model", cfg.Model),
		zap.Bool("json_mode", cfg.JSONMode))

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		tokens: NewTokenCounter(cfg.Model),
		logger: log.Named("llm"),
	}, nil
}

// Complete 执行一次补全，返回第一条候选的文本
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (string, error) {
	if req == nil || len(req.Messages) == 0 {
		return "", &Error{Message: "no messages"}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}
	if req.JSON && c.config.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	promptTokens := 0
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
		promptTokens += c.tokens.Count(m.Content)
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.logger.WithContext(ctx).Warn("llm completion failed",
			zap.String("model", c.config.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", toError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.WithContext(ctx).Debug("llm completion finished",
		zap.String("model", resp.Model),
		zap.Int("estimated_prompt_tokens", promptTokens),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

func toError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: err}
	}
	return &Error{Message: fmt.Sprintf("request failed: %v", err), Err: err}
}
