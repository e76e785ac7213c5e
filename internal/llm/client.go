// Package llm wraps a chat-completion endpoint behind a small interface.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role 消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 单条对话消息
type Message struct {
	Role    Role
	Content string
}

// Request is a single-turn completion request.
type Request struct {
	Messages []Message
	// MaxTokens 为 0 时使用客户端默认值
	MaxTokens int
	// Temperature 为 nil 时使用客户端默认值
	Temperature *float32
	// JSON requests a JSON object response (honored only when the client has JSON mode enabled)
	JSON bool
}

// Client completes chat prompts.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// ErrEmptyCompletion is returned when the model answers with no content.
var ErrEmptyCompletion = errors.New("llm returned an empty completion")

// Error is a failed call to the completion endpoint.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// System and User build messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Float32 returns a pointer to v, for Request.Temperature.
func Float32(v float32) *float32 { return &v }

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("llm is not configured")

// Disabled always fails. Callers fall back to their non-model paths.
type Disabled struct{}

func (Disabled) Complete(context.Context, *Request) (string, error) {
	return "", ErrNotConfigured
}
