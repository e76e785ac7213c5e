// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/lk2023060901/microlearn-backend/internal/llm"
)

// ErrExhausted is returned once every scripted reply has been used.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Client replays replies in order and records every request.
// Respond, when set, takes precedence over the script.
type Client struct {
	mu       sync.Mutex
	replies  []Reply
	requests []*llm.Request

	Respond func(req *llm.Request) (string, error)
}

// New returns a client that answers with replies in order.
func New(replies ...Reply) *Client {
	return &Client{replies: replies}
}

// Text is a shorthand for New(Reply{Text: s}...).
func Text(texts ...string) *Client {
	replies := make([]Reply, len(texts))
	for i, s := range texts {
		replies[i] = Reply{Text: s}
	}
	return New(replies...)
}

// Failing returns a client whose every call fails with err.
func Failing(err error) *Client {
	return &Client{Respond: func(*llm.Request) (string, error) { return "", err }}
}

func (c *Client) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.requests = append(c.requests, req)
	respond := c.Respond
	var next *Reply
	if respond == nil && len(c.replies) > 0 {
		next = &c.replies[0]
		c.replies = c.replies[1:]
	}
	c.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	if next == nil {
		return "", ErrExhausted
	}
	return next.Text, next.Err
}

// Requests returns the recorded requests.
func (c *Client) Requests() []*llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*llm.Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls returns the number of Complete invocations.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
