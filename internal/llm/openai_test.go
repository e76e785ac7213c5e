package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = server.URL + "/v1/"
	for _, m := range mutate {
		m(cfg)
	}

	client, err := NewOpenAIClient(cfg, logger.NewNop())
	require.NoError(t, err)
	return client
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Temperature = 3
	assert.Error(t, cfg.Validate())
}

func TestOpenAIClient_Complete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 256, body["max_tokens"])
		format, _ := body["response_format"].(map[string]interface{})
		assert.Equal(t, "json_object", format["type"])

		msgs := body["messages"].([]interface{})
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(`{"ok":true}`)))
	})

	out, err := client.Complete(context.Background(), &Request{
		Messages:  []Message{System("be terse"), User("hello")},
		MaxTokens: 256,
		JSON:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestOpenAIClient_JSONModeDisabled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasFormat := body["response_format"]
		assert.False(t, hasFormat)
		_, _ = w.Write([]byte(completion("plain")))
	}, func(c *Config) { c.JSONMode = false })

	out, err := client.Complete(context.Background(), &Request{Messages: []Message{User("hi")}, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestOpenAIClient_EmptyCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completion("   ")))
	})

	_, err := client.Complete(context.Background(), &Request{Messages: []Message{User("hi")}})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})

	_, err := client.Complete(context.Background(), &Request{Messages: []Message{User("hi")}})
	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, http.StatusTooManyRequests, llmErr.StatusCode)
	assert.True(t, strings.Contains(llmErr.Error(), "slow down"))
}

func TestOpenAIClient_NoMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.Complete(context.Background(), &Request{})
	assert.Error(t, err)
}

func TestTokenCounter_Fallback(t *testing.T) {
	var counter TokenCounter

	assert.Equal(t, 0, counter.Count(""))
	assert.Equal(t, 1, counter.Count("abcd"))
	assert.Equal(t, 2, counter.Count("abcde"))

	long := strings.Repeat("x", 100)
	assert.Equal(t, strings.Repeat("x", 40), counter.Truncate(long, 10))
	assert.Equal(t, "short", counter.Truncate("short", 10))
	assert.Equal(t, "", counter.Truncate("short", 0))
}

func TestTokenCounter_TruncateKeepsShortText(t *testing.T) {
	counter := NewTokenCounter("gpt-4o-mini")
	assert.Equal(t, "hello world", counter.Truncate("hello world", 50))
	assert.Greater(t, counter.Count("hello world"), 0)
}

func TestDisabledClient(t *testing.T) {
	var client Client = Disabled{}
	out, err := client.Complete(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
