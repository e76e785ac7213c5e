package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Microlearn-Roadmap/1.0"

// Provider defines the interface for search providers
type Provider interface {
	// Search executes a search query
	Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error)

	// GetID returns the provider ID
	GetID() types.ProviderID

	// GetName returns the provider name
	GetName() string

	// Validate validates the provider configuration
	Validate() error
}

// BaseProvider provides common functionality for all providers
type BaseProvider struct {
	config     *types.ProviderConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	mu       sync.Mutex
	apiKeys  []string // Support multiple API keys for rotation
	keyIndex int
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config *types.ProviderConfig) *BaseProvider {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// Parse multiple API keys (comma-separated)
	var apiKeys []string
	if config.APIKey != "" {
		apiKeys = strings.Split(config.APIKey, ",")
		for i := range apiKeys {
			apiKeys[i] = strings.TrimSpace(apiKeys[i])
		}
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &BaseProvider{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		apiKeys:    apiKeys,
	}
}

// GetID returns the provider ID
func (b *BaseProvider) GetID() types.ProviderID {
	return b.config.ID
}

// GetName returns the provider name
func (b *BaseProvider) GetName() string {
	return b.config.Name
}

// GetConfig returns the provider configuration
func (b *BaseProvider) GetConfig() *types.ProviderConfig {
	return b.config
}

// GetAPIKey returns the current API key (with rotation support)
func (b *BaseProvider) GetAPIKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.apiKeys) == 0 {
		return ""
	}

	key := b.apiKeys[b.keyIndex]
	b.keyIndex = (b.keyIndex + 1) % len(b.apiKeys)
	return key
}

// BuildDefaultHeaders builds default HTTP headers
func (b *BaseProvider) BuildDefaultHeaders() map[string]string {
	ua := b.config.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   ua,
	}
}

// DoRequest executes an HTTP request with rate limiting and retry logic.
// Transport errors, 429 and 5xx responses are retried with exponential backoff.
func (b *BaseProvider) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := b.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrProviderRateLimited, err)
		}

		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attempt.Body = body
		}

		resp, err := b.httpClient.Do(attempt)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
		default:
			return resp, nil
		}

		if i < maxRetries-1 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

// Validate validates the provider configuration
func (b *BaseProvider) Validate() error {
	return b.config.Validate()
}

// statusError converts a non-200 response into a ProviderError.
func (b *BaseProvider) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &types.ProviderError{
		Provider: b.GetID(),
		Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:  string(body),
	}
}

func (b *BaseProvider) requestError(err error) error {
	return &types.ProviderError{
		Provider: b.GetID(),
		Code:     "REQUEST_FAILED",
		Message:  "Failed to execute request",
		Err:      err,
	}
}
