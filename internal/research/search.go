package research

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/websearch/provider"
	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 20
)

// SearchConfig 搜索配置
type SearchConfig struct {
	// MinResults below which the curated table fills the result set.
	MinResults int
	Timeout    time.Duration
}

func (c SearchConfig) withDefaults() SearchConfig {
	if c.MinResults <= 0 {
		c.MinResults = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Searcher queries a live provider and tops up thin results from a curated table.
type Searcher struct {
	provider provider.Provider
	curated  *CuratedTable
	config   SearchConfig
	logger   *logger.Logger
}

// NewSearcher creates a Searcher. A nil provider means curated results only.
func NewSearcher(p provider.Provider, curated *CuratedTable, cfg SearchConfig, log *logger.Logger) *Searcher {
	if log == nil {
		log = logger.L()
	}
	return &Searcher{
		provider: p,
		curated:  curated,
		config:   cfg.withDefaults(),
		logger:   log.Named("search"),
	}
}

// Search never fails: provider errors and thin results fall back to the curated table,
// and the result is at worst an empty slice.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) []SearchResult {
	query = strings.TrimSpace(query)
	if maxResults <= 0 {
		maxResults = DefaultSearchLimit
	}
	if maxResults > MaxSearchLimit {
		maxResults = MaxSearchLimit
	}
	results := make([]SearchResult, 0, maxResults)
	if query == "" {
		return results
	}

	log := s.logger.WithContext(ctx).With(zap.String("query", query))
	seen := make(map[string]bool)

	live, err := s.searchLive(ctx, query, maxResults)
	if err != nil {
		log.Warn("live search failed, using curated sources", zap.Error(err))
	}
	for _, r := range live {
		if len(results) >= maxResults {
			break
		}
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		results = append(results, r)
	}

	if len(results) < s.config.MinResults {
		added := 0
		for _, r := range s.curated.Lookup(query) {
			if len(results) >= maxResults {
				break
			}
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			results = append(results, r)
			added++
		}
		log.Info("search results topped up from curated table",
			zap.Int("live", len(results)-added),
			zap.Int("curated", added))
	}

	return results
}

func (s *Searcher) searchLive(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if s.provider == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.provider.Search(ctx, &types.SearchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r == nil || r.URL == "" || strings.TrimSpace(r.Title) == "" {
			continue
		}
		if !isHTTPURL(r.URL) {
			continue
		}
		out = append(out, SearchResult{
			Title:          strings.TrimSpace(r.Title),
			URL:            r.URL,
			Snippet:        strings.TrimSpace(r.Content),
			Source:         hostOf(r.URL),
			RelevanceScore: clamp01(r.Score),
		})
	}
	return out, nil
}

// hostOf returns the lower-case host of rawURL without a leading "www.".
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func isHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
