package provider

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
	"github.com/tidwall/gjson"
)

// SearXNGProvider implements the SearXNG search API
type SearXNGProvider struct {
	*BaseProvider
}

// NewSearXNGProvider creates a new SearXNG provider
func NewSearXNGProvider(config *types.ProviderConfig) (Provider, error) {
	return &SearXNGProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes a search query using the SearXNG JSON API
func (p *SearXNGProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, types.ErrEmptyQuery
	}
	startTime := time.Now()

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("format", "json")
	params.Set("pageno", "1")

	apiURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(p.config.APIHost, "/"), params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range p.BuildDefaultHeaders() {
		httpReq.Header.Set(k, v)
	}
	if p.config.BasicAuthUsername != "" && p.config.BasicAuthPassword != "" {
		httpReq.SetBasicAuth(p.config.BasicAuthUsername, p.config.BasicAuthPassword)
	}

	resp, err := p.DoRequest(ctx, httpReq)
	if err != nil {
		return nil, p.requestError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, p.requestError(err)
	}
	if !gjson.ValidBytes(body) {
		return nil, types.ErrInvalidResponse
	}

	// searxng 的 score 没有上界，这里按排名线性衰减到 (0, 1]
	items := gjson.GetBytes(body, "results").Array()
	results := make([]*types.SearchResult, 0, len(items))
	for i, item := range items {
		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			break
		}
		link := item.Get("url").String()
		title := item.Get("title").String()
		if link == "" || title == "" {
			continue
		}
		results = append(results, &types.SearchResult{
			Title:       title,
			URL:         link,
			Content:     item.Get("content").String(),
			Score:       rankScore(i, len(items)),
			PublishedAt: item.Get("publishedDate").String(),
		})
	}

	return &types.SearchResponse{
		Query:      req.Query,
		Results:    results,
		TotalCount: len(results),
		Took:       time.Since(startTime).Milliseconds(),
		Provider:   p.GetID(),
	}, nil
}

func rankScore(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	score := 1 - float64(rank)/float64(total)
	return math.Round(score*1000) / 1000
}
