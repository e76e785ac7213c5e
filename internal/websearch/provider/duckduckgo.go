package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
	"github.com/tidwall/gjson"
)

const (
	// DuckDuckGoHost is the public instant answer endpoint.
	DuckDuckGoHost = "https://api.duckduckgo.com"

	// QueryHint biases instant answers toward learning material.
	QueryHint = "roadmap guide tutorial"

	abstractScore = 0.9
	relatedScore  = 0.7
)

// DuckDuckGoProvider queries the DuckDuckGo instant answer API.
// The abstract (if any) becomes the top result, related topics follow.
type DuckDuckGoProvider struct {
	*BaseProvider
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider
func NewDuckDuckGoProvider(config *types.ProviderConfig) (Provider, error) {
	cfg := *config
	// 单次请求，不做额外重试
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 1
	}
	return &DuckDuckGoProvider{BaseProvider: NewBaseProvider(&cfg)}, nil
}

// Search executes an instant answer lookup.
func (p *DuckDuckGoProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, types.ErrEmptyQuery
	}
	startTime := time.Now()

	params := url.Values{}
	params.Set("q", req.Query+" "+QueryHint)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	apiURL := fmt.Sprintf("%s/?%s", strings.TrimRight(p.config.APIHost, "/"), params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range p.BuildDefaultHeaders() {
		httpReq.Header.Set(k, v)
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

	results := parseInstantAnswer(gjson.ParseBytes(body))
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	return &types.SearchResponse{
		Query:      req.Query,
		Results:    results,
		TotalCount: len(results),
		Took:       time.Since(startTime).Milliseconds(),
		Provider:   p.GetID(),
	}, nil
}

func parseInstantAnswer(doc gjson.Result) []*types.SearchResult {
	var results []*types.SearchResult

	abstractURL := doc.Get("AbstractURL").String()
	abstractText := doc.Get("AbstractText").String()
	if abstractURL != "" && abstractText != "" {
		title := doc.Get("Heading").String()
		if title == "" {
			title = firstSentence(abstractText)
		}
		results = append(results, &types.SearchResult{
			Title:   title,
			URL:     abstractURL,
			Content: abstractText,
			Score:   abstractScore,
		})
	}

	var walk func(topics gjson.Result)
	walk = func(topics gjson.Result) {
		topics.ForEach(func(_, topic gjson.Result) bool {
			// 分组条目带有嵌套的 Topics
			if nested := topic.Get("Topics"); nested.IsArray() {
				walk(nested)
				return true
			}
			link := topic.Get("FirstURL").String()
			text := topic.Get("Text").String()
			if link == "" || text == "" {
				return true
			}
			results = append(results, &types.SearchResult{
				Title:   firstSentence(text),
				URL:     link,
				Content: text,
				Score:   relatedScore,
			})
			return true
		})
	}
	walk(doc.Get("RelatedTopics"))

	return results
}

// firstSentence returns text up to the first " - " separator or period, capped at 100 runes.
func firstSentence(text string) string {
	title := text
	if idx := strings.Index(title, " - "); idx > 0 {
		title = title[:idx]
	} else if idx := strings.Index(title, ". "); idx > 0 {
		title = title[:idx]
	}
	if r := []rune(title); len(r) > 100 {
		title = string(r[:100])
	}
	return strings.TrimSpace(title)
}
