package research

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	MinCompareURLs = 2
	MaxCompareURLs = 5
)

// Analyst produces analysis and comparison drafts.
type Analyst interface {
	Analyze(ctx context.Context, topic, depth string, results []SearchResult, scraped []ScrapedContent) (*Draft, error)
	Compare(ctx context.Context, topic string, resources []ScrapedContent) (*Draft, error)
}

// AnalyzerConfig 分析配置
type AnalyzerConfig struct {
	SearchLimit       int
	ScrapeConcurrency int
	// pages scraped per depth
	ScrapePages map[string]int
}

func (c AnalyzerConfig) withDefaults() AnalyzerConfig {
	if c.SearchLimit <= 0 {
		c.SearchLimit = 8
	}
	if c.ScrapeConcurrency <= 0 {
		c.ScrapeConcurrency = MaxCompareURLs
	}
	if c.ScrapePages == nil {
		c.ScrapePages = map[string]int{
			DepthBasic:         0,
			DepthDetailed:      2,
			DepthComprehensive: 4,
		}
	}
	return c
}

// Analyzer implements topic analysis and resource comparison on top of the
// search, fetch and synthesis primitives.
type Analyzer struct {
	searcher WebSearcher
	fetcher  ContentFetcher
	analyst  Analyst
	config   AnalyzerConfig
	logger   *logger.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(searcher WebSearcher, fetcher ContentFetcher, analyst Analyst, cfg AnalyzerConfig, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.L()
	}
	return &Analyzer{
		searcher: searcher,
		fetcher:  fetcher,
		analyst:  analyst,
		config:   cfg.withDefaults(),
		logger:   log.Named("analyzer"),
	}
}

// AnalyzeTopic searches the topic, scrapes a depth-dependent number of pages
// and asks the model for a structured analysis.
func (a *Analyzer) AnalyzeTopic(ctx context.Context, topic, depth string) (*TopicAnalysis, error) {
	if depth == "" {
		depth = DepthDetailed
	}
	log := a.logger.WithContext(ctx).With(zap.String("topic", topic), zap.String("depth", depth))

	results := a.searcher.Search(ctx, topic, a.config.SearchLimit)

	var scraped []ScrapedContent
	if n := a.config.ScrapePages[depth]; n > 0 && len(results) > 0 {
		targets := results
		if len(targets) > n {
			targets = targets[:n]
		}
		for _, oc := range scrapeAll(ctx, a.fetcher, a.config.ScrapeConcurrency, targets) {
			if sc, ok := oc.(ScrapeOK); ok {
				scraped = append(scraped, sc.Content)
			}
		}
	}

	draft, err := a.analyst.Analyze(ctx, topic, depth, results, scraped)
	if err != nil {
		log.Warn("topic analysis failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}
	summary, ok := NormalizeAnalysis(draft)
	if !ok {
		log.Warn("topic analysis was empty")
		return nil, ErrAnalysisUnavailable
	}

	log.Info("topic analyzed", zap.Int("sources", len(results)), zap.Int("scraped", len(scraped)))
	return &TopicAnalysis{
		Topic:       topic,
		Depth:       depth,
		Analysis:    summary,
		Sources:     results,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// CompareResources scrapes the given URLs and ranks the ones that could be
// read. At least two must succeed, otherwise ErrInsufficientResources.
func (a *Analyzer) CompareResources(ctx context.Context, topic string, urls []string) (*ResourceComparison, error) {
	log := a.logger.WithContext(ctx).With(zap.String("topic", topic), zap.Int("urls", len(urls)))

	targets := make([]SearchResult, len(urls))
	for i, u := range urls {
		targets[i] = SearchResult{URL: u}
	}

	var (
		valid   []ScrapedContent
		skipped []SkippedURL
	)
	for _, oc := range scrapeAll(ctx, a.fetcher, a.config.ScrapeConcurrency, targets) {
		switch o := oc.(type) {
		case ScrapeOK:
			valid = append(valid, o.Content)
		case ScrapeDegraded:
			skipped = append(skipped, SkippedURL{URL: o.Content.URL, Reason: o.Content.Error})
		}
	}

	if len(valid) < MinCompareURLs {
		log.Warn("not enough resources to compare", zap.Int("valid", len(valid)))
		return nil, fmt.Errorf("%w: %d of %d urls could be read", ErrInsufficientResources, len(valid), len(urls))
	}

	draft, err := a.analyst.Compare(ctx, topic, valid)
	if err != nil {
		log.Warn("resource comparison failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}
	report, ok := NormalizeComparison(draft, valid)
	if !ok {
		log.Warn("comparison ranked none of the resources")
		return nil, ErrAnalysisUnavailable
	}

	log.Info("resources compared", zap.Int("valid", len(valid)), zap.Int("skipped", len(skipped)))
	return &ResourceComparison{
		Topic:       topic,
		Comparison:  report,
		Resources:   valid,
		Skipped:     skipped,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
