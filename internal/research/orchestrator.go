package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WebSearcher finds candidate resources. It never fails.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) []SearchResult
}

// ContentFetcher scrapes one page. It never fails.
type ContentFetcher interface {
	FetchAndSummarize(ctx context.Context, url, title string) ScrapeOutcome
}

// Synthesizer turns research into a roadmap draft.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, resources []RankedResource, opts Options) (*Draft, error)
	SynthesizeFallback(ctx context.Context, topic string, opts Options) (*Draft, error)
}

// Store persists one roadmap per user.
type Store interface {
	Upsert(ctx context.Context, roadmap *Roadmap) (*Roadmap, error)
}

// PipelineConfig 生成流程配置
type PipelineConfig struct {
	SearchLimit       int           `mapstructure:"search_limit"`
	ScrapeTopN        int           `mapstructure:"scrape_top_n"`
	ScrapeConcurrency int           `mapstructure:"scrape_concurrency"`
	MinSummaryLength  int           `mapstructure:"min_summary_length"`
	MaxSources        int           `mapstructure:"max_sources"`
	MaxPersistedSteps int           `mapstructure:"max_persisted_steps"`
	WebPhaseTimeout   time.Duration `mapstructure:"web_phase_timeout"`
	DedupeGeneration  bool          `mapstructure:"dedupe_generation"`
}

// DefaultPipelineConfig 默认流程配置
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SearchLimit:       DefaultSearchLimit,
		ScrapeTopN:        5,
		ScrapeConcurrency: 5,
		MinSummaryLength:  20,
		MaxSources:        5,
		MaxPersistedSteps: MaxPersistedSteps,
		WebPhaseTimeout:   2 * time.Minute,
	}
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	d := DefaultPipelineConfig()
	if c.SearchLimit <= 0 {
		c.SearchLimit = d.SearchLimit
	}
	if c.ScrapeTopN <= 0 {
		c.ScrapeTopN = d.ScrapeTopN
	}
	if c.ScrapeConcurrency <= 0 {
		c.ScrapeConcurrency = d.ScrapeConcurrency
	}
	if c.MinSummaryLength <= 0 {
		c.MinSummaryLength = d.MinSummaryLength
	}
	if c.MaxSources <= 0 {
		c.MaxSources = d.MaxSources
	}
	if c.MaxPersistedSteps <= 0 {
		c.MaxPersistedSteps = d.MaxPersistedSteps
	}
	if c.WebPhaseTimeout <= 0 {
		c.WebPhaseTimeout = d.WebPhaseTimeout
	}
	return c
}

var (
	errNoSearchResults = errors.New("no search results")
	errNoSteps         = errors.New("synthesis produced no steps")
)

// Orchestrator runs search, scrape, rank, synthesis and persistence with a
// fallback chain that always ends in a well-formed roadmap.
type Orchestrator struct {
	searcher WebSearcher
	fetcher  ContentFetcher
	ranker   *Ranker
	synth    Synthesizer
	store    Store
	config   PipelineConfig
	logger   *logger.Logger
}

// NewOrchestrator creates an Orchestrator. store may be nil, in which case
// nothing is persisted.
func NewOrchestrator(searcher WebSearcher, fetcher ContentFetcher, ranker *Ranker, synth Synthesizer,
	store Store, cfg PipelineConfig, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.L()
	}
	return &Orchestrator{
		searcher: searcher,
		fetcher:  fetcher,
		ranker:   ranker,
		synth:    synth,
		store:    store,
		config:   cfg.withDefaults(),
		logger:   log.Named("orchestrator"),
	}
}

// pipelineRun records the stages one generation went through.
type pipelineRun struct {
	stages []Stage
	log    *logger.Logger
}

func (r *pipelineRun) enter(s Stage) {
	r.stages = append(r.stages, s)
	r.log.Debug("pipeline stage", zap.String("stage", string(s)))
}

// GenerateComprehensiveRoadmap never fails. Degradation is reported through
// Methodology and Warning on the result.
func (o *Orchestrator) GenerateComprehensiveRoadmap(ctx context.Context, userID, topic string, opts Options) *ComprehensiveRoadmapResult {
	opts = opts.WithDefaults()
	topic = strings.TrimSpace(topic)
	start := time.Now()

	log := o.logger.WithContext(ctx).With(zap.String("topic", topic), zap.String("user_id", userID))
	run := &pipelineRun{log: log}

	methodology := MethodologyWebEnhanced
	var warnings []string

	doc, sources, webErr := o.webEnhanced(ctx, run, topic, opts)
	if webErr != nil {
		log.Warn("web-enhanced generation failed, falling back to llm only",
			zap.String("stage", string(StageFallbackLLM)), zap.Error(webErr))
		run.enter(StageFallbackLLM)
		methodology = MethodologyLLMFallback
		sources = []RankedResource{}

		var err error
		doc, err = o.llmOnly(ctx, run, topic, opts)
		if err != nil {
			log.Error("llm-only generation failed, using static skeleton",
				zap.String("stage", string(StageStaticSkeleton)), zap.Error(err))
			run.enter(StageStaticSkeleton)
			doc = StaticSkeleton(topic, opts)
			warnings = append(warnings, fmt.Sprintf(
				"Web research and AI generation were unavailable (%v); returned the static skeleton roadmap.", err))
		} else {
			warnings = append(warnings, fmt.Sprintf(
				"Web research was unavailable (%v); roadmap generated by the AI model without web sources.", webErr))
		}
	}

	result := &ComprehensiveRoadmapResult{
		Topic:            topic,
		Timeframe:        opts.Timeframe,
		Level:            opts.Level,
		DailyTimeMinutes: opts.DailyTimeMinutes,
		GeneratedAt:      time.Now().UTC(),
		Roadmap:          doc,
		Sources:          sources,
		Methodology:      methodology,
		TotalSteps:       len(doc.Steps),
	}

	if err := o.persist(ctx, run, userID, topic, result); err != nil {
		log.Error("failed to persist roadmap", zap.String("stage", string(StagePersisted)), zap.Error(err))
		warnings = append(warnings, "The roadmap could not be saved.")
	}

	result.Warning = strings.Join(warnings, " ")
	result.Stages = run.stages

	log.Info("roadmap generated",
		zap.String("methodology", string(methodology)),
		zap.Int("steps", result.TotalSteps),
		zap.Int("sources", len(sources)),
		zap.Duration("elapsed", time.Since(start)))
	return result
}

// webEnhanced is the primary path. Any error or panic sends the caller
// down the fallback chain.
func (o *Orchestrator) webEnhanced(ctx context.Context, run *pipelineRun, topic string, opts Options) (doc *RoadmapDocument, sources []RankedResource, err error) {
	defer func() {
		if r := recover(); r != nil {
			run.log.Error("panic in web-enhanced generation", zap.Any("panic", r))
			doc, sources, err = nil, nil, fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, o.config.WebPhaseTimeout)
	defer cancel()

	run.enter(StageSearching)
	results := o.searcher.Search(ctx, topic, o.config.SearchLimit)
	if len(results) == 0 {
		return nil, nil, errNoSearchResults
	}

	run.enter(StageScraping)
	top := results
	if len(top) > o.config.ScrapeTopN {
		top = top[:o.config.ScrapeTopN]
	}
	outcomes := o.ScrapeAll(ctx, top)

	usable := make([]ScrapedContent, 0, len(outcomes))
	for _, oc := range outcomes {
		if sc, ok := oc.(ScrapeOK); ok && utf8.RuneCountInString(sc.Content.Summary) > o.config.MinSummaryLength {
			usable = append(usable, sc.Content)
		}
	}
	run.log.Debug("scraping settled", zap.Int("attempted", len(top)), zap.Int("usable", len(usable)))

	run.enter(StageRanking)
	ranked := o.ranker.Rank(results, usable)
	if len(ranked) > o.config.MaxSources {
		ranked = ranked[:o.config.MaxSources]
	}

	run.enter(StageSynthesizing)
	draft, err := o.synth.Synthesize(ctx, topic, ranked, opts)
	if err != nil {
		return nil, nil, err
	}

	run.enter(StageNormalizing)
	doc = NormalizeDocument(draft, opts)
	if len(doc.Steps) == 0 {
		return nil, nil, errNoSteps
	}
	return doc, ranked, nil
}

func (o *Orchestrator) llmOnly(ctx context.Context, run *pipelineRun, topic string, opts Options) (doc *RoadmapDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	draft, err := o.synth.SynthesizeFallback(ctx, topic, opts)
	if err != nil {
		return nil, err
	}

	run.enter(StageNormalizing)
	doc = NormalizeDocument(draft, opts)
	if len(doc.Steps) == 0 {
		return nil, errNoSteps
	}
	return doc, nil
}

func (o *Orchestrator) persist(ctx context.Context, run *pipelineRun, userID, topic string, result *ComprehensiveRoadmapResult) error {
	if o.store == nil || userID == "" {
		return nil
	}

	generatedWith := GeneratedWithResearchAgent
	if result.Methodology != MethodologyWebEnhanced {
		generatedWith = GeneratedWithBasicLLM
	}

	sources := result.Sources
	if len(sources) > o.config.MaxSources {
		sources = sources[:o.config.MaxSources]
	}

	roadmap := &Roadmap{
		UserID: userID,
		Steps:  TruncateSteps(result.Roadmap.Steps, o.config.MaxPersistedSteps),
		Metadata: RoadmapMetadata{
			GeneratedWith: generatedWith,
			Topic:         topic,
			Sources:       sources,
			GeneratedAt:   result.GeneratedAt,
		},
	}
	if _, err := o.store.Upsert(ctx, roadmap); err != nil {
		return err
	}
	run.enter(StagePersisted)
	return nil
}

// ScrapeAll fetches every result concurrently and waits for all of them.
func (o *Orchestrator) ScrapeAll(ctx context.Context, results []SearchResult) []ScrapeOutcome {
	return scrapeAll(ctx, o.fetcher, o.config.ScrapeConcurrency, results)
}

func (o *Orchestrator) scrapeOne(ctx context.Context, url, title string) ScrapeOutcome {
	return scrapeOne(ctx, o.fetcher, url, title)
}

// scrapeAll is an all-settled fan-out. Outcomes are positional and one
// failure never cancels its siblings.
func scrapeAll(ctx context.Context, fetcher ContentFetcher, limit int, targets []SearchResult) []ScrapeOutcome {
	outcomes := make([]ScrapeOutcome, len(targets))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, t := range targets {
		g.Go(func() error {
			outcomes[i] = scrapeOne(ctx, fetcher, t.URL, t.Title)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func scrapeOne(ctx context.Context, fetcher ContentFetcher, url, title string) (outcome ScrapeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = degradedOutcome(url, title, fmt.Errorf("panic: %v", r))
		}
	}()
	return fetcher.FetchAndSummarize(ctx, url, title)
}

// PerformWebSearch runs a standalone search.
func (o *Orchestrator) PerformWebSearch(ctx context.Context, query string, limit int) []SearchResult {
	return o.searcher.Search(ctx, query, limit)
}

// ScrapeAndSummarize scrapes a single page.
func (o *Orchestrator) ScrapeAndSummarize(ctx context.Context, url, title string) ScrapeOutcome {
	return o.scrapeOne(ctx, url, title)
}

func degradedOutcome(url, title string, reason error) ScrapeOutcome {
	if title == "" {
		title = url
	}
	return ScrapeDegraded{
		Content: ScrapedContent{
			URL:       url,
			Title:     title,
			Summary:   PlaceholderSummary(title),
			Headers:   []Heading{},
			ScrapedAt: time.Now().UTC(),
			Error:     reason.Error(),
		},
		Reason: reason,
	}
}
