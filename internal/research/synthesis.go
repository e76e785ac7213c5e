package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/jsonrepair"
	"github.com/lk2023060901/microlearn-backend/internal/llm"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// SynthesisConfig 合成引擎配置
type SynthesisConfig struct {
	MaxResources     int
	DigestTokens     int
	RoadmapMaxTokens int
	SummaryMaxTokens int
	ExcerptChars     int
	Timeout          time.Duration
	SummaryTimeout   time.Duration
}

func (c SynthesisConfig) withDefaults() SynthesisConfig {
	if c.MaxResources <= 0 {
		c.MaxResources = 5
	}
	if c.DigestTokens <= 0 {
		c.DigestTokens = 60
	}
	if c.RoadmapMaxTokens <= 0 {
		c.RoadmapMaxTokens = 4000
	}
	if c.SummaryMaxTokens <= 0 {
		c.SummaryMaxTokens = 200
	}
	if c.ExcerptChars <= 0 {
		c.ExcerptChars = 500
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	if c.SummaryTimeout <= 0 {
		c.SummaryTimeout = 20 * time.Second
	}
	return c
}

// Draft is repaired, syntactically valid model output. Field types are not
// guaranteed; callers normalize it.
type Draft struct {
	Raw  []byte
	Tier jsonrepair.Tier
}

// Get queries the draft with a gjson path.
func (d *Draft) Get(path string) gjson.Result {
	return gjson.GetBytes(d.Raw, path)
}

// Engine prompts the language model and repairs its JSON output.
type Engine struct {
	client llm.Client
	tokens *llm.TokenCounter
	config SynthesisConfig
	logger *logger.Logger
}

// NewEngine creates a synthesis Engine. tokens may be nil.
func NewEngine(client llm.Client, tokens *llm.TokenCounter, cfg SynthesisConfig, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.L()
	}
	return &Engine{
		client: client,
		tokens: tokens,
		config: cfg.withDefaults(),
		logger: log.Named("synthesis"),
	}
}

// Synthesize builds a roadmap grounded in at most MaxResources ranked resources.
func (e *Engine) Synthesize(ctx context.Context, topic string, resources []RankedResource, opts Options) (*Draft, error) {
	if len(resources) > e.config.MaxResources {
		resources = resources[:e.config.MaxResources]
	}
	digests := make([]digest, 0, len(resources))
	for _, r := range resources {
		digests = append(digests, e.digestOf(r))
	}
	return e.completeDraft(ctx, "roadmap", roadmapMessages(topic, digests, opts.WithDefaults()), e.config.RoadmapMaxTokens)
}

// SynthesizeFallback builds a roadmap with no web context.
func (e *Engine) SynthesizeFallback(ctx context.Context, topic string, opts Options) (*Draft, error) {
	return e.completeDraft(ctx, "roadmap_fallback", roadmapMessages(topic, nil, opts.WithDefaults()), e.config.RoadmapMaxTokens)
}

// Summarize returns a 2-3 sentence abstractive summary of text.
func (e *Engine) Summarize(ctx context.Context, title, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.SummaryTimeout)
	defer cancel()

	out, err := e.client.Complete(ctx, &llm.Request{
		Messages:    summaryMessages(title, text),
		MaxTokens:   e.config.SummaryMaxTokens,
		Temperature: llm.Float32(0.3),
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"`), nil
}

// Analyze produces a topic analysis draft from search results and scraped pages.
func (e *Engine) Analyze(ctx context.Context, topic, depth string, results []SearchResult, scraped []ScrapedContent) (*Draft, error) {
	summaries := make(map[string]string, len(scraped))
	for _, s := range scraped {
		summaries[s.URL] = s.Summary
	}

	digests := make([]digest, 0, len(results))
	for _, r := range results {
		text := r.Snippet
		if s, ok := summaries[r.URL]; ok && s != "" {
			text = s
		}
		digests = append(digests, digest{Title: r.Title, Source: r.Source, Text: e.oneLine(text)})
	}
	return e.completeDraft(ctx, "analysis", analysisMessages(topic, depth, digests), e.config.RoadmapMaxTokens/2)
}

// Compare produces a comparison draft over successfully scraped resources.
func (e *Engine) Compare(ctx context.Context, topic string, resources []ScrapedContent) (*Draft, error) {
	return e.completeDraft(ctx, "comparison", comparisonMessages(topic, resources, e.config.ExcerptChars), e.config.RoadmapMaxTokens/2)
}

func (e *Engine) completeDraft(ctx context.Context, kind string, messages []llm.Message, maxTokens int) (*Draft, error) {
	log := e.logger.WithContext(ctx).With(zap.String("kind", kind))

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	out, err := e.client.Complete(ctx, &llm.Request{
		Messages:  messages,
		MaxTokens: maxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", kind, err)
	}

	raw, tier, ok := jsonrepair.Repair(out)
	if !ok || !gjson.ParseBytes(raw).IsObject() {
		log.Warn("model output could not be repaired", zap.Int("length", len(out)))
		return nil, ErrNoDocument
	}
	if tier != jsonrepair.TierDirect {
		log.Info("model output repaired", zap.Stringer("tier", tier))
	}
	return &Draft{Raw: raw, Tier: tier}, nil
}

func (e *Engine) digestOf(r RankedResource) digest {
	text := r.Snippet
	if r.ScrapedContent != nil && r.ScrapedContent.Summary != "" {
		text = r.ScrapedContent.Summary
	}
	return digest{Title: r.Title, Source: r.Source, Text: e.oneLine(text)}
}

// oneLine collapses whitespace and bounds text to the digest token budget.
func (e *Engine) oneLine(text string) string {
	text = normalizeSpace(text)
	if text == "" {
		return "(no description)"
	}
	return e.tokens.Truncate(text, e.config.DigestTokens)
}
