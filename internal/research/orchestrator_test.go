package research

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/llm"
	"github.com/lk2023060901/microlearn-backend/internal/llm/llmtest"
	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSummary = "This guide teaches React components, props and state with hands-on examples."

// scriptedModel answers summaries with testSummary and roadmap prompts with
// roadmap, failing the first failRoadmaps roadmap calls.
func scriptedModel(roadmap string, failRoadmaps int32) *llmtest.Client {
	var roadmapCalls int32
	client := llmtest.New()
	client.Respond = func(req *llm.Request) (string, error) {
		if !req.JSON {
			return testSummary, nil
		}
		if atomic.AddInt32(&roadmapCalls, 1) <= failRoadmaps {
			return "", errUpstream
		}
		return roadmap, nil
	}
	return client
}

type pipelineFixture struct {
	orchestrator *Orchestrator
	store        *memStore
	provider     *stubProvider
	client       *llmtest.Client
}

func newPipeline(t *testing.T, p *stubProvider, curated *CuratedTable, client *llmtest.Client) *pipelineFixture {
	t.Helper()
	engine := newTestEngine(client)
	ranker := newTestRanker(t)
	store := newMemStore()

	searcher := NewSearcher(p, curated, SearchConfig{}, nopLogger())
	fetcher := NewFetcher(DefaultFetcherConfig(), engine, nopLogger())
	o := NewOrchestrator(searcher, fetcher, ranker, engine, store, PipelineConfig{}, nopLogger())

	return &pipelineFixture{orchestrator: o, store: store, provider: p, client: client}
}

func liveResults(baseURL string, paths ...string) []*types.SearchResult {
	out := make([]*types.SearchResult, len(paths))
	for i, p := range paths {
		out[i] = &types.SearchResult{
			Title:   fmt.Sprintf("React page %d", i+1),
			URL:     baseURL + p,
			Content: "A React tutorial.",
			Score:   0.7,
		}
	}
	return out
}

func manyStepsReply(n int) string {
	return stepsJSON(n)
}

// Scenario A: search, scrape and synthesis all available.
func TestGenerate_WebEnhanced(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/a": articlePage("React Docs", 700),
		"/b": articlePage("React Tutorial", 200),
	})
	p := &stubProvider{results: liveResults(srv.URL, "/a", "/b", "/missing")}
	f := newPipeline(t, p, emptyCurated(), scriptedModel(roadmapReply, 0))

	opts := Options{Level: LevelBeginner, Timeframe: "4-weeks", DailyTimeMinutes: 30}
	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Learn React from scratch", opts)

	require.NotNil(t, result)
	assert.Equal(t, MethodologyWebEnhanced, result.Methodology)
	assert.Empty(t, result.Warning)
	assert.GreaterOrEqual(t, len(result.Sources), 1)
	assert.LessOrEqual(t, len(result.Sources), 5)
	require.NotNil(t, result.Roadmap)
	assert.GreaterOrEqual(t, len(result.Roadmap.Steps), 1)
	assert.Equal(t, len(result.Roadmap.Steps), result.TotalSteps)
	assert.Equal(t, "4-weeks", result.Timeframe)
	assert.Equal(t, 30, result.DailyTimeMinutes)
	assert.Equal(t, []Stage{StageSearching, StageScraping, StageRanking, StageSynthesizing, StageNormalizing, StagePersisted}, result.Stages)

	// the two readable pages carry scrape data, the 404 does not
	scraped := 0
	for _, s := range result.Sources {
		if s.ScrapedContent != nil {
			scraped++
			assert.Equal(t, testSummary, s.ScrapedContent.Summary)
		}
	}
	assert.Equal(t, 2, scraped)

	stored := f.store.get("user-1")
	require.NotNil(t, stored)
	assert.Equal(t, GeneratedWithResearchAgent, stored.Metadata.GeneratedWith)
	assert.Equal(t, "Learn React from scratch", stored.Metadata.Topic)
	assert.NotEmpty(t, stored.Metadata.Sources)
	assert.Equal(t, 1, f.store.upserts)

	// sources reach the synthesis prompt
	var roadmapPrompt string
	for _, req := range f.client.Requests() {
		if req.JSON {
			roadmapPrompt = req.Messages[1].Content
		}
	}
	assert.Contains(t, roadmapPrompt, "React page")
}

// Scenario B: search fails and nothing curated matches.
func TestGenerate_SearchFailureFallsBackToLLM(t *testing.T) {
	curated := NewCuratedTable([]string{"python"}, map[string][]CuratedEntry{
		"python": {{Title: "Python", URL: "https://docs.python.org/3/tutorial/", Score: 0.9}},
	})
	f := newPipeline(t, &stubProvider{err: errUpstream}, curated, scriptedModel(roadmapReply, 0))

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Learn React from scratch",
		Options{Level: LevelBeginner, Timeframe: "4-weeks", DailyTimeMinutes: 30})

	assert.Equal(t, MethodologyLLMFallback, result.Methodology)
	assert.NotEmpty(t, result.Warning)
	assert.NotEmpty(t, result.Roadmap.Steps)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
	assert.Contains(t, result.Stages, StageFallbackLLM)
	assert.NotContains(t, result.Stages, StageStaticSkeleton)

	stored := f.store.get("user-1")
	require.NotNil(t, stored)
	assert.Equal(t, GeneratedWithBasicLLM, stored.Metadata.GeneratedWith)
	assert.Empty(t, stored.Metadata.Sources)
}

func TestGenerate_PrimarySynthesisFailureFallsBack(t *testing.T) {
	srv := newSiteServer(t, map[string]string{"/a": articlePage("React Docs", 300)})
	p := &stubProvider{results: liveResults(srv.URL, "/a", "/b", "/c")}
	client := scriptedModel(roadmapReply, 1)
	f := newPipeline(t, p, emptyCurated(), client)

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "React", Options{})

	assert.Equal(t, MethodologyLLMFallback, result.Methodology)
	assert.Contains(t, result.Warning, "Web research was unavailable")
	assert.Equal(t, "JSX basics", result.Roadmap.Steps[0].Title)

	var last *llm.Request
	for _, req := range client.Requests() {
		if req.JSON {
			last = req
		}
	}
	require.NotNil(t, last)
	assert.Contains(t, last.Messages[1].Content, "No external research is available")
}

func TestGenerate_EmptyStepsFallsBack(t *testing.T) {
	p := &stubProvider{results: liveResults("https://example.com", "/a", "/b", "/c")}
	f := newPipeline(t, p, emptyCurated(), llmtest.New())
	f.client.Respond = func(req *llm.Request) (string, error) {
		if !req.JSON {
			return "", errUpstream
		}
		if strings.Contains(req.Messages[1].Content, "No external research") {
			return roadmapReply, nil
		}
		return `{"overview": "nothing useful", "steps": []}`, nil
	}
	// keep page fetches off the network
	f.orchestrator.fetcher = fetcherFunc(func(_ context.Context, url, title string) ScrapeOutcome {
		return degradedOutcome(url, title, errUpstream)
	})

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "React", Options{})
	assert.Equal(t, MethodologyLLMFallback, result.Methodology)
	assert.NotEmpty(t, result.Roadmap.Steps)
}

// P6: search, every scrape and every model call fail.
func TestGenerate_TotalFailureYieldsSkeleton(t *testing.T) {
	f := newPipeline(t, &stubProvider{err: errUpstream}, emptyCurated(), llmtest.Failing(errUpstream))

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Quantum Computing",
		Options{Level: LevelAdvanced})

	require.NotNil(t, result)
	assert.Equal(t, MethodologyLLMFallback, result.Methodology)
	assert.Contains(t, result.Warning, "static skeleton")
	require.Len(t, result.Roadmap.Steps, 1)
	assert.Equal(t, "Introduction to Quantum Computing", result.Roadmap.Steps[0].Title)
	assert.Equal(t, LevelAdvanced, result.Roadmap.Steps[0].Difficulty)
	assert.Equal(t, []Stage{StageSearching, StageFallbackLLM, StageStaticSkeleton, StagePersisted}, result.Stages)

	stored := f.store.get("user-1")
	require.NotNil(t, stored)
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, StepTheory, stored.Steps[0].Type)
	assert.Equal(t, GeneratedWithBasicLLM, stored.Metadata.GeneratedWith)
}

func TestGenerate_UnparseableModelOutputYieldsSkeleton(t *testing.T) {
	f := newPipeline(t, &stubProvider{err: errUpstream}, emptyCurated(), llmtest.Text("sorry, no roadmap today"))

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "", "Go", Options{})
	assert.Contains(t, result.Stages, StageStaticSkeleton)
	assert.Len(t, result.Roadmap.Steps, 1)
	// no user, nothing persisted
	assert.Zero(t, f.store.upserts)
	assert.NotContains(t, result.Stages, StagePersisted)
}

// P5: the persisted roadmap keeps at most seven contiguous days.
func TestGenerate_PersistsAtMostSevenSteps(t *testing.T) {
	f := newPipeline(t, &stubProvider{err: errUpstream}, emptyCurated(), scriptedModel(manyStepsReply(20), 0))

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-9", "Go", Options{})
	assert.Len(t, result.Roadmap.Steps, 20)
	assert.Equal(t, 20, result.TotalSteps)

	stored := f.store.get("user-9")
	require.NotNil(t, stored)
	require.Len(t, stored.Steps, MaxPersistedSteps)
	for i, s := range stored.Steps {
		assert.Equal(t, i+1, s.Day)
	}
}

func TestGenerate_RegenerateReplaces(t *testing.T) {
	f := newPipeline(t, &stubProvider{err: errUpstream}, emptyCurated(), scriptedModel(manyStepsReply(3), 0))

	f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Go", Options{})
	f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Rust", Options{})

	assert.Equal(t, 2, f.store.upserts)
	assert.Len(t, f.store.roadmaps, 1)
	assert.Equal(t, "Rust", f.store.get("user-1").Metadata.Topic)
}

func TestGenerate_PersistFailureIsAWarning(t *testing.T) {
	f := newPipeline(t, &stubProvider{err: errUpstream}, emptyCurated(), scriptedModel(roadmapReply, 0))
	f.store.err = errUpstream

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Go", Options{})
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Roadmap.Steps)
	assert.Contains(t, result.Warning, "could not be saved")
	assert.NotContains(t, result.Stages, StagePersisted)
}

func TestGenerate_PanicInSearchFallsBack(t *testing.T) {
	f := newPipeline(t, &stubProvider{}, emptyCurated(), scriptedModel(roadmapReply, 0))
	f.orchestrator.searcher = searcherFunc(func(context.Context, string, int) []SearchResult {
		panic("boom")
	})

	result := f.orchestrator.GenerateComprehensiveRoadmap(context.Background(), "user-1", "Go", Options{})
	assert.Equal(t, MethodologyLLMFallback, result.Methodology)
	assert.Contains(t, result.Warning, "panic")
}

type fetcherFunc func(ctx context.Context, url, title string) ScrapeOutcome

func (f fetcherFunc) FetchAndSummarize(ctx context.Context, url, title string) ScrapeOutcome {
	return f(ctx, url, title)
}

type searcherFunc func(ctx context.Context, query string, maxResults int) []SearchResult

func (f searcherFunc) Search(ctx context.Context, query string, maxResults int) []SearchResult {
	return f(ctx, query, maxResults)
}

func TestScrapeAll_SettlesPositionally(t *testing.T) {
	var running, peak int32
	fetcher := fetcherFunc(func(_ context.Context, url, title string) ScrapeOutcome {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}

		switch url {
		case "panic":
			panic("fetcher bug")
		case "slow":
			time.Sleep(50 * time.Millisecond)
		case "bad":
			return degradedOutcome(url, title, errUpstream)
		}
		return ScrapeOK{Content: ScrapedContent{URL: url, Title: title, Summary: "fine"}}
	})

	o := NewOrchestrator(nil, fetcher, nil, nil, nil, PipelineConfig{ScrapeConcurrency: 2}, nopLogger())
	targets := []SearchResult{{URL: "slow"}, {URL: "panic"}, {URL: "ok"}, {URL: "bad"}, {URL: "ok2"}}

	outcomes := o.ScrapeAll(context.Background(), targets)
	require.Len(t, outcomes, len(targets))
	assert.IsType(t, ScrapeOK{}, outcomes[0])
	assert.IsType(t, ScrapeDegraded{}, outcomes[1])
	assert.Contains(t, outcomes[1].Scraped().Error, "panic")
	assert.IsType(t, ScrapeOK{}, outcomes[2])
	assert.IsType(t, ScrapeDegraded{}, outcomes[3])
	assert.IsType(t, ScrapeOK{}, outcomes[4])
	for i, oc := range outcomes {
		assert.Equal(t, targets[i].URL, oc.Scraped().URL)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestScrapeAndSummarize_MalformedURL(t *testing.T) {
	f := newPipeline(t, &stubProvider{}, emptyCurated(), llmtest.New())

	outcome := f.orchestrator.ScrapeAndSummarize(context.Background(), "not a url", "X")
	sc := outcome.Scraped()
	assert.NotEmpty(t, sc.Error)
	assert.Empty(t, sc.Content)
	assert.Contains(t, sc.Summary, "X")
	assert.Equal(t, PlaceholderSummary("X"), sc.Summary)
}
