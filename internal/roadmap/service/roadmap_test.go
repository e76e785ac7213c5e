package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/microlearn-backend/internal/pkg/errors"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	"github.com/lk2023060901/microlearn-backend/internal/roadmap/biz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	roadmaps map[string]*research.Roadmap
}

func (r *memRepo) Upsert(_ context.Context, rm *research.Roadmap) (*research.Roadmap, error) {
	r.roadmaps[rm.UserID] = rm
	return rm, nil
}

func (r *memRepo) GetByUserID(_ context.Context, userID string) (*research.Roadmap, error) {
	if rm, ok := r.roadmaps[userID]; ok {
		return rm, nil
	}
	return nil, biz.ErrRoadmapNotFound
}

type fakePipeline struct {
	repo *memRepo
}

func (p *fakePipeline) GenerateComprehensiveRoadmap(ctx context.Context, userID, topic string, opts research.Options) *research.ComprehensiveRoadmapResult {
	steps := []research.Step{{Day: 1, Title: "Introduction to " + topic, Type: research.StepTheory}}
	_, _ = p.repo.Upsert(ctx, &research.Roadmap{UserID: userID, Steps: steps})
	return &research.ComprehensiveRoadmapResult{
		Topic:       topic,
		Level:       opts.Level,
		Timeframe:   opts.Timeframe,
		Roadmap:     &research.RoadmapDocument{Steps: steps},
		Methodology: research.MethodologyLLMFallback,
		TotalSteps:  1,
		Warning:     "Web research was unavailable",
	}
}

func (p *fakePipeline) PerformWebSearch(_ context.Context, query string, limit int) []research.SearchResult {
	out := make([]research.SearchResult, 0, limit)
	for i := 0; i < limit && i < 2; i++ {
		out = append(out, research.SearchResult{Title: query, URL: "https://go.dev/doc", Source: "go.dev"})
	}
	return out
}

func (p *fakePipeline) ScrapeAndSummarize(_ context.Context, url, title string) research.ScrapeOutcome {
	return research.ScrapeDegraded{
		Content: research.ScrapedContent{URL: url, Title: title, Summary: research.PlaceholderSummary(title), Error: "invalid url"},
		Reason:  errors.New("invalid url"),
	}
}

type fakeAnalyzer struct {
	err error
}

func (a *fakeAnalyzer) AnalyzeTopic(_ context.Context, topic, depth string) (*research.TopicAnalysis, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &research.TopicAnalysis{Topic: topic, Depth: depth}, nil
}

func (a *fakeAnalyzer) CompareResources(_ context.Context, topic string, _ []string) (*research.ResourceComparison, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &research.ResourceComparison{Topic: topic}, nil
}

func setupRouter(analyzer *fakeAnalyzer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	repo := &memRepo{roadmaps: map[string]*research.Roadmap{}}
	uc := biz.NewRoadmapUseCase(repo, &fakePipeline{repo: repo}, analyzer, nil, biz.Config{}, logger.NewNop())
	svc := NewRoadmapService(uc, logger.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("user_id", id)
		}
		c.Next()
	})
	api := r.Group("/api/v1")
	api.POST("/research/roadmap", svc.GenerateRoadmap)
	api.GET("/roadmap", svc.GetRoadmap)
	api.POST("/research/search", svc.Search)
	api.POST("/research/scrape", svc.Scrape)
	api.POST("/research/analyze", svc.Analyze)
	api.POST("/research/compare", svc.Compare)
	return r
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, user string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestGenerateRoadmap_Handler(t *testing.T) {
	r := setupRouter(&fakeAnalyzer{})

	w, env := do(t, r, http.MethodPost, "/api/v1/research/roadmap", "user-1", map[string]interface{}{
		"topic": "React", "level": "intermediate", "timeframe": "2-weeks",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, apperrors.Success, env.Code)

	var result research.ComprehensiveRoadmapResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "React", result.Topic)
	assert.Equal(t, research.MethodologyLLMFallback, result.Methodology)
	assert.NotEmpty(t, result.Warning)

	w, env = do(t, r, http.MethodGet, "/api/v1/roadmap", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var saved research.Roadmap
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Len(t, saved.Steps, 1)
}

func TestGenerateRoadmap_Rejections(t *testing.T) {
	r := setupRouter(&fakeAnalyzer{})

	tests := []struct {
		name   string
		user   string
		body   interface{}
		status int
		code   int
	}{
		{"no user", "", map[string]interface{}{"topic": "Go"}, http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{"empty topic", "u", map[string]interface{}{"topic": "  "}, http.StatusBadRequest, apperrors.ErrRoadmapInvalidTopic},
		{"bad level", "u", map[string]interface{}{"topic": "Go", "level": "guru"}, http.StatusBadRequest, apperrors.ErrRoadmapInvalidOptions},
		{"bad minutes", "u", map[string]interface{}{"topic": "Go", "dailyTimeMinutes": 1000}, http.StatusBadRequest, apperrors.ErrRoadmapInvalidOptions},
		{"malformed body", "u", "not an object", http.StatusBadRequest, apperrors.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/v1/research/roadmap", tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestGetRoadmap_NotFound(t *testing.T) {
	r := setupRouter(&fakeAnalyzer{})

	w, env := do(t, r, http.MethodGet, "/api/v1/roadmap", "nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrRoadmapNotFound, env.Code)
}

func TestSearch_Handler(t *testing.T) {
	r := setupRouter(&fakeAnalyzer{})

	w, env := do(t, r, http.MethodPost, "/api/v1/research/search", "u", map[string]interface{}{"query": "golang", "limit": 5})
	require.Equal(t, http.StatusOK, w.Code)
	var got SearchResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, "go.dev", got.Results[0].Source)

	w, env = do(t, r, http.MethodPost, "/api/v1/research/search", "u", map[string]interface{}{"query": "golang", "limit": 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrInvalidParams, env.Code)
}

// A malformed URL degrades instead of failing.
func TestScrape_MalformedURL(t *testing.T) {
	r := setupRouter(&fakeAnalyzer{})

	w, env := do(t, r, http.MethodPost, "/api/v1/research/scrape", "u", map[string]interface{}{"url": "not a url", "title": "Broken"})
	require.Equal(t, http.StatusOK, w.Code)
	var got research.ScrapedContent
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "not a url", got.URL)
	assert.NotEmpty(t, got.Error)
	assert.Contains(t, got.Summary, "Broken")

	w, env = do(t, r, http.MethodPost, "/api/v1/research/scrape", "u", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrInvalidResourceURL, env.Code)
}

func TestAnalyzeAndCompare_Handler(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	r := setupRouter(analyzer)

	w, env := do(t, r, http.MethodPost, "/api/v1/research/analyze", "u", map[string]interface{}{"topic": "ML"})
	require.Equal(t, http.StatusOK, w.Code)
	var analysis research.TopicAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.Equal(t, research.DepthDetailed, analysis.Depth)

	w, env = do(t, r, http.MethodPost, "/api/v1/research/analyze", "u", map[string]interface{}{"topic": "ML", "depth": "extreme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrRoadmapInvalidOptions, env.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/research/compare", "u", map[string]interface{}{"topic": "ML", "urls": []string{"https://a.com"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrInvalidResourceURL, env.Code)

	analyzer.err = research.ErrInsufficientResources
	w, env = do(t, r, http.MethodPost, "/api/v1/research/compare", "u", map[string]interface{}{
		"topic": "ML", "urls": []string{"https://a.com", "https://b.com"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.ErrInsufficientResources, env.Code)

	analyzer.err = research.ErrAnalysisUnavailable
	w, env = do(t, r, http.MethodPost, "/api/v1/research/analyze", "u", map[string]interface{}{"topic": "ML"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.ErrAnalysisUnavailable, env.Code)

	analyzer.err = errors.New("boom")
	w, env = do(t, r, http.MethodPost, "/api/v1/research/analyze", "u", map[string]interface{}{"topic": "ML"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrInternalServer, env.Code)
}
