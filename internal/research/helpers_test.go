package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
)

var errUpstream = errors.New("upstream unavailable")

// stubProvider is a provider.Provider with canned results.
type stubProvider struct {
	results []*types.SearchResult
	err     error
	calls   int
}

func (p *stubProvider) Search(_ context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &types.SearchResponse{Query: req.Query, Results: p.results, Provider: p.GetID()}, nil
}

func (p *stubProvider) GetID() types.ProviderID { return types.ProviderDuckDuckGo }
func (p *stubProvider) GetName() string         { return "stub" }
func (p *stubProvider) Validate() error         { return nil }

type stubSummarizer struct {
	mu      sync.Mutex
	summary string
	err     error
	inputs  []string
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, text string) (string, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, text)
	s.mu.Unlock()
	return s.summary, s.err
}

// memStore is an in-memory Store keyed by user id.
type memStore struct {
	mu       sync.Mutex
	roadmaps map[string]*Roadmap
	upserts  int
	err      error
}

func newMemStore() *memStore {
	return &memStore{roadmaps: make(map[string]*Roadmap)}
}

func (s *memStore) Upsert(_ context.Context, r *Roadmap) (*Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.err != nil {
		return nil, s.err
	}
	s.roadmaps[r.UserID] = r
	return r, nil
}

func (s *memStore) get(userID string) *Roadmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roadmaps[userID]
}

// articlePage renders an HTML page whose article body is long enough to extract.
func articlePage(title string, words int) string {
	body := strings.Repeat("learn the fundamentals step by step ", words/6+1)
	return fmt.Sprintf(`<html><head><title>%s</title><script>var tracking = 1;</script></head>
<body>
<nav>Home Docs Blog Pricing</nav>
<article>
<h1>%s</h1>
<p>%s</p>
<h2>Installation</h2>
<p>Install the toolchain and verify it works.</p>
<h3>First program</h3>
<p>Write and run your first program.</p>
</article>
<footer>Copyright footer text</footer>
</body></html>`, title, title, body)
}

// newSiteServer serves pages by path. Unknown paths return 404.
func newSiteServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func nopLogger() *logger.Logger {
	return logger.NewNop()
}

func emptyCurated() *CuratedTable {
	return NewCuratedTable(nil, nil)
}
