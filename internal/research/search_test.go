package research

import (
	"context"
	"fmt"
	"testing"

	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearcher_FallsBackToCuratedOnError(t *testing.T) {
	p := &stubProvider{err: errUpstream}
	s := NewSearcher(p, DefaultCuratedTable(), SearchConfig{}, nopLogger())

	for _, query := range []string{"Learn React from scratch", "PYTHON for data analysis", "intro to kubernetes"} {
		t.Run(query, func(t *testing.T) {
			results := s.Search(context.Background(), query, 10)
			require.NotEmpty(t, results)
			for _, r := range results {
				assert.NotEmpty(t, r.URL)
				assert.NotEmpty(t, r.Source)
				assert.GreaterOrEqual(t, r.RelevanceScore, 0.8)
				assert.LessOrEqual(t, r.RelevanceScore, 0.95)
			}
		})
	}
}

func TestSearcher_NeverReturnsNil(t *testing.T) {
	s := NewSearcher(&stubProvider{err: errUpstream}, DefaultCuratedTable(), SearchConfig{}, nopLogger())

	results := s.Search(context.Background(), "underwater basket weaving", 5)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results = s.Search(context.Background(), "   ", 5)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearcher_NilProviderUsesCurated(t *testing.T) {
	s := NewSearcher(nil, DefaultCuratedTable(), SearchConfig{}, nopLogger())
	results := s.Search(context.Background(), "golang concurrency", 10)
	assert.NotEmpty(t, results)
}

func TestSearcher_TopsUpThinResults(t *testing.T) {
	p := &stubProvider{results: []*types.SearchResult{
		{Title: "Rust Book", URL: "https://doc.rust-lang.org/book/", Content: "The book", Score: 0.9},
		{Title: "", URL: "https://example.com/untitled", Content: "dropped"},
		{Title: "Not http", URL: "ftp://example.com/file", Content: "dropped"},
	}}
	s := NewSearcher(p, DefaultCuratedTable(), SearchConfig{MinResults: 3}, nopLogger())

	results := s.Search(context.Background(), "rust", 10)
	require.Greater(t, len(results), 1)
	assert.Equal(t, "https://doc.rust-lang.org/book/", results[0].URL)
	assert.Equal(t, "doc.rust-lang.org", results[0].Source)

	seen := map[string]bool{}
	for _, r := range results {
		assert.False(t, seen[r.URL], "duplicate url %s", r.URL)
		seen[r.URL] = true
	}
}

func TestSearcher_EnoughLiveResultsSkipCurated(t *testing.T) {
	var live []*types.SearchResult
	for i := 0; i < 4; i++ {
		live = append(live, &types.SearchResult{
			Title: fmt.Sprintf("Result %d", i),
			URL:   fmt.Sprintf("https://www.example.com/%d", i),
			Score: 0.7,
		})
	}
	s := NewSearcher(&stubProvider{results: live}, DefaultCuratedTable(), SearchConfig{}, nopLogger())

	results := s.Search(context.Background(), "python", 10)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, "example.com", r.Source)
	}
}

func TestSearcher_ClampsLimit(t *testing.T) {
	var live []*types.SearchResult
	for i := 0; i < 30; i++ {
		live = append(live, &types.SearchResult{
			Title: fmt.Sprintf("Result %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
			Score: 1.7,
		})
	}
	s := NewSearcher(&stubProvider{results: live}, emptyCurated(), SearchConfig{}, nopLogger())

	assert.Len(t, s.Search(context.Background(), "x", 0), DefaultSearchLimit)
	assert.Len(t, s.Search(context.Background(), "x", 100), MaxSearchLimit)
	assert.Len(t, s.Search(context.Background(), "x", 2), 2)
	assert.Equal(t, 1.0, s.Search(context.Background(), "x", 1)[0].RelevanceScore)
}

func TestSearcher_NegativeLimit(t *testing.T) {
	s := NewSearcher(nil, DefaultCuratedTable(), SearchConfig{}, nopLogger())

	var results []SearchResult
	require.NotPanics(t, func() {
		results = s.Search(context.Background(), "learn python", -1)
	})
	assert.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), DefaultSearchLimit)

	require.NotPanics(t, func() {
		results = s.Search(context.Background(), "", -5)
	})
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestCuratedTable_MatchesWholeWords(t *testing.T) {
	table := DefaultCuratedTable()

	tests := []struct {
		query string
		want  bool
	}{
		{"Learn React from scratch", true},
		{"reactjs hooks", true},
		{"python3 for beginners", true},
		{"Docker containers", true},
		{"intro to machine learning", true},
		{"node.js streams", true},
		{"reactive programming", false},
		{"Building trust in teams", false},
		{"NoSQL databases", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, len(table.Lookup(tt.query)) > 0)
		})
	}
}

func TestCuratedTable_Lookup(t *testing.T) {
	table := NewCuratedTable([]string{"Go", "golang"}, map[string][]CuratedEntry{
		"Go":     {{Title: "Tour", URL: "https://go.dev/tour/", Score: 0.9}},
		"golang": {{Title: "Tour", URL: "https://go.dev/tour/", Score: 0.9}, {Title: "Effective Go", URL: "https://go.dev/doc/effective_go", Score: 0.85}},
	})

	results := table.Lookup("Learning GOLANG")
	require.Len(t, results, 2)
	assert.Equal(t, "go.dev", results[0].Source)
	assert.Empty(t, table.Lookup("rust"))

	var nilTable *CuratedTable
	assert.Nil(t, nilTable.Lookup("go"))
}
