package research

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftOf(raw string) *Draft {
	return &Draft{Raw: []byte(raw)}
}

func stepsJSON(n int) string {
	steps := make([]string, n)
	for i := range steps {
		steps[i] = fmt.Sprintf(`{"week": %d, "day": %d, "title": "Step %d", "type": "practice"}`, i/5+1, (i+1)*3, i+1)
	}
	return `{"overview": "o", "steps": [` + strings.Join(steps, ",") + `]}`
}

func TestTruncateSteps_CapsAndRenumbers(t *testing.T) {
	for _, n := range []int{1, 6, 7, 8, 14, 30} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			doc := NormalizeDocument(draftOf(stepsJSON(n)), Options{})
			require.Len(t, doc.Steps, n)

			persisted := TruncateSteps(doc.Steps, MaxPersistedSteps)
			assert.LessOrEqual(t, len(persisted), MaxPersistedSteps)
			assert.Len(t, persisted, min(n, MaxPersistedSteps))
			for i, s := range persisted {
				assert.Equal(t, i+1, s.Day)
				assert.Equal(t, fmt.Sprintf("Step %d", i+1), s.Title)
			}
		})
	}
}

func TestTruncateSteps_DoesNotMutateInput(t *testing.T) {
	in := []Step{{Day: 4, Title: "a"}, {Day: 9, Title: "b"}}
	out := TruncateSteps(in, 7)
	assert.Equal(t, 4, in[0].Day)
	assert.Equal(t, 1, out[0].Day)
	assert.Equal(t, 2, out[1].Day)
}

func TestNormalizeDocument_CoercesFields(t *testing.T) {
	raw := `{
	  "overview": "Learn Go",
	  "prerequisites": "basic programming, a terminal",
	  "steps": [
	    {"day": "3", "title": "Variables", "duration": 45, "type": "Exercise", "concepts": "vars, consts", "optional": "true", "difficulty": "EXPERT"},
	    {"title": "Functions", "duration": "20", "type": "unknown", "resources": [{"title": "Tour", "url": "https://go.dev/tour"}, "Effective Go"], "difficulty": "advanced"},
	    {"description": "no title, dropped"},
	    "not an object",
	    {"name": "Review week one", "type": "recap", "duration": "1 hour", "optional": 1}
	  ],
	  "projects": [{"name": "CLI tool", "skills": ["flags", "io"]}, "Web server"],
	  "milestones": ["Basics done", {"week": 3, "title": "Concurrency"}],
	  "additionalResources": ["https://go.dev/doc", {"url": "https://gobyexample.com"}]
	}`

	doc := NormalizeDocument(draftOf(raw), Options{Level: LevelIntermediate, DailyTimeMinutes: 25, IncludeProjects: true})

	assert.Equal(t, "Learn Go", doc.Overview)
	assert.Equal(t, []string{"basic programming", "a terminal"}, doc.Prerequisites)
	require.Len(t, doc.Steps, 3)

	s := doc.Steps[0]
	assert.Equal(t, 1, s.Day)
	assert.Equal(t, "45 minutes", s.Duration)
	assert.Equal(t, StepPractice, s.Type)
	assert.Equal(t, []string{"vars", "consts"}, s.Concepts)
	assert.True(t, s.Optional)
	assert.Equal(t, LevelIntermediate, s.Difficulty)
	assert.NotNil(t, s.Resources)

	s = doc.Steps[1]
	assert.Equal(t, 2, s.Day)
	assert.Equal(t, "20 minutes", s.Duration)
	assert.Equal(t, StepTheory, s.Type)
	assert.Equal(t, []string{"https://go.dev/tour", "Effective Go"}, s.Resources)
	assert.Equal(t, LevelAdvanced, s.Difficulty)

	s = doc.Steps[2]
	assert.Equal(t, "Review week one", s.Title)
	assert.Equal(t, StepReview, s.Type)
	assert.Equal(t, "1 hour", s.Duration)
	assert.True(t, s.Optional)

	require.Len(t, doc.Projects, 2)
	assert.Equal(t, "CLI tool", doc.Projects[0].Title)
	assert.Equal(t, LevelIntermediate, doc.Projects[0].Difficulty)
	assert.Equal(t, "Web server", doc.Projects[1].Title)

	require.Len(t, doc.Milestones, 2)
	assert.Equal(t, Milestone{Week: 1, Title: "Basics done"}, doc.Milestones[0])
	assert.Equal(t, 3, doc.Milestones[1].Week)

	require.Len(t, doc.AdditionalResources, 2)
	assert.Equal(t, "https://go.dev/doc", doc.AdditionalResources[0].URL)
	assert.Equal(t, "https://gobyexample.com", doc.AdditionalResources[1].Title)
}

func TestNormalizeDocument_DefaultsDuration(t *testing.T) {
	doc := NormalizeDocument(draftOf(`{"steps": [{"title": "A"}, {"title": "B", "duration": 0}]}`), Options{DailyTimeMinutes: 15})
	require.Len(t, doc.Steps, 2)
	for _, s := range doc.Steps {
		assert.Equal(t, "15 minutes", s.Duration)
		assert.Equal(t, LevelBeginner, s.Difficulty)
	}
}

func TestNormalizeDocument_FlattensWeeks(t *testing.T) {
	raw := `{"weeks": [
	  {"week": 1, "steps": [{"title": "A"}, {"title": "B"}]},
	  {"steps": [{"title": "C"}, {"title": "D", "week": 5}]}
	]}`
	doc := NormalizeDocument(draftOf(raw), Options{})

	require.Len(t, doc.Steps, 4)
	var weeks, days []int
	for _, s := range doc.Steps {
		weeks = append(weeks, s.Week)
		days = append(days, s.Day)
	}
	assert.Equal(t, []int{1, 1, 2, 5}, weeks)
	assert.Equal(t, []int{1, 2, 3, 4}, days)
}

func TestNormalizeDocument_DropsProjectsWhenNotRequested(t *testing.T) {
	doc := NormalizeDocument(draftOf(`{"steps": [], "projects": [{"title": "P"}]}`), Options{})
	assert.Empty(t, doc.Projects)
	assert.NotNil(t, doc.Projects)
	assert.Empty(t, doc.Steps)
	assert.NotNil(t, doc.Steps)
}

func TestNormalizeDocument_NilDraft(t *testing.T) {
	doc := NormalizeDocument(nil, Options{})
	require.NotNil(t, doc)
	assert.Empty(t, doc.Steps)
}

func TestStaticSkeleton(t *testing.T) {
	doc := StaticSkeleton("Rust", Options{Level: LevelAdvanced, DailyTimeMinutes: 60})

	require.Len(t, doc.Steps, 1)
	s := doc.Steps[0]
	assert.Equal(t, 1, s.Day)
	assert.Equal(t, "Introduction to Rust", s.Title)
	assert.Equal(t, StepTheory, s.Type)
	assert.Equal(t, LevelAdvanced, s.Difficulty)
	assert.Equal(t, "60 minutes", s.Duration)

	assert.Equal(t, LevelBeginner, StaticSkeleton("Go", Options{}).Steps[0].Difficulty)
}

func TestNormalizeAnalysis(t *testing.T) {
	summary, ok := NormalizeAnalysis(draftOf(`{"analysis": {
	  "overview": "Go is a systems language.",
	  "keyAreas": "syntax, concurrency, tooling",
	  "difficulty": "Beginner",
	  "prerequisites": ["programming basics"],
	  "careerRelevance": "Backend roles",
	  "learningPath": ["Tour", "Effective Go"],
	  "estimatedTime": 6
	}}`))
	require.True(t, ok)
	assert.Equal(t, []string{"syntax", "concurrency", "tooling"}, summary.KeyAreas)
	assert.Equal(t, LevelBeginner, summary.Difficulty)
	assert.Equal(t, "Backend roles", summary.CareerRelevance)
	assert.Equal(t, "6", summary.EstimatedTime)

	_, ok = NormalizeAnalysis(draftOf(`{"difficulty": "advanced"}`))
	assert.False(t, ok)
	_, ok = NormalizeAnalysis(nil)
	assert.False(t, ok)
}

func TestNormalizeComparison(t *testing.T) {
	compared := []ScrapedContent{
		{URL: "https://a.example.com", Title: "A"},
		{URL: "https://b.example.com", Title: "B"},
	}
	raw := `{"rankings": [
	  {"rank": 4, "url": "https://b.example.com", "score": 8.5, "strengths": "clear, short", "bestFor": "beginners"},
	  {"rank": 1, "url": "https://invented.example.com", "score": 0.99},
	  {"rank": 2, "url": "https://a.example.com", "title": "Course A", "score": 0.6},
	  {"rank": 3, "url": "https://b.example.com", "score": 0.1}
	], "summary": "B is clearer.", "recommendation": "Start with B."}`

	report, ok := NormalizeComparison(draftOf(raw), compared)
	require.True(t, ok)
	require.Len(t, report.Rankings, 2)

	assert.Equal(t, 1, report.Rankings[0].Rank)
	assert.Equal(t, "https://b.example.com", report.Rankings[0].URL)
	assert.Equal(t, "B", report.Rankings[0].Title)
	assert.InDelta(t, 0.85, report.Rankings[0].Score, 1e-9)
	assert.Equal(t, []string{"clear", "short"}, report.Rankings[0].Strengths)

	assert.Equal(t, 2, report.Rankings[1].Rank)
	assert.Equal(t, "Course A", report.Rankings[1].Title)
	assert.Equal(t, "Start with B.", report.Recommendation)

	_, ok = NormalizeComparison(draftOf(`{"rankings": [], "summary": "nothing"}`), compared)
	assert.False(t, ok)
}
