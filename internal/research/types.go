package research

import (
	"errors"
	"time"
)

// SearchResult is a candidate link for a topic.
type SearchResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// Heading is one entry of a page outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ScrapedContent is the extracted body and summary of one page.
// Error is set when the page could not be scraped; Content is then empty.
type ScrapedContent struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Headers   []Heading `json:"headers"`
	WordCount int       `json:"wordCount"`
	ScrapedAt time.Time `json:"scrapedAt"`
	Error     string    `json:"error,omitempty"`
}

// ScrapeOutcome is either ScrapeOK or ScrapeDegraded.
type ScrapeOutcome interface {
	Scraped() ScrapedContent
	isScrapeOutcome()
}

// ScrapeOK carries a successfully extracted page.
type ScrapeOK struct {
	Content ScrapedContent
}

// ScrapeDegraded carries a placeholder record and the reason the page was unusable.
type ScrapeDegraded struct {
	Content ScrapedContent
	Reason  error
}

func (o ScrapeOK) Scraped() ScrapedContent       { return o.Content }
func (o ScrapeDegraded) Scraped() ScrapedContent { return o.Content }
func (ScrapeOK) isScrapeOutcome()                {}
func (ScrapeDegraded) isScrapeOutcome()          {}

// RankedResource is a search result enriched with scrape data and a quality score.
type RankedResource struct {
	SearchResult
	ScrapedContent *ScrapedContent `json:"scrapedContent,omitempty"`
	QualityScore   float64         `json:"qualityScore"`
}

// StepType 学习步骤类型
type StepType string

const (
	StepTheory   StepType = "theory"
	StepPractice StepType = "practice"
	StepProject  StepType = "project"
	StepQuiz     StepType = "quiz"
	StepReview   StepType = "review"
)

// Valid reports whether t is a known step type.
func (t StepType) Valid() bool {
	switch t {
	case StepTheory, StepPractice, StepProject, StepQuiz, StepReview:
		return true
	}
	return false
}

// Step is one day of a roadmap.
type Step struct {
	Day         int      `json:"day"`
	Week        int      `json:"week,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Type        StepType `json:"type"`
	Concepts    []string `json:"concepts"`
	Resources   []string `json:"resources"`
	Optional    bool     `json:"optional"`
	Difficulty  string   `json:"difficulty"`
}

type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

type Milestone struct {
	Week        int    `json:"week"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// RoadmapDocument is the normalized multi-week curriculum produced by synthesis.
type RoadmapDocument struct {
	Overview            string      `json:"overview"`
	Prerequisites       []string    `json:"prerequisites"`
	Steps               []Step      `json:"steps"`
	Projects            []Project   `json:"projects"`
	Milestones          []Milestone `json:"milestones"`
	AdditionalResources []Resource  `json:"additionalResources"`
}

// GeneratedWith records which path produced a persisted roadmap.
type GeneratedWith string

const (
	GeneratedWithResearchAgent GeneratedWith = "research-agent"
	GeneratedWithBasicLLM      GeneratedWith = "basic-llm"
)

type RoadmapMetadata struct {
	GeneratedWith GeneratedWith    `json:"generatedWith"`
	Topic         string           `json:"topic,omitempty"`
	Sources       []RankedResource `json:"sources"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// Roadmap is the persisted per-user curriculum.
type Roadmap struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"userId"`
	Steps     []Step          `json:"steps"`
	Metadata  RoadmapMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty"`
}

// Methodology tags which tier produced a generation result.
type Methodology string

const (
	MethodologyWebEnhanced Methodology = "web-enhanced-llm"
	MethodologyLLMFallback Methodology = "llm-fallback"
)

// Stage is a state of the generation pipeline.
type Stage string

const (
	StageSearching      Stage = "SEARCHING"
	StageScraping       Stage = "SCRAPING"
	StageRanking        Stage = "RANKING"
	StageSynthesizing   Stage = "SYNTHESIZING"
	StageNormalizing    Stage = "NORMALIZING"
	StageFallbackLLM    Stage = "FALLBACK_LLM_ONLY"
	StageStaticSkeleton Stage = "STATIC_SKELETON"
	StagePersisted      Stage = "PERSISTED"
)

// ComprehensiveRoadmapResult wraps one generation run.
type ComprehensiveRoadmapResult struct {
	Topic            string           `json:"topic"`
	Timeframe        string           `json:"timeframe"`
	Level            string           `json:"level"`
	DailyTimeMinutes int              `json:"dailyTimeMinutes"`
	GeneratedAt      time.Time        `json:"generatedAt"`
	Roadmap          *RoadmapDocument `json:"roadmap"`
	Sources          []RankedResource `json:"sources"`
	Methodology      Methodology      `json:"methodology"`
	TotalSteps       int              `json:"totalSteps"`
	Warning          string           `json:"warning,omitempty"`
	Stages           []Stage          `json:"stages"`
}

// TopicAnalysis is the result of AnalyzeTopic.
type TopicAnalysis struct {
	Topic       string          `json:"topic"`
	Depth       string          `json:"depth"`
	Analysis    AnalysisSummary `json:"analysis"`
	Sources     []SearchResult  `json:"sources"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

type AnalysisSummary struct {
	Overview        string   `json:"overview"`
	KeyAreas        []string `json:"keyAreas"`
	Difficulty      string   `json:"difficulty"`
	Prerequisites   []string `json:"prerequisites"`
	CareerRelevance string   `json:"careerRelevance"`
	LearningPath    []string `json:"learningPath"`
	EstimatedTime   string   `json:"estimatedTime,omitempty"`
}

// ResourceComparison is the result of CompareResources.
type ResourceComparison struct {
	Topic       string           `json:"topic"`
	Comparison  ComparisonReport `json:"comparison"`
	Resources   []ScrapedContent `json:"resources"`
	Skipped     []SkippedURL     `json:"skipped,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

type ComparisonReport struct {
	Rankings       []ResourceRanking `json:"rankings"`
	Summary        string            `json:"summary"`
	Recommendation string            `json:"recommendation"`
}

type ResourceRanking struct {
	Rank       int      `json:"rank"`
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	BestFor    string   `json:"bestFor,omitempty"`
}

type SkippedURL struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

var (
	// ErrNoDocument means the model output could not be parsed by any repair tier.
	ErrNoDocument = errors.New("model output is not a parseable document")

	// ErrInsufficientResources means fewer than two URLs could be scraped for a comparison.
	ErrInsufficientResources = errors.New("not enough valid resources to compare")

	// ErrAnalysisUnavailable means the model produced no usable analysis or comparison.
	ErrAnalysisUnavailable = errors.New("insufficient data to produce an analysis")
)
