package research

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxPersistedSteps is the 7-day microlearning cap applied before persistence.
const MaxPersistedSteps = 7

var stepTypeAliases = map[string]StepType{
	"theory":     StepTheory,
	"reading":    StepTheory,
	"read":       StepTheory,
	"lesson":     StepTheory,
	"lecture":    StepTheory,
	"video":      StepTheory,
	"concept":    StepTheory,
	"practice":   StepPractice,
	"exercise":   StepPractice,
	"hands-on":   StepPractice,
	"handson":    StepPractice,
	"coding":     StepPractice,
	"lab":        StepPractice,
	"project":    StepProject,
	"build":      StepProject,
	"capstone":   StepProject,
	"quiz":       StepQuiz,
	"test":       StepQuiz,
	"assessment": StepQuiz,
	"review":     StepReview,
	"recap":      StepReview,
	"revision":   StepReview,
}

// NormalizeDocument coerces a repaired draft into a RoadmapDocument.
// Missing or mistyped fields are defaulted; days are renumbered from 1.
func NormalizeDocument(d *Draft, opts Options) *RoadmapDocument {
	opts = opts.WithDefaults()
	if d == nil {
		return &RoadmapDocument{Prerequisites: []string{}, Steps: []Step{}, Projects: []Project{},
			Milestones: []Milestone{}, AdditionalResources: []Resource{}}
	}
	root := gjson.ParseBytes(d.Raw)

	doc := &RoadmapDocument{
		Overview:      firstString(root, "overview", "summary", "description"),
		Prerequisites: stringList(root.Get("prerequisites")),
		Steps:         []Step{},
	}

	// 有的模型按周分组输出
	var rawSteps []gjson.Result
	if steps := root.Get("steps"); steps.IsArray() {
		rawSteps = steps.Array()
	} else if weeks := root.Get("weeks"); weeks.IsArray() {
		for wi, w := range weeks.Array() {
			week := int(w.Get("week").Int())
			if week <= 0 {
				week = wi + 1
			}
			for _, s := range w.Get("steps").Array() {
				if !s.Get("week").Exists() {
					s = withWeek(s, week)
				}
				rawSteps = append(rawSteps, s)
			}
		}
	}

	for _, s := range rawSteps {
		if !s.IsObject() {
			continue
		}
		step, ok := normalizeStep(s, opts)
		if ok {
			doc.Steps = append(doc.Steps, step)
		}
	}
	renumber(doc.Steps)

	doc.Projects = normalizeProjects(root.Get("projects"), opts)
	doc.Milestones = normalizeMilestones(root.Get("milestones"))
	doc.AdditionalResources = normalizeResources(root.Get("additionalResources"))

	return doc
}

func withWeek(s gjson.Result, week int) gjson.Result {
	raw := strings.TrimSpace(s.Raw)
	if len(raw) < 2 {
		return s
	}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	sep := ""
	if body != "" {
		sep = ","
	}
	return gjson.Parse(fmt.Sprintf(`{"week":%d%s%s}`, week, sep, body))
}

func normalizeStep(s gjson.Result, opts Options) (Step, bool) {
	title := firstString(s, "title", "topic", "name")
	if title == "" {
		return Step{}, false
	}

	step := Step{
		Week:        int(s.Get("week").Int()),
		Title:       title,
		Description: firstString(s, "description", "details", "summary"),
		Duration:    normalizeDuration(s.Get("duration"), opts),
		Type:        normalizeStepType(s.Get("type").String()),
		Concepts:    stringList(s.Get("concepts")),
		Resources:   resourceList(s.Get("resources")),
		Optional:    truthy(s.Get("optional")),
		Difficulty:  normalizeLevel(s.Get("difficulty").String(), opts.Level),
	}
	if step.Week < 0 {
		step.Week = 0
	}
	return step, true
}

// normalizeDuration turns numbers into "N minutes" and fills missing values
// from the daily budget.
func normalizeDuration(v gjson.Result, opts Options) string {
	switch v.Type {
	case gjson.Number:
		if v.Int() > 0 {
			return fmt.Sprintf("%d minutes", v.Int())
		}
	case gjson.String:
		s := strings.TrimSpace(v.String())
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return fmt.Sprintf("%d minutes", n)
		}
		if s != "" {
			return s
		}
	}
	return opts.defaultDuration()
}

func normalizeStepType(v string) StepType {
	key := strings.ToLower(strings.TrimSpace(v))
	if t, ok := stepTypeAliases[key]; ok {
		return t
	}
	return StepTheory
}

func normalizeLevel(v, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if contains(Levels, v) {
		return v
	}
	return fallback
}

func normalizeProjects(v gjson.Result, opts Options) []Project {
	projects := []Project{}
	if !opts.IncludeProjects {
		return projects
	}
	v.ForEach(func(_, p gjson.Result) bool {
		var proj Project
		if p.Type == gjson.String {
			proj.Title = strings.TrimSpace(p.String())
		} else {
			proj = Project{
				Title:       firstString(p, "title", "name"),
				Description: firstString(p, "description", "details"),
				Difficulty:  normalizeLevel(p.Get("difficulty").String(), opts.Level),
				Skills:      stringList(p.Get("skills")),
			}
		}
		if proj.Title != "" {
			projects = append(projects, proj)
		}
		return true
	})
	return projects
}

func normalizeMilestones(v gjson.Result) []Milestone {
	milestones := []Milestone{}
	v.ForEach(func(_, m gjson.Result) bool {
		var ms Milestone
		if m.Type == gjson.String {
			ms = Milestone{Week: len(milestones) + 1, Title: strings.TrimSpace(m.String())}
		} else {
			ms = Milestone{
				Week:        int(m.Get("week").Int()),
				Title:       firstString(m, "title", "name", "milestone"),
				Description: m.Get("description").String(),
			}
			if ms.Week <= 0 {
				ms.Week = len(milestones) + 1
			}
		}
		if ms.Title != "" {
			milestones = append(milestones, ms)
		}
		return true
	})
	return milestones
}

func normalizeResources(v gjson.Result) []Resource {
	resources := []Resource{}
	v.ForEach(func(_, r gjson.Result) bool {
		var res Resource
		if r.Type == gjson.String {
			s := strings.TrimSpace(r.String())
			res.Title = s
			if isHTTPURL(s) {
				res.URL = s
			}
		} else {
			res = Resource{
				Title:       firstString(r, "title", "name"),
				URL:         firstString(r, "url", "link"),
				Type:        r.Get("type").String(),
				Description: r.Get("description").String(),
			}
			if res.Title == "" {
				res.Title = res.URL
			}
		}
		if res.Title != "" {
			resources = append(resources, res)
		}
		return true
	})
	return resources
}

// TruncateSteps keeps the first max steps and renumbers days 1..n.
func TruncateSteps(steps []Step, max int) []Step {
	if max > 0 && len(steps) > max {
		steps = steps[:max]
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	renumber(out)
	return out
}

func renumber(steps []Step) {
	for i := range steps {
		steps[i].Day = i + 1
	}
}

// StaticSkeleton is the last-resort one-step roadmap.
func StaticSkeleton(topic string, opts Options) *RoadmapDocument {
	opts = opts.WithDefaults()
	return &RoadmapDocument{
		Overview:      fmt.Sprintf("A starting point for learning %s.", topic),
		Prerequisites: []string{},
		Steps: []Step{{
			Day:         1,
			Week:        1,
			Title:       "Introduction to " + topic,
			Description: fmt.Sprintf("Get an overview of %s: its core ideas, vocabulary and where it is used.", topic),
			Duration:    opts.defaultDuration(),
			Type:        StepTheory,
			Concepts:    []string{topic},
			Resources:   []string{},
			Difficulty:  normalizeLevel(opts.Level, LevelBeginner),
		}},
		Projects:            []Project{},
		Milestones:          []Milestone{},
		AdditionalResources: []Resource{},
	}
}

// NormalizeAnalysis coerces an analysis draft. Returns false when the draft
// carries no usable content.
func NormalizeAnalysis(d *Draft) (AnalysisSummary, bool) {
	if d == nil {
		return AnalysisSummary{}, false
	}
	root := gjson.ParseBytes(d.Raw)
	if a := root.Get("analysis"); a.IsObject() {
		root = a
	}

	out := AnalysisSummary{
		Overview:        firstString(root, "overview", "summary"),
		KeyAreas:        stringList(root.Get("keyAreas")),
		Difficulty:      normalizeLevel(root.Get("difficulty").String(), LevelIntermediate),
		Prerequisites:   stringList(root.Get("prerequisites")),
		CareerRelevance: firstString(root, "careerRelevance", "career_relevance"),
		LearningPath:    stringList(root.Get("learningPath")),
		EstimatedTime:   stringify(root.Get("estimatedTime")),
	}
	if len(out.KeyAreas) == 0 {
		out.KeyAreas = stringList(root.Get("key_areas"))
	}
	return out, out.Overview != "" || len(out.KeyAreas) > 0
}

// NormalizeComparison coerces a comparison draft and keeps only rankings
// for URLs that were actually compared. Scores above 1 are treated as a
// 0-10 scale.
func NormalizeComparison(d *Draft, compared []ScrapedContent) (ComparisonReport, bool) {
	if d == nil {
		return ComparisonReport{}, false
	}
	root := gjson.ParseBytes(d.Raw)
	if c := root.Get("comparison"); c.IsObject() {
		root = c
	}

	titles := make(map[string]string, len(compared))
	for _, c := range compared {
		titles[c.URL] = c.Title
	}

	report := ComparisonReport{
		Rankings:       []ResourceRanking{},
		Summary:        firstString(root, "summary", "overview"),
		Recommendation: stringify(root.Get("recommendation")),
	}
	seen := make(map[string]bool)
	root.Get("rankings").ForEach(func(_, r gjson.Result) bool {
		u := strings.TrimSpace(r.Get("url").String())
		title, ok := titles[u]
		if !ok || seen[u] {
			return true
		}
		seen[u] = true

		score := r.Get("score").Float()
		if score > 1 {
			score /= 10
		}
		if t := r.Get("title").String(); t != "" {
			title = t
		}
		report.Rankings = append(report.Rankings, ResourceRanking{
			URL:        u,
			Title:      title,
			Score:      clamp01(score),
			Strengths:  stringList(r.Get("strengths")),
			Weaknesses: stringList(r.Get("weaknesses")),
			BestFor:    stringify(r.Get("bestFor")),
		})
		return true
	})
	for i := range report.Rankings {
		report.Rankings[i].Rank = i + 1
	}
	return report, len(report.Rankings) > 0
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(stringify(v.Get(k))); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders scalars as strings and drops objects.
func stringify(v gjson.Result) string {
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return v.String()
	}
	if v.IsArray() {
		return strings.Join(stringList(v), ", ")
	}
	return ""
}

// stringList accepts an array or a comma separated string.
func stringList(v gjson.Result) []string {
	out := []string{}
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			s := strings.TrimSpace(stringify(item))
			if s == "" && item.IsObject() {
				s = firstString(item, "title", "name")
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		for _, part := range strings.Split(v.String(), ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// resourceList prefers URLs for object entries.
func resourceList(v gjson.Result) []string {
	if !v.IsArray() {
		return stringList(v)
	}
	out := []string{}
	for _, item := range v.Array() {
		var s string
		if item.IsObject() {
			s = firstString(item, "url", "link", "title", "name")
		} else {
			s = strings.TrimSpace(stringify(item))
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		b, _ := strconv.ParseBool(strings.TrimSpace(v.String()))
		return b
	case gjson.Number:
		return v.Int() != 0
	}
	return false
}
