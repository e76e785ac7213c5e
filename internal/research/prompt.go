package research

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/microlearn-backend/internal/llm"
)

const jsonOnlySystem = "You are an expert learning designer who builds practical microlearning curricula. " +
	"Always answer with a single strict JSON object and nothing else: no markdown, no code fences, no commentary."

const roadmapSchema = `{
  "overview": "string",
  "prerequisites": ["string"],
  "steps": [
    {
      "week": 1,
      "day": 1,
      "title": "string",
      "description": "string",
      "duration": "30 minutes",
      "type": "theory | practice | project | quiz | review",
      "concepts": ["string"],
      "resources": ["string"],
      "optional": false,
      "difficulty": "beginner | intermediate | advanced"
    }
  ],
  "projects": [{"title": "string", "description": "string", "difficulty": "string", "skills": ["string"]}],
  "milestones": [{"week": 1, "title": "string", "description": "string"}],
  "additionalResources": [{"title": "string", "url": "string", "type": "string", "description": "string"}]
}`

const analysisSchema = `{
  "overview": "string",
  "keyAreas": ["string"],
  "difficulty": "beginner | intermediate | advanced",
  "prerequisites": ["string"],
  "careerRelevance": "string",
  "learningPath": ["string"],
  "estimatedTime": "string"
}`

const comparisonSchema = `{
  "rankings": [
    {"rank": 1, "url": "string", "title": "string", "score": 0.0, "strengths": ["string"], "weaknesses": ["string"], "bestFor": "string"}
  ],
  "summary": "string",
  "recommendation": "string"
}`

var focusGuidance = map[string]string{
	FocusBalanced: "Mix theory and hands-on practice evenly across the plan.",
	FocusTheory:   "Emphasize concepts and reading, with short quizzes to check understanding.",
	FocusPractice: "Favor exercises and hands-on practice over reading.",
	FocusProjects: "Center the plan on building projects; introduce theory only as it is needed.",
}

var depthGuidance = map[string]string{
	DepthBasic:         "Keep it brief: 3 to 4 key areas and a short learning path.",
	DepthDetailed:      "List 5 to 7 key areas and a step-by-step learning path.",
	DepthComprehensive: "List 8 to 10 key areas, a complete learning path and realistic time estimates.",
}

// digest is one line describing a source in a prompt.
type digest struct {
	Title  string
	Source string
	Text   string
}

func roadmapMessages(topic string, sources []digest, opts Options) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a learning roadmap for: %q\n\n", topic)
	b.WriteString("Learner profile:\n")
	fmt.Fprintf(&b, "- Level: %s\n", opts.Level)
	fmt.Fprintf(&b, "- Timeframe: %s\n", opts.Timeframe)
	fmt.Fprintf(&b, "- Daily study time: %d minutes\n", opts.DailyTimeMinutes)
	fmt.Fprintf(&b, "- Focus: %s\n", opts.Focus)
	fmt.Fprintf(&b, "- Include hands-on projects: %s\n\n", yesNo(opts.IncludeProjects))

	if len(sources) > 0 {
		b.WriteString("Research sources (ground the plan in them and cite them in step resources where relevant):\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, s.Title, s.Source, s.Text)
		}
	} else {
		b.WriteString("No external research is available. Rely on well-established learning resources you know.\n")
	}

	b.WriteString("\nRespond with JSON matching this schema exactly:\n")
	b.WriteString(roadmapSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Number days consecutively starting at 1, one step per study day.\n")
	b.WriteString("- Every step must fit within the daily study time.\n")
	b.WriteString("- Use only the listed step types and difficulty levels.\n")
	if g, ok := focusGuidance[opts.Focus]; ok {
		fmt.Fprintf(&b, "- %s\n", g)
	}
	if !opts.IncludeProjects {
		b.WriteString("- Return an empty projects array.\n")
	}

	return []llm.Message{llm.System(jsonOnlySystem), llm.User(b.String())}
}

func summaryMessages(title, text string) []llm.Message {
	prompt := fmt.Sprintf("Summarize the following content from %q in 2-3 sentences. "+
		"Emphasize the actionable learning points a student can apply. Reply with the summary only.\n\nContent:\n%s",
		title, text)
	return []llm.Message{
		llm.System("You summarize educational web pages for learners."),
		llm.User(prompt),
	}
}

func analysisMessages(topic, depth string, sources []digest) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the learning topic %q.\n", topic)
	fmt.Fprintf(&b, "Depth: %s. %s\n\n", depth, depthGuidance[depth])

	if len(sources) > 0 {
		b.WriteString("Web research:\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, s.Title, s.Source, s.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("Respond with JSON matching this schema exactly:\n")
	b.WriteString(analysisSchema)

	return []llm.Message{llm.System(jsonOnlySystem), llm.User(b.String())}
}

func comparisonMessages(topic string, resources []ScrapedContent, excerptChars int) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Compare these learning resources for the topic %q and rank them from most to least useful.\n\n", topic)
	for i, r := range resources {
		fmt.Fprintf(&b, "Resource %d\n", i+1)
		fmt.Fprintf(&b, "URL: %s\nTitle: %s\nWord count: %d\n", r.URL, r.Title, r.WordCount)
		if len(r.Headers) > 0 {
			outline := make([]string, len(r.Headers))
			for j, h := range r.Headers {
				outline[j] = h.Text
			}
			fmt.Fprintf(&b, "Outline: %s\n", strings.Join(outline, " | "))
		}
		fmt.Fprintf(&b, "Summary: %s\n", r.Summary)
		fmt.Fprintf(&b, "Excerpt: %s\n\n", truncateRunes(r.Content, excerptChars))
	}

	b.WriteString("Scores are between 0 and 1. Rank every resource exactly once.\n")
	b.WriteString("Respond with JSON matching this schema exactly:\n")
	b.WriteString(comparisonSchema)

	return []llm.Message{llm.System(jsonOnlySystem), llm.User(b.String())}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
