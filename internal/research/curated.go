package research

import (
	"regexp"
	"strings"
)

// CuratedEntry is one hand-picked resource.
type CuratedEntry struct {
	Title   string
	URL     string
	Snippet string
	Score   float64
}

// CuratedTable maps lower-case topic keywords to trusted resources.
type CuratedTable struct {
	keywords []string
	patterns map[string]*regexp.Regexp
	entries  map[string][]CuratedEntry
}

// NewCuratedTable builds a table. Keywords are matched case-insensitively
// as whole words of the query, in the order given. A trailing "js", "s" or
// version number is allowed, so "react" matches "ReactJS" but not "reactive".
func NewCuratedTable(keywords []string, entries map[string][]CuratedEntry) *CuratedTable {
	t := &CuratedTable{
		patterns: make(map[string]*regexp.Regexp, len(entries)),
		entries:  make(map[string][]CuratedEntry, len(entries)),
	}
	for _, k := range keywords {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, ok := entries[k]; !ok || lk == "" {
			continue
		}
		t.keywords = append(t.keywords, lk)
		t.patterns[lk] = regexp.MustCompile(`\b` + regexp.QuoteMeta(lk) + `(?:js|s|\d+)?\b`)
		t.entries[lk] = entries[k]
	}
	return t
}

// Lookup returns the entries of every keyword contained in query, without duplicate URLs.
func (t *CuratedTable) Lookup(query string) []SearchResult {
	if t == nil {
		return nil
	}
	q := strings.ToLower(query)

	seen := make(map[string]bool)
	var out []SearchResult
	for _, k := range t.keywords {
		if !t.patterns[k].MatchString(q) {
			continue
		}
		for _, e := range t.entries[k] {
			if seen[e.URL] {
				continue
			}
			seen[e.URL] = true
			out = append(out, SearchResult{
				Title:          e.Title,
				URL:            e.URL,
				Snippet:        e.Snippet,
				Source:         hostOf(e.URL),
				RelevanceScore: clamp01(e.Score),
			})
		}
	}
	return out
}

// Keywords returns the matched keywords in table order.
func (t *CuratedTable) Keywords() []string {
	out := make([]string, len(t.keywords))
	copy(out, t.keywords)
	return out
}

// DefaultCuratedTable is the built-in table.
func DefaultCuratedTable() *CuratedTable {
	return NewCuratedTable(defaultCuratedKeywords, defaultCurated)
}

// order matters: more specific keywords first
var defaultCuratedKeywords = []string{
	"typescript", "javascript", "react", "node", "python", "golang", "rust",
	"machine learning", "data science", "sql", "docker", "kubernetes",
	"css", "html", "leadership", "communication", "public speaking",
}

var defaultCurated = map[string][]CuratedEntry{
	"typescript": {
		{"The TypeScript Handbook", "https://www.typescriptlang.org/docs/handbook/intro.html", "Official guide to the TypeScript type system.", 0.95},
		{"TypeScript Deep Dive", "https://basarat.gitbook.io/typescript/", "Free book covering TypeScript in depth.", 0.85},
	},
	"javascript": {
		{"MDN JavaScript Guide", "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Guide", "Comprehensive JavaScript guide from Mozilla.", 0.95},
		{"The Modern JavaScript Tutorial", "https://javascript.info/", "From the basics to advanced topics with simple explanations.", 0.9},
		{"freeCodeCamp JavaScript Algorithms and Data Structures", "https://www.freecodecamp.org/learn/javascript-algorithms-and-data-structures/", "Interactive JavaScript curriculum with exercises.", 0.85},
	},
	"react": {
		{"React Official Documentation", "https://react.dev/learn", "Learn React from the official docs with interactive examples.", 0.95},
		{"React Tutorial: Tic-Tac-Toe", "https://react.dev/learn/tutorial-tic-tac-toe", "Build a small game while learning React fundamentals.", 0.9},
		{"Full Stack Open", "https://fullstackopen.com/en/", "University of Helsinki course on modern web development with React.", 0.85},
	},
	"node": {
		{"Node.js Learn", "https://nodejs.org/en/learn", "Official introduction to Node.js.", 0.9},
		{"The Node.js Handbook", "https://www.freecodecamp.org/news/the-definitive-node-js-handbook-6912378afc6e/", "Beginner friendly Node.js handbook.", 0.8},
	},
	"python": {
		{"The Python Tutorial", "https://docs.python.org/3/tutorial/", "Official Python tutorial.", 0.95},
		{"Real Python Tutorials", "https://realpython.com/", "Practical Python tutorials and learning paths.", 0.9},
		{"Automate the Boring Stuff with Python", "https://automatetheboringstuff.com/", "Practical programming for total beginners.", 0.85},
	},
	"golang": {
		{"A Tour of Go", "https://go.dev/tour/", "Interactive introduction to Go.", 0.95},
		{"Effective Go", "https://go.dev/doc/effective_go", "Tips for writing clear, idiomatic Go code.", 0.9},
		{"Go by Example", "https://gobyexample.com/", "Hands-on introduction to Go using annotated example programs.", 0.85},
	},
	"rust": {
		{"The Rust Programming Language", "https://doc.rust-lang.org/book/", "The official Rust book.", 0.95},
		{"Rust by Example", "https://doc.rust-lang.org/rust-by-example/", "Collection of runnable Rust examples.", 0.9},
	},
	"machine learning": {
		{"Machine Learning Crash Course", "https://developers.google.com/machine-learning/crash-course", "Google's fast-paced introduction to machine learning.", 0.95},
		{"Machine Learning Specialization", "https://www.coursera.org/specializations/machine-learning-introduction", "Andrew Ng's foundational machine learning course.", 0.9},
		{"scikit-learn User Guide", "https://scikit-learn.org/stable/user_guide.html", "Practical machine learning in Python.", 0.85},
	},
	"data science": {
		{"Kaggle Learn", "https://www.kaggle.com/learn", "Short hands-on data science courses.", 0.9},
		{"Python Data Science Handbook", "https://jakevdp.github.io/PythonDataScienceHandbook/", "Essential tools for working with data.", 0.85},
	},
	"sql": {
		{"SQLBolt", "https://sqlbolt.com/", "Interactive lessons and exercises for learning SQL.", 0.9},
		{"PostgreSQL Tutorial", "https://www.postgresql.org/docs/current/tutorial.html", "Official PostgreSQL tutorial.", 0.85},
	},
	"docker": {
		{"Docker Getting Started", "https://docs.docker.com/get-started/", "Official Docker getting started guide.", 0.95},
	},
	"kubernetes": {
		{"Kubernetes Basics", "https://kubernetes.io/docs/tutorials/kubernetes-basics/", "Official interactive Kubernetes tutorial.", 0.95},
		{"Kubernetes Concepts", "https://kubernetes.io/docs/concepts/", "Core Kubernetes concepts explained.", 0.85},
	},
	"css": {
		{"MDN CSS Guide", "https://developer.mozilla.org/en-US/docs/Learn/CSS", "Learn to style HTML using CSS.", 0.95},
		{"CSS-Tricks Guides", "https://css-tricks.com/guides/", "In-depth guides to flexbox, grid and more.", 0.85},
	},
	"html": {
		{"MDN HTML Basics", "https://developer.mozilla.org/en-US/docs/Learn/HTML", "Structuring the web with HTML.", 0.95},
	},
	"leadership": {
		{"Harvard Business Review: Leadership", "https://hbr.org/topic/subject/leadership", "Articles and research on leadership.", 0.9},
		{"Coursera Leadership Courses", "https://www.coursera.org/courses?query=leadership", "Accredited courses on leadership skills.", 0.85},
		{"MindTools Leadership Skills", "https://www.mindtools.com/pages/main/newMN_LDR.htm", "Practical leadership techniques.", 0.8},
	},
	"communication": {
		{"Coursera Communication Courses", "https://www.coursera.org/courses?query=communication", "Courses on effective communication.", 0.85},
		{"MindTools Communication Skills", "https://www.mindtools.com/pages/main/newMN_CDV.htm", "Practical communication techniques.", 0.8},
	},
	"public speaking": {
		{"TED Masterclass", "https://masterclass.ted.com/", "Learn to develop and deliver idea-driven talks.", 0.85},
	},
}
