package research

import (
	"errors"
	"sort"
	"strings"
)

// RankingConfig holds the quality score heuristics. Boosts are additive
// and the total is clamped to [0, 1].
type RankingConfig struct {
	WordCountThreshold     int      `mapstructure:"word_count_threshold"`
	WordCountBoost         float64  `mapstructure:"word_count_boost"`
	HeadingThreshold       int      `mapstructure:"heading_threshold"`
	HeadingBoost           float64  `mapstructure:"heading_boost"`
	SummaryLengthThreshold int      `mapstructure:"summary_length_threshold"`
	SummaryBoost           float64  `mapstructure:"summary_boost"`
	TrustedDomainBoost     float64  `mapstructure:"trusted_domain_boost"`
	TrustedDomains         []string `mapstructure:"trusted_domains"`
}

// DefaultRankingConfig 默认排序权重
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		WordCountThreshold:     500,
		WordCountBoost:         0.1,
		HeadingThreshold:       3,
		HeadingBoost:           0.1,
		SummaryLengthThreshold: 100,
		SummaryBoost:           0.1,
		TrustedDomainBoost:     0.2,
		TrustedDomains:         DefaultTrustedDomains(),
	}
}

// DefaultTrustedDomains are documentation sites, course platforms and reference sites.
func DefaultTrustedDomains() []string {
	return []string{
		"developer.mozilla.org", "docs.python.org", "react.dev", "go.dev", "doc.rust-lang.org",
		"typescriptlang.org", "nodejs.org", "kubernetes.io", "docs.docker.com", "postgresql.org",
		"learn.microsoft.com", "developers.google.com", "docs.oracle.com",
		"coursera.org", "edx.org", "udemy.com", "khanacademy.org", "freecodecamp.org",
		"codecademy.com", "udacity.com", "ocw.mit.edu", "kaggle.com",
		"stackoverflow.com", "wikipedia.org", "github.com", "realpython.com",
		"javascript.info", "w3schools.com", "geeksforgeeks.org", "hbr.org",
	}
}

// Validate rejects negative weights, which would break score monotonicity.
func (c RankingConfig) Validate() error {
	for _, w := range []float64{c.WordCountBoost, c.HeadingBoost, c.SummaryBoost, c.TrustedDomainBoost} {
		if w < 0 {
			return errors.New("ranking boosts must not be negative")
		}
	}
	return nil
}

// Ranker scores search results by relevance, content richness and domain trust.
type Ranker struct {
	config  RankingConfig
	trusted []string
}

// NewRanker creates a Ranker.
func NewRanker(cfg RankingConfig) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	trusted := make([]string, 0, len(cfg.TrustedDomains))
	for _, d := range cfg.TrustedDomains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			trusted = append(trusted, d)
		}
	}
	return &Ranker{config: cfg, trusted: trusted}, nil
}

// Rank is pure and deterministic. Only scraped entries without an error
// contribute content boosts. Ties keep input order.
func (r *Ranker) Rank(results []SearchResult, scraped []ScrapedContent) []RankedResource {
	byURL := make(map[string]*ScrapedContent, len(scraped))
	for i := range scraped {
		if scraped[i].Error != "" {
			continue
		}
		if _, dup := byURL[scraped[i].URL]; !dup {
			byURL[scraped[i].URL] = &scraped[i]
		}
	}

	ranked := make([]RankedResource, len(results))
	for i, res := range results {
		sc := byURL[res.URL]
		ranked[i] = RankedResource{
			SearchResult:   res,
			ScrapedContent: sc,
			QualityScore:   r.Score(res, sc),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QualityScore > ranked[j].QualityScore
	})
	return ranked
}

// Score computes the quality score of one candidate.
func (r *Ranker) Score(res SearchResult, sc *ScrapedContent) float64 {
	score := clamp01(res.RelevanceScore)
	if sc != nil {
		if sc.WordCount > r.config.WordCountThreshold {
			score += r.config.WordCountBoost
		}
		if len(sc.Headers) >= r.config.HeadingThreshold {
			score += r.config.HeadingBoost
		}
		if len([]rune(sc.Summary)) > r.config.SummaryLengthThreshold {
			score += r.config.SummaryBoost
		}
	}
	if r.IsTrusted(res.URL) {
		score += r.config.TrustedDomainBoost
	}
	return clamp01(score)
}

// IsTrusted reports whether the URL's host is, or is a subdomain of, a trusted domain.
func (r *Ranker) IsTrusted(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, d := range r.trusted {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
