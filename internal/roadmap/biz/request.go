package biz

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lk2023060901/microlearn-backend/internal/research"
)

const (
	MaxTopicLength  = 200
	MinDailyMinutes = 5
	MaxDailyMinutes = 480
)

var timeframePattern = regexp.MustCompile(`^[1-9][0-9]*-(day|week|month)s?$`)

// GenerateRoadmapRequest 生成路线图请求
type GenerateRoadmapRequest struct {
	Topic            string
	Level            string
	Timeframe        string
	DailyTimeMinutes int
	Focus            string
	// nil 表示默认包含项目
	IncludeProjects *bool
}

// Validate trims the topic, applies defaults and returns the pipeline options.
func (r *GenerateRoadmapRequest) Validate() (string, research.Options, error) {
	topic, err := validateTopic(r.Topic)
	if err != nil {
		return "", research.Options{}, err
	}

	opts := research.Options{
		Level:            strings.ToLower(strings.TrimSpace(r.Level)),
		Timeframe:        strings.ToLower(strings.TrimSpace(r.Timeframe)),
		DailyTimeMinutes: r.DailyTimeMinutes,
		Focus:            strings.ToLower(strings.TrimSpace(r.Focus)),
		IncludeProjects:  r.IncludeProjects == nil || *r.IncludeProjects,
	}
	if opts.DailyTimeMinutes < 0 {
		return "", opts, ErrInvalidDailyTime
	}
	opts = opts.WithDefaults()

	switch {
	case !oneOf(research.Levels, opts.Level):
		return "", opts, ErrInvalidLevel
	case !timeframePattern.MatchString(opts.Timeframe):
		return "", opts, ErrInvalidTimeframe
	case opts.DailyTimeMinutes < MinDailyMinutes || opts.DailyTimeMinutes > MaxDailyMinutes:
		return "", opts, ErrInvalidDailyTime
	case !oneOf(research.Focuses, opts.Focus):
		return "", opts, ErrInvalidFocus
	}
	return topic, opts, nil
}

// SearchRequest 搜索请求
type SearchRequest struct {
	Query string
	Limit int
}

func (r *SearchRequest) Validate() (string, int, error) {
	query := strings.TrimSpace(r.Query)
	if query == "" {
		return "", 0, ErrQueryRequired
	}
	if utf8.RuneCountInString(query) > MaxTopicLength {
		return "", 0, ErrTopicTooLong
	}
	limit := r.Limit
	if limit == 0 {
		limit = research.DefaultSearchLimit
	}
	if limit < 1 || limit > research.MaxSearchLimit {
		return "", 0, ErrInvalidLimit
	}
	return query, limit, nil
}

// ScrapeRequest 抓取请求。格式错误的 URL 不在此拒绝，由抓取器降级处理
type ScrapeRequest struct {
	URL   string
	Title string
}

func (r *ScrapeRequest) Validate() (string, string, error) {
	u := strings.TrimSpace(r.URL)
	if u == "" {
		return "", "", ErrURLRequired
	}
	return u, strings.TrimSpace(r.Title), nil
}

// AnalyzeRequest 主题分析请求
type AnalyzeRequest struct {
	Topic string
	Depth string
}

func (r *AnalyzeRequest) Validate() (string, string, error) {
	topic, err := validateTopic(r.Topic)
	if err != nil {
		return "", "", err
	}
	depth := strings.ToLower(strings.TrimSpace(r.Depth))
	if depth == "" {
		depth = research.DepthDetailed
	}
	if !oneOf(research.Depths, depth) {
		return "", "", ErrInvalidDepth
	}
	return topic, depth, nil
}

// CompareRequest 资源对比请求
type CompareRequest struct {
	Topic string
	URLs  []string
}

func (r *CompareRequest) Validate() (string, []string, error) {
	topic, err := validateTopic(r.Topic)
	if err != nil {
		return "", nil, err
	}
	if len(r.URLs) < research.MinCompareURLs || len(r.URLs) > research.MaxCompareURLs {
		return "", nil, ErrCompareURLCount
	}

	urls := make([]string, len(r.URLs))
	for i, raw := range r.URLs {
		raw = strings.TrimSpace(raw)
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
		}
		urls[i] = raw
	}
	return topic, urls, nil
}

func validateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrTopicRequired
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return "", ErrTopicTooLong
	}
	return topic, nil
}

func oneOf(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
