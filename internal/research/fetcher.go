package research

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent looks like a desktop browser; many documentation sites reject bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// noise removed before extraction
const noiseSelector = "script, style, noscript, iframe, svg, nav, header, footer, aside, form, " +
	".advertisement, .ads, .ad, .ad-container, [class*='advert'], [id*='advert'], " +
	"[class*='sponsor'], .cookie-banner, .newsletter"

// contentSelectors are tried in order; body is the last resort.
var contentSelectors = []string{
	"article",
	"main",
	"[role='main']",
	".post-content",
	".entry-content",
	".article-content",
	".article-body",
	".markdown-body",
	".content",
	"#content",
	".documentation",
	".docs-content",
	"body",
}

// FetcherConfig 抓取配置
type FetcherConfig struct {
	Timeout           time.Duration
	MaxRedirects      int
	UserAgent         string
	MaxBodyBytes      int64
	MinContentLength  int
	MaxContentLength  int
	MaxHeadings       int
	SummaryInputChars int
}

// DefaultFetcherConfig 默认抓取配置
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:           10 * time.Second,
		MaxRedirects:      5,
		UserAgent:         DefaultUserAgent,
		MaxBodyBytes:      5 << 20,
		MinContentLength:  100,
		MaxContentLength:  3000,
		MaxHeadings:       10,
		SummaryInputChars: 2000,
	}
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	d := DefaultFetcherConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = d.MaxRedirects
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.MinContentLength <= 0 {
		c.MinContentLength = d.MinContentLength
	}
	if c.MaxContentLength <= 0 {
		c.MaxContentLength = d.MaxContentLength
	}
	if c.MaxHeadings <= 0 {
		c.MaxHeadings = d.MaxHeadings
	}
	if c.SummaryInputChars <= 0 {
		c.SummaryInputChars = d.SummaryInputChars
	}
	return c
}

// Summarizer produces a short abstractive summary of page text.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

// Fetcher downloads a page, extracts its main text and outline and summarizes it.
type Fetcher struct {
	client     *http.Client
	config     FetcherConfig
	summarizer Summarizer
	markdown   goldmark.Markdown
	logger     *logger.Logger
}

// NewFetcher creates a Fetcher. summarizer may be nil, in which case an
// extractive summary (leading sentences) is used.
func NewFetcher(cfg FetcherConfig, summarizer Summarizer, log *logger.Logger) *Fetcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.L()
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Fetcher{
		client:     client,
		config:     cfg,
		summarizer: summarizer,
		markdown:   goldmark.New(),
		logger:     log.Named("fetcher"),
	}
}

// FetchAndSummarize never returns an error: every failure is folded into a ScrapeDegraded outcome.
func (f *Fetcher) FetchAndSummarize(ctx context.Context, rawURL, title string) (outcome ScrapeOutcome) {
	log := f.logger.WithContext(ctx).With(zap.String("url", rawURL))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while scraping", zap.Any("panic", r))
			outcome = f.degraded(rawURL, title, fmt.Errorf("panic: %v", r))
		}
	}()

	page, err := f.extract(ctx, rawURL)
	if err != nil {
		log.Warn("scrape degraded", zap.Error(err))
		return f.degraded(rawURL, title, err)
	}

	if title == "" {
		title = page.title
	}
	if title == "" {
		title = rawURL
	}

	content := ScrapedContent{
		URL:       rawURL,
		Title:     title,
		Content:   truncateRunes(page.text, f.config.MaxContentLength),
		Headers:   page.headings,
		WordCount: len(strings.Fields(page.text)),
		ScrapedAt: time.Now().UTC(),
	}
	content.Summary = f.summarize(ctx, title, content.Content, log)

	log.Debug("page scraped",
		zap.Int("words", content.WordCount),
		zap.Int("headings", len(content.Headers)))

	return ScrapeOK{Content: content}
}

func (f *Fetcher) summarize(ctx context.Context, title, text string, log *logger.Logger) string {
	input := truncateRunes(text, f.config.SummaryInputChars)
	if f.summarizer != nil {
		summary, err := f.summarizer.Summarize(ctx, title, input)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
		log.Warn("summary generation failed, using leading sentences", zap.Error(err))
	}
	return leadingSentences(input, 2, 300)
}

// PlaceholderSummary is the summary of a page that could not be scraped.
func PlaceholderSummary(title string) string {
	return fmt.Sprintf("Content for %q could not be retrieved. Refer to the original resource for details.", title)
}

func (f *Fetcher) degraded(rawURL, title string, reason error) ScrapeOutcome {
	return degradedOutcome(rawURL, title, reason)
}

type extractedPage struct {
	title    string
	text     string
	headings []Heading
}

var (
	errInvalidURL     = errors.New("invalid url")
	errNoContent      = errors.New("no extractable content")
	errUnsupportedDoc = errors.New("unsupported content type")
)

func (f *Fetcher) extract(ctx context.Context, rawURL string) (*extractedPage, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/markdown;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	htmlBody, err := f.toHTML(resp.Header.Get("Content-Type"), resp.Request.URL.Path, body)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &extractedPage{title: normalizeSpace(doc.Find("title").First().Text())}

	doc.Find(noiseSelector).Remove()

	page.headings = make([]Heading, 0, f.config.MaxHeadings)
	doc.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeSpace(s.Text())
		if text == "" {
			return true
		}
		page.headings = append(page.headings, Heading{
			Level: int(goquery.NodeName(s)[1] - '0'),
			Text:  text,
		})
		return len(page.headings) < f.config.MaxHeadings
	})

	for _, sel := range contentSelectors {
		text := normalizeSpace(doc.Find(sel).First().Text())
		if utf8.RuneCountInString(text) > f.config.MinContentLength {
			page.text = text
			break
		}
	}
	if page.text == "" {
		return nil, errNoContent
	}

	if page.title == "" && len(page.headings) > 0 {
		page.title = page.headings[0].Text
	}
	return page, nil
}

// toHTML renders markdown documents and rejects binary content.
func (f *Fetcher) toHTML(contentType, urlPath string, body []byte) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	ext := strings.ToLower(path.Ext(urlPath))

	switch {
	case mediaType == "text/markdown" || mediaType == "text/x-markdown" ||
		((mediaType == "" || mediaType == "text/plain") && (ext == ".md" || ext == ".markdown")):
		var buf bytes.Buffer
		if err := f.markdown.Convert(body, &buf); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		return []byte("<html><body><article>" + buf.String() + "</article></body></html>"), nil
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return decodeHTML(body, contentType), nil
	case mediaType == "text/plain":
		var buf bytes.Buffer
		buf.WriteString("<html><body><pre>")
		buf.WriteString(html.EscapeString(string(body)))
		buf.WriteString("</pre></body></html>")
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %s", errUnsupportedDoc, mediaType)
}

// decodeHTML converts the page to UTF-8 using the header or <meta> charset.
func decodeHTML(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// leadingSentences returns up to n sentences of text, capped at maxLen runes.
func leadingSentences(text string, n, maxLen int) string {
	var b strings.Builder
	count := 0
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			count++
			if count >= n {
				break
			}
		}
	}
	return truncateRunes(strings.TrimSpace(b.String()), maxLen)
}
