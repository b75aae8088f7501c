package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// defaultMaxContentBytes caps the raw page slice kept as LLM context.
const defaultMaxContentBytes = 5000

// LocalScraper fetches HTML via net/http and extracts fields with compiled
// regexps. Free, no API calls. Falls through to Jina when blocked.
type LocalScraper struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxContent int
}

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) LocalOption {
	return func(l *LocalScraper) { l.client.Timeout = d }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) LocalOption {
	return func(l *LocalScraper) { l.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithMaxContentBytes sets the raw content budget.
func WithMaxContentBytes(n int) LocalOption {
	return func(l *LocalScraper) { l.maxContent = n }
}

// WithHTTPClient replaces the HTTP client (for testing).
func WithHTTPClient(hc *http.Client) LocalOption {
	return func(l *LocalScraper) { l.client = hc }
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper(opts ...LocalOption) *LocalScraper {
	l := &LocalScraper{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(2, 1),
		maxContent: defaultMaxContentBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches https://<domain> and extracts the prompt fields. A single
// attempt per call; the chain decides what happens on failure.
func (l *LocalScraper) Scrape(ctx context.Context, domain string) (*Fields, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "local_http: rate limit wait")
	}

	targetURL := domain
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		targetURL = "https://" + targetURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; QualifierBot/1.0)")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	if len(body) < 100 {
		return nil, eris.New("local_http: empty page")
	}

	return extractFields(string(body), l.maxContent), nil
}

var (
	titleRe     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Re        = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	paragraphRe = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	blockRe     = regexp.MustCompile(`(?is)<(?:section|div|p)[^>]*>([^<]{20,}?)</(?:section|div|p)>`)

	// Meta tags come with attributes in either order.
	metaDescRe  = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]*content=["']([^"']*)["']`)
	metaDescRe2 = regexp.MustCompile(`(?is)<meta[^>]+content=["']([^"']*)["'][^>]*name=["']description["']`)
	ogDescRe    = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:description["'][^>]*content=["']([^"']*)["']`)
	ogDescRe2   = regexp.MustCompile(`(?is)<meta[^>]+content=["']([^"']*)["'][^>]*property=["']og:description["']`)
)

// extractFields pulls the prompt fields out of raw HTML. Every field is
// best-effort; missing pieces stay empty.
func extractFields(html string, maxContent int) *Fields {
	f := &Fields{
		Title:        firstMatch(titleRe, html),
		Description:  firstMatch(metaDescRe, html),
		Heading:      stripTags(firstMatch(h1Re, html)),
		AboutSection: findAboutBlock(html),
		MainContent:  leadParagraphs(html, 3),
	}

	if f.Description == "" {
		f.Description = firstMatch(metaDescRe2, html)
	}
	// Fall back to the og:description when the primary is empty.
	if f.Description == "" {
		f.Description = firstMatch(ogDescRe, html)
	}
	if f.Description == "" {
		f.Description = firstMatch(ogDescRe2, html)
	}

	if len(html) > maxContent {
		f.RawContent = html[:maxContent]
	} else {
		f.RawContent = html
	}

	return f
}

func firstMatch(re *regexp.Regexp, html string) string {
	m := re.FindStringSubmatch(html)
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// findAboutBlock returns the first section/div/p block whose text mentions
// "About". Crude text-containment heuristic, good enough for prompt context.
func findAboutBlock(html string) string {
	for _, m := range blockRe.FindAllStringSubmatch(html, 50) {
		text := strings.TrimSpace(m[1])
		if strings.Contains(text, "About") || strings.Contains(text, "about us") {
			return collapseWhitespace(text)
		}
	}
	return ""
}

// leadParagraphs joins the first n <p> blocks of body content.
func leadParagraphs(html string, n int) string {
	var parts []string
	for _, m := range paragraphRe.FindAllStringSubmatch(html, n) {
		text := collapseWhitespace(stripTags(m[1]))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// stripTags removes HTML tags and decodes common entities.
func stripTags(html string) string {
	html = tagRe.ReplaceAllString(html, " ")
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	return strings.TrimSpace(r.Replace(html))
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
