package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title> Acme Anvils | Heavy Industry </title>
<meta name="description" content="Acme builds the world's finest anvils.">
<meta property="og:description" content="og fallback text">
</head>
<body>
<nav>Home | Products</nav>
<h1>Anvils <span>for professionals</span></h1>
<div class="about">About Acme: founded in 1952, we forge industrial anvils for global manufacturers.</div>
<main>
<p>We supply anvils to 40 countries.</p>
<p>Our products are certified to ISO 9001.</p>
<p>Third paragraph of content.</p>
<p>Fourth paragraph should be ignored.</p>
</main>
</body>
</html>`

func serveHTML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLocalScraper_ExtractsFields(t *testing.T) {
	srv := serveHTML(t, http.StatusOK, samplePage)

	l := NewLocalScraper(WithRateLimit(1000))
	fields, err := l.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme Anvils | Heavy Industry", fields.Title)
	assert.Equal(t, "Acme builds the world's finest anvils.", fields.Description)
	assert.Equal(t, "Anvils for professionals", fields.Heading)
	assert.Contains(t, fields.AboutSection, "founded in 1952")
	assert.Contains(t, fields.MainContent, "40 countries")
	assert.Contains(t, fields.MainContent, "ISO 9001")
	assert.NotContains(t, fields.MainContent, "Fourth paragraph")
	assert.NotEmpty(t, fields.RawContent)
}

func TestLocalScraper_OgDescriptionFallback(t *testing.T) {
	page := strings.Replace(samplePage,
		`<meta name="description" content="Acme builds the world's finest anvils.">`, "", 1)
	srv := serveHTML(t, http.StatusOK, page)

	l := NewLocalScraper(WithRateLimit(1000))
	fields, err := l.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "og fallback text", fields.Description)
}

func TestLocalScraper_TruncatesRawContent(t *testing.T) {
	page := samplePage + strings.Repeat("x", 20_000)
	srv := serveHTML(t, http.StatusOK, page)

	l := NewLocalScraper(WithRateLimit(1000), WithMaxContentBytes(1000))
	fields, err := l.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Len(t, fields.RawContent, 1000)
}

func TestLocalScraper_ErrorStatus(t *testing.T) {
	srv := serveHTML(t, http.StatusNotFound, strings.Repeat("not found ", 20))

	l := NewLocalScraper(WithRateLimit(1000))
	_, err := l.Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLocalScraper_EmptyPage(t *testing.T) {
	srv := serveHTML(t, http.StatusOK, "<html></html>")

	l := NewLocalScraper(WithRateLimit(1000))
	_, err := l.Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty page")
}

func TestLocalScraper_UnreachableHost(t *testing.T) {
	l := NewLocalScraper(WithRateLimit(1000))
	_, err := l.Scrape(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
}

func TestExtractFields_MissingEverything(t *testing.T) {
	f := extractFields("<html><body>bare</body></html>", 5000)
	assert.Empty(t, f.Title)
	assert.Empty(t, f.Description)
	assert.Empty(t, f.Heading)
	assert.Empty(t, f.AboutSection)
	assert.Empty(t, f.MainContent)
	assert.NotEmpty(t, f.RawContent)
}

func TestStripTags_DecodesEntities(t *testing.T) {
	assert.Equal(t, `Smith & Sons "Anvils"`, stripTags(`<b>Smith &amp; Sons &quot;Anvils&quot;</b>`))
}
