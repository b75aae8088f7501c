// Package scrape fetches company homepages and extracts the fields the
// analyst feeds into its prompts. Scraping is strictly best-effort: the
// Chain facade swallows every failure and reports "unavailable" instead.
package scrape

import (
	"context"

	"go.uber.org/zap"
)

// Fields holds the best-effort content pulled from a company homepage.
type Fields struct {
	Title        string
	Description  string
	Heading      string
	AboutSection string
	MainContent  string
	// RawContent is a truncated slice of the page body, used only as extra
	// LLM context, never surfaced to users.
	RawContent string
}

// Scraper fetches a single domain and extracts its fields.
type Scraper interface {
	Scrape(ctx context.Context, domain string) (*Fields, error)
	Name() string
	Supports(domain string) bool
}

// Fetcher is the capability consumed by the pipeline: best-effort, never
// fails. A nil result means the domain is unavailable.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) *Fields
}

// Chain tries scrapers in priority order and degrades to nil when all fail.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain. Scrapers are tried in order; the first
// successful result wins.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// Fetch runs the chain for a single domain. Any fetch or parse error
// collapses to nil; the caller decides whether to proceed without data.
func (c *Chain) Fetch(ctx context.Context, domain string) *Fields {
	for _, s := range c.scrapers {
		if !s.Supports(domain) {
			continue
		}
		fields, err := s.Scrape(ctx, domain)
		if err == nil && fields != nil {
			return fields
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("domain", domain),
				zap.Error(err),
			)
		}
	}
	zap.L().Info("scrape: domain unavailable", zap.String("domain", domain))
	return nil
}
