package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/enriquecapellan/ai-qualifier-be/internal/analyst"
	"github.com/enriquecapellan/ai-qualifier-be/internal/auth"
	"github.com/enriquecapellan/ai-qualifier-be/internal/company"
	"github.com/enriquecapellan/ai-qualifier-be/internal/icp"
	"github.com/enriquecapellan/ai-qualifier-be/internal/progress"
	"github.com/enriquecapellan/ai-qualifier-be/internal/prospect"
	"github.com/enriquecapellan/ai-qualifier-be/internal/scrape"
	"github.com/enriquecapellan/ai-qualifier-be/internal/store"
	"github.com/enriquecapellan/ai-qualifier-be/pkg/anthropic"
	"github.com/enriquecapellan/ai-qualifier-be/pkg/jina"
)

// app bundles the wired services behind one lifecycle.
type app struct {
	store     store.Store
	auth      *auth.Service
	companies *company.Service
	icps      *icp.Service
	prospects *prospect.Service
	hub       *progress.Hub
}

func (a *app) Close() error {
	return a.store.Close()
}

// openStore opens the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// newFetcher builds the scraper chain: direct fetch first, Jina Reader as
// fallback when a key is configured.
func newFetcher() scrape.Fetcher {
	scrapers := []scrape.Scraper{
		scrape.NewLocalScraper(
			scrape.WithTimeout(time.Duration(cfg.Scrape.TimeoutSecs)*time.Second),
			scrape.WithRateLimit(cfg.Scrape.RequestsPerSec),
			scrape.WithMaxContentBytes(cfg.Scrape.MaxContentBytes),
		),
	}
	if cfg.Jina.Key != "" {
		scrapers = append(scrapers, scrape.NewJinaAdapter(
			jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL)),
		))
	}
	return scrape.NewChain(scrapers...)
}

// newApp wires the full service graph from config.
func newApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	an := analyst.New(
		anthropic.NewClient(cfg.Anthropic.Key),
		cfg.Anthropic.Model,
		cfg.Anthropic.MaxTokens,
	)
	fetcher := newFetcher()
	hub := progress.NewHub()

	icps := icp.NewService(st, an)
	return &app{
		store: st,
		auth: auth.NewService(st, cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.AccessTTLMins)*time.Minute,
			time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
		),
		companies: company.NewService(st, fetcher, an, icps, hub),
		icps:      icps,
		prospects: prospect.NewService(st, fetcher, an, cfg.Qualify.Concurrency),
		hub:       hub,
	}, nil
}
