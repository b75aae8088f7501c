// Package prospect qualifies batches of prospect domains against a
// company's ICP.
package prospect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/enriquecapellan/ai-qualifier-be/internal/analyst"
	"github.com/enriquecapellan/ai-qualifier-be/internal/apperr"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/scrape"
	"github.com/enriquecapellan/ai-qualifier-be/internal/store"
)

// Service qualifies prospect domains and serves stored results.
type Service struct {
	store       store.Store
	fetcher     scrape.Fetcher
	analyst     analyst.Analyst
	concurrency int
}

// NewService creates a prospect Service. concurrency bounds how many
// domains are analyzed in parallel within one batch; values below 1 mean
// sequential.
func NewService(st store.Store, fetcher scrape.Fetcher, an analyst.Analyst, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{store: st, fetcher: fetcher, analyst: an, concurrency: concurrency}
}

// parseDomains splits a comma-separated domain list, trimming whitespace
// and dropping empties.
func parseDomains(csv string) []string {
	var out []string
	for _, d := range strings.Split(csv, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// QualifyDomains analyzes each domain in the comma-separated list against
// the company's ICP and persists one prospect row per domain. Domains
// already qualified for this company are returned from storage without
// re-analysis. A domain whose analysis fails still yields a row: status
// pending, no score, the failure reason in the explanation. Results keep
// the input order.
func (s *Service) QualifyDomains(ctx context.Context, companyID, domainsCSV string) (*model.QualificationResult, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "prospect: load company")
	}
	if company == nil {
		return nil, apperr.NotFound(fmt.Sprintf("company not found: %s", companyID))
	}

	icp, err := s.store.GetICPByCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "prospect: load icp")
	}
	if icp == nil {
		return nil, apperr.NotFound("icp not found for this company, generate an icp first")
	}

	domains := parseDomains(domainsCSV)
	if len(domains) == 0 {
		return nil, apperr.BadRequest("no valid domains provided")
	}

	summary := ""
	if company.Summary != nil {
		summary = *company.Summary
	}

	results := make([]model.Prospect, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, domain := range domains {
		g.Go(func() error {
			p, err := s.qualifyOne(gctx, companyID, domain, summary, icp)
			if err != nil {
				return err
			}
			results[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &model.QualificationResult{
		Prospects: results,
		Summary:   model.Summarize(results),
	}
	zap.L().Info("qualification batch complete",
		zap.String("company_id", companyID),
		zap.Int("total", result.Summary.Total),
		zap.Int("qualified", result.Summary.Qualified),
		zap.Int("rejected", result.Summary.Rejected),
		zap.Int("pending", result.Summary.Pending),
		zap.Float64("average_score", result.Summary.AverageScore),
	)
	return result, nil
}

// qualifyOne resolves a single domain to a prospect row, reusing a stored
// row when one exists.
func (s *Service) qualifyOne(ctx context.Context, companyID, domain, companySummary string, icp *model.ICP) (*model.Prospect, error) {
	existing, err := s.store.GetProspect(ctx, companyID, domain)
	if err != nil {
		return nil, eris.Wrapf(err, "prospect: check existing %s", domain)
	}
	if existing != nil {
		return existing, nil
	}

	row := s.analyze(ctx, companyID, domain, companySummary, icp)

	created, err := s.store.CreateProspect(ctx, row)
	if err != nil {
		// A concurrent batch (or a duplicate within this one) already
		// inserted this domain; the stored row wins.
		if errors.Is(err, store.ErrDuplicate) {
			stored, getErr := s.store.GetProspect(ctx, companyID, domain)
			if getErr != nil {
				return nil, eris.Wrapf(getErr, "prospect: reload %s", domain)
			}
			if stored != nil {
				return stored, nil
			}
		}
		return nil, eris.Wrapf(err, "prospect: persist %s", domain)
	}
	return created, nil
}

// analyze scrapes and scores one domain. It never fails: analysis errors
// become a pending row carrying the failure reason.
func (s *Service) analyze(ctx context.Context, companyID, domain, companySummary string, icp *model.ICP) model.Prospect {
	scraped := s.fetcher.Fetch(ctx, domain)

	q, err := s.analyst.QualifyProspect(ctx, domain, scraped, companySummary, icp)
	if err != nil {
		zap.L().Warn("prospect: analysis failed",
			zap.String("company_id", companyID),
			zap.String("domain", domain),
			zap.Error(err),
		)
		explanation := "Analysis failed: " + err.Error()
		return model.Prospect{
			CompanyID:   companyID,
			Domain:      domain,
			Explanation: &explanation,
			Status:      model.StatusPending,
		}
	}

	return model.Prospect{
		CompanyID:          companyID,
		Domain:             domain,
		EnrichedData:       q.Enriched,
		QualificationScore: &q.Score,
		Explanation:        &q.Explanation,
		Status:             q.Status,
	}
}

// ListByCompany returns all stored prospects for a company.
func (s *Service) ListByCompany(ctx context.Context, companyID string) ([]model.Prospect, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "prospect: load company")
	}
	if company == nil {
		return nil, apperr.NotFound(fmt.Sprintf("company not found: %s", companyID))
	}

	prospects, err := s.store.ListProspects(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "prospect: list")
	}
	return prospects, nil
}
