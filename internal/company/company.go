// Package company orchestrates the enrichment pipeline that turns a bare
// domain into a company record with an ICP, publishing progress along the
// way.
package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/enriquecapellan/ai-qualifier-be/internal/analyst"
	"github.com/enriquecapellan/ai-qualifier-be/internal/apperr"
	"github.com/enriquecapellan/ai-qualifier-be/internal/icp"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/progress"
	"github.com/enriquecapellan/ai-qualifier-be/internal/scrape"
	"github.com/enriquecapellan/ai-qualifier-be/internal/store"
)

// Service runs the company enrichment pipeline.
type Service struct {
	store    store.Store
	fetcher  scrape.Fetcher
	analyst  analyst.Analyst
	icps     *icp.Service
	notifier progress.Notifier
}

// NewService creates a company Service.
func NewService(st store.Store, fetcher scrape.Fetcher, an analyst.Analyst, icps *icp.Service, notifier progress.Notifier) *Service {
	return &Service{store: st, fetcher: fetcher, analyst: an, icps: icps, notifier: notifier}
}

func (s *Service) publish(userID, companyID, step, message string, completed bool, errMsg string) {
	s.notifier.Publish(progress.Event{
		UserID:    userID,
		CompanyID: companyID,
		Step:      step,
		Message:   message,
		Progress:  progress.Percent[step],
		Completed: completed,
		Error:     errMsg,
	})
}

// Create enriches a domain into a company record owned by ownerID and
// generates its ICP. ICP generation is best-effort: its failure is
// reported as a progress event but the company is still created and
// returned. The domain is unique across all users.
func (s *Service) Create(ctx context.Context, ownerID, domain string) (*model.Company, error) {
	s.publish(ownerID, "", progress.StepValidating, "Validating domain...", false, "")

	existing, err := s.store.GetCompanyByDomain(ctx, domain)
	if err != nil {
		return nil, eris.Wrap(err, "company: check domain")
	}
	if existing != nil {
		return nil, apperr.Conflict("company with this domain already exists")
	}

	s.publish(ownerID, "", progress.StepScraping, "Scraping website...", false, "")
	scraped := s.fetcher.Fetch(ctx, domain)

	s.publish(ownerID, "", progress.StepAnalyzing, "Analyzing company information...", false, "")
	profile, err := s.analyst.ExtractProfile(ctx, domain, scraped)
	if err != nil {
		// The record is still worth creating without a profile; the
		// name and summary columns stay null.
		zap.L().Warn("company: profile extraction failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		profile = analyst.Profile{}
	}

	s.publish(ownerID, "", progress.StepCreating, "Creating company record...", false, "")
	created, err := s.store.CreateCompany(ctx, ownerID, domain, profile.Name, profile.Summary)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "company with this domain already exists")
		}
		return nil, eris.Wrap(err, "company: persist")
	}

	s.publish(ownerID, created.ID, progress.StepGeneratingICP, "Generating Ideal Customer Profile...", false, "")

	icpOK := true
	_, err = s.icps.Generate(ctx, created.ID, icp.Overrides{
		Title:       profile.Name,
		Description: profile.Summary,
	})
	if err != nil {
		icpOK = false
		zap.L().Error("company: icp generation failed",
			zap.String("company_id", created.ID),
			zap.Error(err),
		)
		s.publish(ownerID, created.ID, progress.StepError, "Failed to generate ICP", false, err.Error())
	}

	message := "Company and ICP created successfully!"
	if !icpOK {
		message = "Company created. ICP generation failed."
	}
	s.publish(ownerID, created.ID, progress.StepComplete, message, true, "")

	zap.L().Info("company created",
		zap.String("company_id", created.ID),
		zap.String("domain", domain),
		zap.Bool("icp_generated", icpOK),
	)
	return created, nil
}

// Get returns a company by ID.
func (s *Service) Get(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "company: load")
	}
	if c == nil {
		return nil, apperr.NotFound(fmt.Sprintf("company not found: %s", id))
	}
	return c, nil
}

// ListByOwner returns all companies owned by ownerID, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]model.Company, error) {
	companies, err := s.store.ListCompaniesByOwner(ctx, ownerID)
	if err != nil {
		return nil, eris.Wrap(err, "company: list by owner")
	}
	return companies, nil
}
