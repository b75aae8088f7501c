// Package icp generates and serves Ideal Customer Profiles.
package icp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/enriquecapellan/ai-qualifier-be/internal/analyst"
	"github.com/enriquecapellan/ai-qualifier-be/internal/apperr"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/store"
)

// Overrides lets callers pin the title and description of a generated ICP
// instead of using the model's. Empty or nil values defer to the model.
type Overrides struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Service generates one ICP per company from its stored profile.
type Service struct {
	store   store.Store
	analyst analyst.Analyst
}

// NewService creates an ICP Service.
func NewService(st store.Store, an analyst.Analyst) *Service {
	return &Service{store: st, analyst: an}
}

// Generate creates the ICP for a company. Exactly one ICP may exist per
// company; a second call returns a conflict.
func (s *Service) Generate(ctx context.Context, companyID string, overrides Overrides) (*model.ICP, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: load company")
	}
	if company == nil {
		return nil, apperr.NotFound(fmt.Sprintf("company not found: %s", companyID))
	}

	existing, err := s.store.GetICPByCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: check existing")
	}
	if existing != nil {
		return nil, apperr.Conflict("icp already exists for this company")
	}

	doc, err := s.analyst.GenerateICP(ctx, company.Name, company.Summary)
	if err != nil {
		return nil, err
	}

	if v := deref(overrides.Title); v != "" {
		doc.Title = v
	}
	if v := deref(overrides.Description); v != "" {
		doc.Description = v
	}

	icp, err := s.store.CreateICP(ctx, companyID, *doc)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "icp already exists for this company")
		}
		return nil, eris.Wrap(err, "icp: persist")
	}

	zap.L().Info("icp generated",
		zap.String("company_id", companyID),
		zap.String("icp_id", icp.ID),
		zap.Int("personas", len(icp.Personas)),
	)
	return icp, nil
}

// GetByCompany returns the company's ICP, or a not-found error.
func (s *Service) GetByCompany(ctx context.Context, companyID string) (*model.ICP, error) {
	icp, err := s.store.GetICPByCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: load")
	}
	if icp == nil {
		return nil, apperr.NotFound("icp not found")
	}
	return icp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
