// Package analyst turns scraped website content into structured business
// intelligence through Claude: company profiles, ICPs, and prospect
// qualification verdicts.
package analyst

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/enriquecapellan/ai-qualifier-be/internal/apperr"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/scrape"
	"github.com/enriquecapellan/ai-qualifier-be/pkg/anthropic"
)

// Profile is the best-effort company identity extracted from a homepage.
// Both fields stay nil when the model cannot determine them.
type Profile struct {
	Name    *string `json:"name"`
	Summary *string `json:"summary"`
}

// Qualification is the verdict for one prospect domain.
type Qualification struct {
	Score       float64                   `json:"qualificationScore"`
	Explanation string                    `json:"explanation"`
	Status      model.QualificationStatus `json:"status"`
	Enriched    *model.EnrichedData       `json:"enrichedData"`
}

// Analyst defines the text-generation capabilities consumed by the
// pipeline services.
type Analyst interface {
	// ExtractProfile derives a company name/summary from scraped fields.
	// Malformed model output degrades to an empty Profile; only transport
	// failures surface as errors.
	ExtractProfile(ctx context.Context, domain string, scraped *scrape.Fields) (Profile, error)

	// GenerateICP derives an Ideal Customer Profile from a company
	// description. Malformed output is fatal (InvalidResponse): the ICP is
	// itself the deliverable, there is nothing to degrade to.
	GenerateICP(ctx context.Context, name, summary *string) (*model.ICPDocument, error)

	// QualifyProspect scores a prospect domain against an ICP.
	QualifyProspect(ctx context.Context, domain string, scraped *scrape.Fields, companySummary string, icp *model.ICP) (*Qualification, error)
}

// ClaudeAnalyst implements Analyst on top of the anthropic client.
type ClaudeAnalyst struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a ClaudeAnalyst.
func New(client anthropic.Client, modelID string, maxTokens int64) *ClaudeAnalyst {
	return &ClaudeAnalyst{client: client, model: modelID, maxTokens: maxTokens}
}

func (a *ClaudeAnalyst) complete(ctx context.Context, prompt, phase string, temperature float64) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(a.model, phase)
	return resp.Text(), nil
}

// ExtractProfile implements Analyst.
func (a *ClaudeAnalyst) ExtractProfile(ctx context.Context, domain string, scraped *scrape.Fields) (Profile, error) {
	text, err := a.complete(ctx, profilePrompt(domain, scraped), "extract_profile", 0.3)
	if err != nil {
		return Profile{}, eris.Wrap(err, "analyst: extract profile")
	}

	var p Profile
	if err := json.Unmarshal([]byte(cleanJSON(text)), &p); err != nil {
		zap.L().Warn("analyst: profile response failed to parse, degrading to nulls",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return Profile{}, nil
	}
	return p, nil
}

// GenerateICP implements Analyst.
func (a *ClaudeAnalyst) GenerateICP(ctx context.Context, name, summary *string) (*model.ICPDocument, error) {
	text, err := a.complete(ctx, icpPrompt(name, summary), "generate_icp", 0.4)
	if err != nil {
		return nil, eris.Wrap(err, "analyst: generate icp")
	}

	var doc model.ICPDocument
	if err := json.Unmarshal([]byte(cleanJSON(text)), &doc); err != nil {
		return nil, apperr.InvalidResponse(err, "analyst: parse icp response")
	}
	return &doc, nil
}

// QualifyProspect implements Analyst.
func (a *ClaudeAnalyst) QualifyProspect(ctx context.Context, domain string, scraped *scrape.Fields, companySummary string, icp *model.ICP) (*Qualification, error) {
	text, err := a.complete(ctx, qualificationPrompt(domain, scraped, companySummary, icp), "qualify_prospect", 0.3)
	if err != nil {
		return nil, eris.Wrap(err, "analyst: qualify prospect")
	}

	var q Qualification
	if err := json.Unmarshal([]byte(cleanJSON(text)), &q); err != nil {
		return nil, eris.Wrapf(err, "analyst: parse qualification for %s", domain)
	}

	// The model occasionally invents status strings; re-derive from the
	// score so the row always satisfies the status constraint.
	if !q.Status.Valid() {
		q.Status = model.StatusForScore(q.Score)
	}
	return &q, nil
}
