package model

import (
	"math"
	"time"
)

// QualificationStatus is the lifecycle state of a prospect.
type QualificationStatus string

const (
	StatusPending   QualificationStatus = "pending"
	StatusQualified QualificationStatus = "qualified"
	StatusRejected  QualificationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s QualificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusQualified, StatusRejected:
		return true
	}
	return false
}

// StatusForScore derives a status from a qualification score using the
// thresholds stated in the analysis prompt: >=70 qualified, <50 rejected,
// 50-69 pending.
func StatusForScore(score float64) QualificationStatus {
	switch {
	case score >= 70:
		return StatusQualified
	case score < 50:
		return StatusRejected
	default:
		return StatusPending
	}
}

// EnrichedData holds the best-effort facts the analysis extracted about a
// prospect. Stored as a JSON document alongside the score.
type EnrichedData struct {
	CompanyName   string   `json:"companyName,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	CompanySize   string   `json:"companySize,omitempty"`
	Revenue       string   `json:"revenue,omitempty"`
	Location      string   `json:"location,omitempty"`
	BusinessModel string   `json:"businessModel,omitempty"`
	KeyFeatures   []string `json:"keyFeatures,omitempty"`
	PainPoints    []string `json:"painPoints,omitempty"`
}

// Prospect is a candidate customer domain qualified against a company's
// ICP. Score and EnrichedData stay nil when analysis failed; such rows keep
// status pending with the failure reason in Explanation.
type Prospect struct {
	ID                 string              `json:"id"`
	CompanyID          string              `json:"companyId"`
	Domain             string              `json:"domain"`
	EnrichedData       *EnrichedData       `json:"enrichedData"`
	QualificationScore *float64            `json:"qualificationScore"`
	Explanation        *string             `json:"explanation"`
	Status             QualificationStatus `json:"status"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// QualificationSummary aggregates one qualification batch.
type QualificationSummary struct {
	Total        int     `json:"total"`
	Qualified    int     `json:"qualified"`
	Rejected     int     `json:"rejected"`
	Pending      int     `json:"pending"`
	AverageScore float64 `json:"averageScore"`
}

// QualificationResult is the full response of a qualification batch.
type QualificationResult struct {
	Prospects []Prospect           `json:"prospects"`
	Summary   QualificationSummary `json:"summary"`
}

// Summarize computes the batch summary from result rows. AverageScore is
// the mean over rows that carry a score, rounded to two decimals, 0 when no
// row is scored.
func Summarize(prospects []Prospect) QualificationSummary {
	s := QualificationSummary{Total: len(prospects)}
	var sum float64
	var scored int
	for _, p := range prospects {
		switch p.Status {
		case StatusQualified:
			s.Qualified++
		case StatusRejected:
			s.Rejected++
		default:
			s.Pending++
		}
		if p.QualificationScore != nil {
			sum += *p.QualificationScore
			scored++
		}
	}
	if scored > 0 {
		s.AverageScore = math.Round(sum/float64(scored)*100) / 100
	}
	return s
}
