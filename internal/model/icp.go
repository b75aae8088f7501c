package model

import "time"

// Persona describes one decision-maker profile inside an ICP.
type Persona struct {
	Role             string   `json:"role"`
	Title            string   `json:"title"`
	Responsibilities []string `json:"responsibilities"`
	PainPoints       []string `json:"painPoints"`
	Goals            []string `json:"goals"`
}

// ICPDocument is the structured profile produced by the LLM, before it is
// persisted. Overrides from the caller are merged on top of it.
type ICPDocument struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Personas         []Persona `json:"personas"`
	CompanySizeRange string    `json:"companySizeRange"`
	RevenueRange     string    `json:"revenueRange"`
	Industries       []string  `json:"industries"`
	Regions          []string  `json:"regions"`
	FundingStages    []string  `json:"fundingStages"`
}

// ICP is a persisted Ideal Customer Profile. At most one exists per
// company; the store enforces this with a unique index on company_id.
type ICP struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"companyId"`
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	Personas         []Persona `json:"personas"`
	CompanySizeRange *string   `json:"companySizeRange"`
	RevenueRange     *string   `json:"revenueRange"`
	Industries       []string  `json:"industries"`
	Regions          []string  `json:"regions"`
	FundingStages    []string  `json:"fundingStages"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
