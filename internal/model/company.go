// Package model defines the core domain types persisted by the store and
// exchanged between services.
package model

import "time"

// Company is an enriched company record, owned by exactly one user.
// Name and Summary stay nil when profile extraction failed; the record is
// still valid and the pipeline continues without them.
type Company struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Domain    string    `json:"domain"`
	Name      *string   `json:"name"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is an authenticated account that owns companies.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
