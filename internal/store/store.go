// Package store persists users, companies, ICPs and prospects behind a
// driver-agnostic interface with postgres and sqlite implementations.
package store

import (
	"context"
	"errors"

	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
)

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (users.email, companies.domain, icps.company_id, or
// prospects (company_id, domain)). Callers translate it into a conflict
// or a reuse path.
var ErrDuplicate = errors.New("duplicate record")

// Store defines the persistence interface for the qualification pipeline.
// Get* methods return (nil, nil) when no row matches; callers decide
// whether a miss is an error.
type Store interface {
	// Users
	CreateUser(ctx context.Context, email, passwordHash, role string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// Companies
	CreateCompany(ctx context.Context, ownerID, domain string, name, summary *string) (*model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error)
	ListCompaniesByOwner(ctx context.Context, ownerID string) ([]model.Company, error)

	// ICPs
	CreateICP(ctx context.Context, companyID string, doc model.ICPDocument) (*model.ICP, error)
	GetICPByCompany(ctx context.Context, companyID string) (*model.ICP, error)

	// Prospects
	CreateProspect(ctx context.Context, p model.Prospect) (*model.Prospect, error)
	GetProspect(ctx context.Context, companyID, domain string) (*model.Prospect, error)
	ListProspects(ctx context.Context, companyID string) ([]model.Prospect, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
