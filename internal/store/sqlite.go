package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for
// local development and tests; postgres is the production driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL REFERENCES users(id),
	domain     TEXT NOT NULL UNIQUE,
	name       TEXT,
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_owner_id ON companies(owner_id);

CREATE TABLE IF NOT EXISTS icps (
	id                 TEXT PRIMARY KEY,
	company_id         TEXT NOT NULL UNIQUE REFERENCES companies(id),
	title              TEXT,
	description        TEXT,
	personas           TEXT,
	company_size_range TEXT,
	revenue_range      TEXT,
	industries         TEXT,
	regions            TEXT,
	funding_stages     TEXT,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prospects (
	id                  TEXT PRIMARY KEY,
	company_id          TEXT NOT NULL REFERENCES companies(id),
	domain              TEXT NOT NULL,
	enriched_data       TEXT,
	qualification_score REAL,
	explanation         TEXT,
	status              TEXT NOT NULL DEFAULT 'pending',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (company_id, domain)
);

CREATE INDEX IF NOT EXISTS idx_prospects_company_id ON prospects(company_id);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash, role string) (*model.User, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, email, passwordHash, role, now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: user %s", email)
		}
		return nil, eris.Wrap(err, "sqlite: insert user")
	}

	return &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE email = ?`,
		email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get user by email")
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get user %s", id)
	}
	return u, nil
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, ownerID, domain string, name, summary *string) (*model.Company, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, owner_id, domain, name, summary, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, domain, name, summary, now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: company %s", domain)
		}
		return nil, eris.Wrap(err, "sqlite: insert company")
	}

	return &model.Company{
		ID:        id,
		OwnerID:   ownerID,
		Domain:    domain,
		Name:      name,
		Summary:   summary,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.OwnerID, &c.Domain, &c.Name, &c.Summary, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return &c, nil
}

func (s *SQLiteStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE domain = ?`,
		domain,
	).Scan(&c.ID, &c.OwnerID, &c.Domain, &c.Name, &c.Summary, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get company by domain %s", domain)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCompaniesByOwner(ctx context.Context, ownerID string) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Domain, &c.Name, &c.Summary, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) CreateICP(ctx context.Context, companyID string, doc model.ICPDocument) (*model.ICP, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	personasJSON, err := json.Marshal(doc.Personas)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal personas")
	}
	industriesJSON, err := json.Marshal(doc.Industries)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal industries")
	}
	regionsJSON, err := json.Marshal(doc.Regions)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal regions")
	}
	stagesJSON, err := json.Marshal(doc.FundingStages)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal funding stages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icps (id, company_id, title, description, personas, company_size_range, revenue_range, industries, regions, funding_stages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, companyID, nullIfEmpty(doc.Title), nullIfEmpty(doc.Description), string(personasJSON),
		nullIfEmpty(doc.CompanySizeRange), nullIfEmpty(doc.RevenueRange),
		string(industriesJSON), string(regionsJSON), string(stagesJSON), now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: icp for company %s", companyID)
		}
		return nil, eris.Wrap(err, "sqlite: insert icp")
	}

	return &model.ICP{
		ID:               id,
		CompanyID:        companyID,
		Title:            nullIfEmpty(doc.Title),
		Description:      nullIfEmpty(doc.Description),
		Personas:         doc.Personas,
		CompanySizeRange: nullIfEmpty(doc.CompanySizeRange),
		RevenueRange:     nullIfEmpty(doc.RevenueRange),
		Industries:       doc.Industries,
		Regions:          doc.Regions,
		FundingStages:    doc.FundingStages,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *SQLiteStore) GetICPByCompany(ctx context.Context, companyID string) (*model.ICP, error) {
	var icp model.ICP
	var personasJSON, industriesJSON, regionsJSON, stagesJSON *string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, title, description, personas, company_size_range, revenue_range, industries, regions, funding_stages, created_at, updated_at
		 FROM icps WHERE company_id = ?`,
		companyID,
	).Scan(&icp.ID, &icp.CompanyID, &icp.Title, &icp.Description, &personasJSON,
		&icp.CompanySizeRange, &icp.RevenueRange, &industriesJSON, &regionsJSON, &stagesJSON,
		&icp.CreatedAt, &icp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get icp for company %s", companyID)
	}

	if err := unmarshalICPLists(&icp,
		jsonBytes(personasJSON), jsonBytes(industriesJSON), jsonBytes(regionsJSON), jsonBytes(stagesJSON)); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal icp")
	}
	return &icp, nil
}

func jsonBytes(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}

func (s *SQLiteStore) CreateProspect(ctx context.Context, p model.Prospect) (*model.Prospect, error) {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	var enriched *string
	if p.EnrichedData != nil {
		b, err := json.Marshal(p.EnrichedData)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal enriched data")
		}
		str := string(b)
		enriched = &str
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prospects (id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Domain, enriched, p.QualificationScore, p.Explanation, string(p.Status), now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: prospect %s for company %s", p.Domain, p.CompanyID)
		}
		return nil, eris.Wrap(err, "sqlite: insert prospect")
	}
	return &p, nil
}

func scanSQLiteProspect(scan func(dest ...any) error) (*model.Prospect, error) {
	var p model.Prospect
	var enriched *string
	err := scan(&p.ID, &p.CompanyID, &p.Domain, &enriched,
		&p.QualificationScore, &p.Explanation, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if enriched != nil {
		p.EnrichedData = &model.EnrichedData{}
		if err := json.Unmarshal([]byte(*enriched), p.EnrichedData); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (s *SQLiteStore) GetProspect(ctx context.Context, companyID, domain string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at
		 FROM prospects WHERE company_id = ? AND domain = ?`,
		companyID, domain,
	)
	p, err := scanSQLiteProspect(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get prospect %s", domain)
	}
	return p, nil
}

func (s *SQLiteStore) ListProspects(ctx context.Context, companyID string) ([]model.Prospect, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at
		 FROM prospects WHERE company_id = ? ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prospects")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanSQLiteProspect(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prospect")
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "sqlite: list prospects iterate")
}
