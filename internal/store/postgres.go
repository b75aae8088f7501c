package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/enriquecapellan/ai-qualifier-be/internal/db"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"get_user_by_email":     `SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE email = $1`,
	"get_company":           `SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE id = $1`,
	"get_company_by_domain": `SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE domain = $1`,
	"get_prospect":          `SELECT id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at FROM prospects WHERE company_id = $1 AND domain = $2`,
	"list_prospects":        `SELECT id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at FROM prospects WHERE company_id = $1 ORDER BY created_at DESC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL REFERENCES users(id),
	domain     TEXT NOT NULL,
	name       TEXT,
	summary    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
CREATE INDEX IF NOT EXISTS idx_companies_owner_id ON companies(owner_id);

CREATE TABLE IF NOT EXISTS icps (
	id                 TEXT PRIMARY KEY,
	company_id         TEXT NOT NULL REFERENCES companies(id),
	title              TEXT,
	description        TEXT,
	personas           JSONB,
	company_size_range TEXT,
	revenue_range      TEXT,
	industries         JSONB,
	regions            JSONB,
	funding_stages     JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_icps_company_id ON icps(company_id);

CREATE TABLE IF NOT EXISTS prospects (
	id                  TEXT PRIMARY KEY,
	company_id          TEXT NOT NULL REFERENCES companies(id),
	domain              TEXT NOT NULL,
	enriched_data       JSONB,
	qualification_score DOUBLE PRECISION,
	explanation         TEXT,
	status              TEXT NOT NULL DEFAULT 'pending',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_company_domain ON prospects(company_id, domain);
CREATE INDEX IF NOT EXISTS idx_prospects_company_id ON prospects(company_id);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash, role string) (*model.User, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, email, passwordHash, role, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: user %s", email)
		}
		return nil, eris.Wrap(err, "postgres: insert user")
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

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get user by email")
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", id)
	}
	return &u, nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, ownerID, domain string, name, summary *string) (*model.Company, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, owner_id, domain, name, summary, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, ownerID, domain, name, summary, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: company %s", domain)
		}
		return nil, eris.Wrap(err, "postgres: insert company")
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

func (s *PostgresStore) scanCompany(row pgx.Row) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.OwnerID, &c.Domain, &c.Name, &c.Summary, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.scanCompany(s.pool.QueryRow(ctx,
		`SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return c, nil
}

func (s *PostgresStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	c, err := s.scanCompany(s.pool.QueryRow(ctx,
		`SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE domain = $1`,
		domain,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company by domain %s", domain)
	}
	return c, nil
}

func (s *PostgresStore) ListCompaniesByOwner(ctx context.Context, ownerID string) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, domain, name, summary, created_at, updated_at FROM companies WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Domain, &c.Name, &c.Summary, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) CreateICP(ctx context.Context, companyID string, doc model.ICPDocument) (*model.ICP, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	personasJSON, err := json.Marshal(doc.Personas)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal personas")
	}
	industriesJSON, err := json.Marshal(doc.Industries)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal industries")
	}
	regionsJSON, err := json.Marshal(doc.Regions)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal regions")
	}
	stagesJSON, err := json.Marshal(doc.FundingStages)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal funding stages")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO icps (id, company_id, title, description, personas, company_size_range, revenue_range, industries, regions, funding_stages, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, companyID, nullIfEmpty(doc.Title), nullIfEmpty(doc.Description), personasJSON,
		nullIfEmpty(doc.CompanySizeRange), nullIfEmpty(doc.RevenueRange),
		industriesJSON, regionsJSON, stagesJSON, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: icp for company %s", companyID)
		}
		return nil, eris.Wrap(err, "postgres: insert icp")
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

func (s *PostgresStore) GetICPByCompany(ctx context.Context, companyID string) (*model.ICP, error) {
	var icp model.ICP
	var personasJSON, industriesJSON, regionsJSON, stagesJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, title, description, personas, company_size_range, revenue_range, industries, regions, funding_stages, created_at, updated_at
		 FROM icps WHERE company_id = $1`,
		companyID,
	).Scan(&icp.ID, &icp.CompanyID, &icp.Title, &icp.Description, &personasJSON,
		&icp.CompanySizeRange, &icp.RevenueRange, &industriesJSON, &regionsJSON, &stagesJSON,
		&icp.CreatedAt, &icp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get icp for company %s", companyID)
	}

	if err := unmarshalICPLists(&icp, personasJSON, industriesJSON, regionsJSON, stagesJSON); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal icp")
	}
	return &icp, nil
}

func unmarshalICPLists(icp *model.ICP, personas, industries, regions, stages []byte) error {
	for _, field := range []struct {
		data []byte
		dst  any
	}{
		{personas, &icp.Personas},
		{industries, &icp.Industries},
		{regions, &icp.Regions},
		{stages, &icp.FundingStages},
	} {
		if len(field.data) == 0 {
			continue
		}
		if err := json.Unmarshal(field.data, field.dst); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateProspect(ctx context.Context, p model.Prospect) (*model.Prospect, error) {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	var enrichedJSON []byte
	if p.EnrichedData != nil {
		var err error
		enrichedJSON, err = json.Marshal(p.EnrichedData)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal enriched data")
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO prospects (id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.CompanyID, p.Domain, enrichedJSON, p.QualificationScore, p.Explanation, string(p.Status), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: prospect %s for company %s", p.Domain, p.CompanyID)
		}
		return nil, eris.Wrap(err, "postgres: insert prospect")
	}
	return &p, nil
}

func scanProspect(row pgx.Row) (*model.Prospect, error) {
	var p model.Prospect
	var enrichedJSON []byte
	err := row.Scan(&p.ID, &p.CompanyID, &p.Domain, &enrichedJSON,
		&p.QualificationScore, &p.Explanation, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(enrichedJSON) > 0 {
		p.EnrichedData = &model.EnrichedData{}
		if err := json.Unmarshal(enrichedJSON, p.EnrichedData); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (s *PostgresStore) GetProspect(ctx context.Context, companyID, domain string) (*model.Prospect, error) {
	p, err := scanProspect(s.pool.QueryRow(ctx,
		`SELECT id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at
		 FROM prospects WHERE company_id = $1 AND domain = $2`,
		companyID, domain,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get prospect %s", domain)
	}
	return p, nil
}

func (s *PostgresStore) ListProspects(ctx context.Context, companyID string) ([]model.Prospect, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, domain, enriched_data, qualification_score, explanation, status, created_at, updated_at
		 FROM prospects WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prospects")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan prospect")
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "postgres: list prospects iterate")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
