// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getcito/ai-monitor/internal/config"
	"github.com/getcito/ai-monitor/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Store is the Postgres-backed persistence layer. The query-result history is
// append-only: results are inserted once and only ever read back, so lifetime
// analytics stay rederivable from source at any time.
type Store struct {
	db *sqlx.DB
}

// Connect opens the Postgres pool using the configured limits.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS brands (
		brand_id   UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		domain     TEXT NOT NULL DEFAULT '',
		aliases    TEXT[] NOT NULL DEFAULT '{}',
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS competitors (
		competitor_id UUID PRIMARY KEY,
		brand_id      UUID NOT NULL REFERENCES brands(brand_id),
		name          TEXT NOT NULL,
		domain        TEXT,
		aliases       TEXT[] NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (brand_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS brand_queries (
		query_id   UUID PRIMARY KEY,
		brand_id   UUID NOT NULL REFERENCES brands(brand_id),
		text       TEXT NOT NULL,
		position   INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS processing_sessions (
		session_id      UUID PRIMARY KEY,
		brand_id        UUID NOT NULL REFERENCES brands(brand_id),
		status          TEXT NOT NULL,
		total_queries   INT NOT NULL DEFAULT 0,
		completed_count INT NOT NULL DEFAULT 0,
		failed_count    INT NOT NULL DEFAULT 0,
		started_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at    TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS query_results (
		result_id  UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES processing_sessions(session_id),
		brand_id   UUID NOT NULL REFERENCES brands(brand_id),
		query      TEXT NOT NULL,
		results    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_query_results_brand ON query_results (brand_id, created_at, result_id)`,
	`CREATE INDEX IF NOT EXISTS idx_query_results_session ON query_results (session_id, created_at, result_id)`,
}

// EnsureSchema creates the tables on startup if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

type brandRow struct {
	ID        uuid.UUID      `db:"brand_id"`
	Name      string         `db:"name"`
	Domain    string         `db:"domain"`
	Aliases   pq.StringArray `db:"aliases"`
	IsActive  bool           `db:"is_active"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r brandRow) toModel() *models.Brand {
	return &models.Brand{
		ID:        r.ID,
		Name:      r.Name,
		Domain:    r.Domain,
		Aliases:   []string(r.Aliases),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

func (s *Store) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if brand.ID == uuid.Nil {
		brand.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brands (brand_id, name, domain, aliases, is_active) VALUES ($1, $2, $3, $4, $5)`,
		brand.ID, brand.Name, brand.Domain, pq.StringArray(brand.Aliases), brand.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create brand: %w", err)
	}
	return nil
}

func (s *Store) GetBrand(ctx context.Context, brandID uuid.UUID) (*models.Brand, error) {
	var row brandRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM brands WHERE brand_id = $1`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to get brand %s: %w", brandID, err)
	}
	return row.toModel(), nil
}

func (s *Store) ListActiveBrands(ctx context.Context) ([]*models.Brand, error) {
	var rows []brandRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM brands WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	brands := make([]*models.Brand, 0, len(rows))
	for _, row := range rows {
		brands = append(brands, row.toModel())
	}
	return brands, nil
}

type competitorRow struct {
	ID        uuid.UUID      `db:"competitor_id"`
	BrandID   uuid.UUID      `db:"brand_id"`
	Name      string         `db:"name"`
	Domain    sql.NullString `db:"domain"`
	Aliases   pq.StringArray `db:"aliases"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r competitorRow) toModel() *models.Competitor {
	c := &models.Competitor{
		ID:        r.ID,
		BrandID:   r.BrandID,
		Name:      r.Name,
		Aliases:   []string(r.Aliases),
		CreatedAt: r.CreatedAt,
	}
	if r.Domain.Valid {
		c.Domain = &r.Domain.String
	}
	return c
}

func (s *Store) CreateCompetitor(ctx context.Context, comp *models.Competitor) error {
	if comp.ID == uuid.Nil {
		comp.ID = uuid.New()
	}
	var domain sql.NullString
	if comp.Domain != nil {
		domain = sql.NullString{String: *comp.Domain, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO competitors (competitor_id, brand_id, name, domain, aliases) VALUES ($1, $2, $3, $4, $5)`,
		comp.ID, comp.BrandID, comp.Name, domain, pq.StringArray(comp.Aliases))
	if err != nil {
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	return nil
}

// ListCompetitors returns a brand's tracked competitors in creation order, the
// order the user added them.
func (s *Store) ListCompetitors(ctx context.Context, brandID uuid.UUID) ([]*models.Competitor, error) {
	var rows []competitorRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM competitors WHERE brand_id = $1 ORDER BY created_at, competitor_id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	competitors := make([]*models.Competitor, 0, len(rows))
	for _, row := range rows {
		competitors = append(competitors, row.toModel())
	}
	return competitors, nil
}

func (s *Store) CreateBrandQuery(ctx context.Context, q *models.BrandQuery) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brand_queries (query_id, brand_id, text, position) VALUES ($1, $2, $3, $4)`,
		q.ID, q.BrandID, q.Text, q.Position)
	if err != nil {
		return fmt.Errorf("failed to create brand query: %w", err)
	}
	return nil
}

func (s *Store) ListBrandQueries(ctx context.Context, brandID uuid.UUID) ([]*models.BrandQuery, error) {
	var queries []*models.BrandQuery
	err := s.db.SelectContext(ctx, &queries,
		`SELECT query_id, brand_id, text, position, created_at
		 FROM brand_queries WHERE brand_id = $1 ORDER BY position, created_at`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand queries: %w", err)
	}
	return queries, nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.ProcessingSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusPending
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_sessions (session_id, brand_id, status, total_queries, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.BrandID, session.Status, session.TotalQueries, session.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *Store) UpdateSessionProgress(ctx context.Context, sessionID uuid.UUID, status string, completed, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE processing_sessions SET status = $2, completed_count = $3, failed_count = $4
		 WHERE session_id = $1`,
		sessionID, status, completed, failed)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) FinishSession(ctx context.Context, sessionID uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE processing_sessions SET status = $2, completed_at = NOW() WHERE session_id = $1`,
		sessionID, status)
	if err != nil {
		return fmt.Errorf("failed to finish session %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ProcessingSession, error) {
	var session models.ProcessingSession
	err := s.db.GetContext(ctx, &session,
		`SELECT * FROM processing_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return &session, nil
}

// RecentCompletedSessions returns up to limit completed sessions, newest
// first. Index 0 is the "latest" scope; index 1 feeds trend comparison.
func (s *Store) RecentCompletedSessions(ctx context.Context, brandID uuid.UUID, limit int) ([]*models.ProcessingSession, error) {
	var sessions []*models.ProcessingSession
	err := s.db.SelectContext(ctx, &sessions,
		`SELECT * FROM processing_sessions
		 WHERE brand_id = $1 AND status = $2
		 ORDER BY completed_at DESC NULLS LAST, started_at DESC
		 LIMIT $3`,
		brandID, models.SessionStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}
	return sessions, nil
}

type queryResultRow struct {
	ID        uuid.UUID       `db:"result_id"`
	SessionID uuid.UUID       `db:"session_id"`
	BrandID   uuid.UUID       `db:"brand_id"`
	Query     string          `db:"query"`
	Results   json.RawMessage `db:"results"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r queryResultRow) toModel() *models.QueryResult {
	qr := &models.QueryResult{
		ID:        r.ID,
		SessionID: r.SessionID,
		BrandID:   r.BrandID,
		Query:     r.Query,
		Results:   make(map[models.Provider]*models.ProviderResult),
		CreatedAt: r.CreatedAt,
	}

	// Decode the results blob one provider entry at a time, so one corrupt
	// entry costs only that provider's contribution and the healthy siblings
	// survive. A blob that isn't even a JSON object degrades to an empty map;
	// either way the record stays in the history and contributes zero for
	// whatever was dropped.
	var raw map[models.Provider]json.RawMessage
	if err := json.Unmarshal(r.Results, &raw); err != nil {
		logrus.WithError(err).WithField("result_id", r.ID).Warn("Dropping corrupt results blob")
		return qr
	}
	for provider, blob := range raw {
		var result models.ProviderResult
		if err := json.Unmarshal(blob, &result); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"result_id": r.ID,
				"provider":  provider,
			}).Warn("Dropping corrupt provider entry")
			continue
		}
		qr.Results[provider] = &result
	}
	return qr
}

// AppendQueryResult inserts one immutable query-result record. There is no
// corresponding update or delete; the history only grows.
func (s *Store) AppendQueryResult(ctx context.Context, qr *models.QueryResult) error {
	if qr.ID == uuid.Nil {
		qr.ID = uuid.New()
	}
	if qr.CreatedAt.IsZero() {
		qr.CreatedAt = time.Now().UTC()
	}
	results, err := json.Marshal(qr.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal provider results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO query_results (result_id, session_id, brand_id, query, results, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		qr.ID, qr.SessionID, qr.BrandID, qr.Query, results, qr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append query result: %w", err)
	}
	return nil
}

// QueryHistory returns a brand's entire result history in chronological
// processing order, ties broken by result ID (the original submission order).
func (s *Store) QueryHistory(ctx context.Context, brandID uuid.UUID) ([]*models.QueryResult, error) {
	var rows []queryResultRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM query_results WHERE brand_id = $1 ORDER BY created_at, result_id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to load query history: %w", err)
	}
	return rowsToResults(rows), nil
}

// SessionQueryResults returns one session's results in processing order.
func (s *Store) SessionQueryResults(ctx context.Context, sessionID uuid.UUID) ([]*models.QueryResult, error) {
	var rows []queryResultRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM query_results WHERE session_id = $1 ORDER BY created_at, result_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session results: %w", err)
	}
	return rowsToResults(rows), nil
}

func rowsToResults(rows []queryResultRow) []*models.QueryResult {
	results := make([]*models.QueryResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toModel())
	}
	return results
}
