package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists analysis reports in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initReportSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initReportSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_reports (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			scrubbed_text TEXT NOT NULL,
			masked_contact TEXT NOT NULL DEFAULT '',
			url_count INTEGER NOT NULL DEFAULT 0,
			malicious_urls INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_reports_created ON analysis_reports (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_reports_contact ON analysis_reports (masked_contact) WHERE masked_contact <> '';`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init report schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, r Report) (Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_reports
			(id, mode, scrubbed_text, masked_contact, url_count, malicious_urls, category, confidence, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Mode, r.ScrubbedText, r.MaskedContact, r.URLCount, r.MaliciousURLs, r.Category, r.Confidence, r.Summary, r.CreatedAt,
	)
	if err != nil {
		return Report{}, fmt.Errorf("save report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, mode, scrubbed_text, masked_contact, url_count, malicious_urls, category, confidence, summary, created_at
		 FROM analysis_reports ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func (s *PostgresStore) ByContact(ctx context.Context, maskedContact string) ([]Report, error) {
	if maskedContact == "" {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, mode, scrubbed_text, masked_contact, url_count, malicious_urls, category, confidence, summary, created_at
		 FROM analysis_reports WHERE masked_contact=$1 ORDER BY created_at DESC`,
		maskedContact,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports by contact: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReports(rows pgxRows) ([]Report, error) {
	var items []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.Mode, &r.ScrubbedText, &r.MaskedContact, &r.URLCount, &r.MaliciousURLs, &r.Category, &r.Confidence, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
