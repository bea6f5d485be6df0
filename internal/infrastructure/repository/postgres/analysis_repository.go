// Package postgres persists completed analyses for the history surface.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// OpenDB opens and pings a pgx stdlib pool.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS analyses (
	id            UUID PRIMARY KEY,
	content_hash  TEXT NOT NULL UNIQUE,
	doc_type      TEXT NOT NULL,
	risk_level    TEXT NOT NULL,
	summary       TEXT NOT NULL DEFAULT '',
	result        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);
`

// EnsureSchema applies the schema under an advisory lock so concurrent
// worker replicas do not race the DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(0x5e0a1c)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return tx.Commit()
}

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save upserts by content hash: re-analyzing the same document after the
// cache expires refreshes the stored record instead of duplicating it.
func (r *AnalysisRepository) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	const operation = "postgres.save_analysis"

	payload, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("%s: encode result: %w", operation, err)
	}

	const query = `
		INSERT INTO analyses (id, content_hash, doc_type, risk_level, summary, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (content_hash) DO UPDATE SET
			doc_type   = EXCLUDED.doc_type,
			risk_level = EXCLUDED.risk_level,
			summary    = EXCLUDED.summary,
			result     = EXCLUDED.result,
			created_at = EXCLUDED.created_at`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.ContentHash,
		string(record.Result.Classification.DocType),
		record.Result.Risk.String(),
		record.Result.SummaryOneLine,
		payload,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (r *AnalysisRepository) GetByHash(ctx context.Context, contentHash string) (*domain.AnalysisRecord, error) {
	const operation = "postgres.get_analysis"
	const query = `
		SELECT id, content_hash, result, created_at
		FROM analyses
		WHERE content_hash = $1`

	row := r.db.QueryRowContext(ctx, query, contentHash)

	var (
		record  domain.AnalysisRecord
		payload []byte
	)
	err := row.Scan(&record.ID, &record.ContentHash, &payload, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrAnalysisNotFound, operation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if err := json.Unmarshal(payload, &record.Result); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", operation, err)
	}
	return &record, nil
}

func (r *AnalysisRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	const operation = "postgres.list_analyses"
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, content_hash, result, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		var (
			record  domain.AnalysisRecord
			payload []byte
		)
		if err := rows.Scan(&record.ID, &record.ContentHash, &payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", operation, err)
		}
		if err := json.Unmarshal(payload, &record.Result); err != nil {
			return nil, fmt.Errorf("%s: decode result: %w", operation, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return records, nil
}
