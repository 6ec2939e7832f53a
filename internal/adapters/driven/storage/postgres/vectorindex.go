// Package postgres provides a VectorIndex on PostgreSQL with the pgvector
// extension.
//
// Candidates are selected in the database by cosine distance without an
// approximate index, so the scan is exact. Deduplication on (sourceTag,
// sectionId) happens in process over the over-fetched candidates.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/retrieval"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Pool is the subset of *pgxpool.Pool the index uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// VectorIndex stores records in the benchbook_chunks table.
type VectorIndex struct {
	pool      Pool
	dimension int
}

// Open connects to dsn, registers the vector type on every connection and
// creates the schema for the given dimension.
func Open(ctx context.Context, dsn string, dimension int) (*VectorIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: postgres index needs a positive dimension", domain.ErrInvalidInput)
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	// The extension must exist before AfterConnect can register its types.
	bootstrap, err := pgx.ConnectConfig(ctx, config.ConnConfig.Copy())
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %w", domain.ErrVectorIndexUnavailable, err)
	}
	_, err = bootstrap.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	bootstrap.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating vector extension: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: creating pool: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %w", domain.ErrVectorIndexUnavailable, err)
	}

	x := New(pool, dimension)
	if err := x.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return x, nil
}

// New wraps an existing pool.
func New(pool Pool, dimension int) *VectorIndex {
	return &VectorIndex{pool: pool, dimension: dimension}
}

// EnsureSchema creates the chunks table if it does not exist.
func (x *VectorIndex) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS benchbook_chunks (
			id           TEXT PRIMARY KEY,
			embedding    vector(%d) NOT NULL,
			source       TEXT NOT NULL,
			section_id   TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			text         TEXT NOT NULL DEFAULT '',
			chunk_index  INTEGER NOT NULL,
			version_date TEXT NOT NULL DEFAULT '',
			document_key TEXT NOT NULL,
			county       TEXT NOT NULL DEFAULT '',
			uri          TEXT NOT NULL DEFAULT '',
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, x.dimension)
	if _, err := x.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating benchbook_chunks: %w", err)
	}
	return nil
}

const upsertSQL = `
	INSERT INTO benchbook_chunks (id, embedding, source, section_id, title, text,
		chunk_index, version_date, document_key, county, uri, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	ON CONFLICT (id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		source = EXCLUDED.source,
		section_id = EXCLUDED.section_id,
		title = EXCLUDED.title,
		text = EXCLUDED.text,
		chunk_index = EXCLUDED.chunk_index,
		version_date = EXCLUDED.version_date,
		document_key = EXCLUDED.document_key,
		county = EXCLUDED.county,
		uri = EXCLUDED.uri,
		updated_at = now()`

// Upsert writes records in one transaction.
func (x *VectorIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != x.dimension {
			return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), x.dimension)
		}
	}

	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("postgres_rollback_failed", "error", err)
		}
	}()

	for _, r := range records {
		m := r.Metadata
		if _, err := tx.Exec(ctx, upsertSQL, r.ID, pgvector.NewVector(r.Vector),
			m.SourceTag, m.SectionID, m.Title, m.Text, m.Ordinal,
			m.VersionDate, m.DocumentKey, m.County, m.URI); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

const querySQL = `
	SELECT id, source, section_id, title, text, chunk_index, version_date,
		document_key, county, uri, embedding <=> $1 AS distance
	FROM benchbook_chunks
	ORDER BY distance, id
	LIMIT $2`

// Query selects OverFetchFactor*k nearest rows and deduplicates them.
func (x *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), x.dimension)
	}
	q, err := retrieval.Normalize(vector)
	if err != nil {
		return nil, err
	}

	rows, err := x.pool.Query(ctx, querySQL, pgvector.NewVector(q), retrieval.OverFetchFactor*k)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []retrieval.Candidate
	for rows.Next() {
		var (
			c        retrieval.Candidate
			distance float64
			m        = &c.Metadata
		)
		if err := rows.Scan(&c.ID, &m.SourceTag, &m.SectionID, &m.Title, &m.Text, &m.Ordinal,
			&m.VersionDate, &m.DocumentKey, &m.County, &m.URI, &distance); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Score = 1 - distance
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return retrieval.Rank(candidates, k), nil
}

// Count returns the number of stored rows.
func (x *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int64
	if err := x.pool.QueryRow(ctx, "SELECT count(*) FROM benchbook_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return int(n), nil
}

// Close closes the pool.
func (x *VectorIndex) Close() error {
	x.pool.Close()
	return nil
}
