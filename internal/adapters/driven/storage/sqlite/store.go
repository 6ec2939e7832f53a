package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/benchbook/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/retrieval"
)

// DatabaseFile is the file name inside the data directory.
const DatabaseFile = "benchbook.db"

// Store is a SQLite database exposing the storage ports through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database in dataDir and applies pending
// migrations. If dataDir is empty, defaults to ~/.benchbook/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".benchbook", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorIndex returns a VectorIndex backed by this store. Closing it does
// not close the store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// ManifestStore returns a ManifestStore backed by this store.
func (s *Store) ManifestStore() driven.ManifestStore {
	return &manifestStore{store: s}
}

// ReportStore returns a ReportStore backed by this store.
func (s *Store) ReportStore() driven.ReportStore {
	return &reportStore{store: s}
}

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vector Index ====================

type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert writes records in one transaction. The batch is rejected whole when
// any vector disagrees with the stored dimension.
func (x *vectorIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := x.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	dim, err := storedDimension(ctx, tx)
	if err != nil {
		return err
	}
	if dim == 0 {
		dim = len(records[0].Vector)
	}
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, vector, dimension, source, section_id, title, text,
			chunk_index, version_date, document_key, county, uri, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			source = excluded.source,
			section_id = excluded.section_id,
			title = excluded.title,
			text = excluded.text,
			chunk_index = excluded.chunk_index,
			version_date = excluded.version_date,
			document_key = excluded.document_key,
			county = excluded.county,
			uri = excluded.uri,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		m := r.Metadata
		if _, err := stmt.ExecContext(ctx, r.ID, float32SliceToBytes(r.Vector), len(r.Vector),
			m.SourceTag, m.SectionID, m.Title, m.Text, m.Ordinal, m.VersionDate,
			m.DocumentKey, m.County, m.URI, now); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

func storedDimension(ctx context.Context, tx *sql.Tx) (int, error) {
	var dim int
	err := tx.QueryRowContext(ctx, "SELECT dimension FROM chunks LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading index dimension: %w", err)
	}
	return dim, nil
}

// Query loads every record and ranks them in process.
func (x *vectorIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	rows, err := x.store.db.QueryContext(ctx, `
		SELECT id, vector, source, section_id, title, text, chunk_index,
			version_date, document_key, county, uri
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var (
			r    domain.VectorRecord
			blob []byte
			m    = &r.Metadata
		)
		if err := rows.Scan(&r.ID, &blob, &m.SourceTag, &m.SectionID, &m.Title, &m.Text,
			&m.Ordinal, &m.VersionDate, &m.DocumentKey, &m.County, &m.URI); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Vector = bytesToFloat32Slice(blob)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return retrieval.Search(records, vector, k)
}

// Count returns the number of stored chunks.
func (x *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store holds the connection.
func (x *vectorIndex) Close() error { return nil }

// ==================== Manifest Store ====================

type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Save stores or replaces the manifest for its document.
func (s *manifestStore) Save(ctx context.Context, m *domain.Manifest) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO manifests (document_key, run_id, processed_at, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_key) DO UPDATE SET
			run_id = excluded.run_id,
			processed_at = excluded.processed_at,
			body = excluded.body
	`, m.DocumentKey, m.RunID, m.ProcessedAt.UTC(), string(body))
	if err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

// Get retrieves the manifest for a document key.
func (s *manifestStore) Get(ctx context.Context, documentKey string) (*domain.Manifest, error) {
	var body string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT body FROM manifests WHERE document_key = ?", documentKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}

	var m domain.Manifest
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return nil, fmt.Errorf("unmarshalling manifest: %w", err)
	}
	return &m, nil
}

// List returns manifests ordered by document key.
func (s *manifestStore) List(ctx context.Context) ([]domain.Manifest, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT body FROM manifests ORDER BY document_key")
	if err != nil {
		return nil, fmt.Errorf("querying manifests: %w", err)
	}
	defer rows.Close()

	var out []domain.Manifest
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning manifest: %w", err)
		}
		var m domain.Manifest
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("unmarshalling manifest: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ==================== Report Store ====================

type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// Save stores a report under its evaluation id, replacing any previous run
// with the same id.
func (s *reportStore) Save(ctx context.Context, r *domain.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO evaluation_runs (id, prompt_version, created_at, passed, total, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.EvaluationID, r.PromptVersion, r.Timestamp.UTC(), r.Summary.Passed, r.Summary.TotalQueries, string(body))
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// Get retrieves a report by evaluation id.
func (s *reportStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.scanOne(s.store.db.QueryRowContext(ctx, "SELECT body FROM evaluation_runs WHERE id = ?", id))
}

// Latest returns the most recently created report.
func (s *reportStore) Latest(ctx context.Context) (*domain.Report, error) {
	return s.scanOne(s.store.db.QueryRowContext(ctx,
		"SELECT body FROM evaluation_runs ORDER BY created_at DESC, id DESC LIMIT 1"))
}

func (s *reportStore) scanOne(row *sql.Row) (*domain.Report, error) {
	var body string
	err := row.Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	var r domain.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("unmarshalling report: %w", err)
	}
	return &r, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes encodes a vector as little-endian IEEE 754 values.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes float32SliceToBytes output.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
