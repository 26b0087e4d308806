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

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexService = (*Store)(nil)

// DatabaseFile is the file name used inside the data directory.
const DatabaseFile = "index.db"

// Store is a vector index backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the index database in dataDir.
// If dataDir is empty, defaults to ~/.pagewise/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagewise", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// migrate runs all pending migrations and records each applied version.
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vectors.up.sql" -> 1
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
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ListIndexes returns index names in lexical order.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM indexes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning index name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateIndex registers a new index. Creation is synchronous, so the
// index is ready as soon as this returns.
func (s *Store) CreateIndex(ctx context.Context, spec domain.IndexSpec) error {
	if spec.Name == "" || spec.Dimension <= 0 {
		return fmt.Errorf("%w: index needs a name and a positive dimension", domain.ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO indexes (name, dimension, metric) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING",
		spec.Name, spec.Dimension, string(spec.Metric))
	if err != nil {
		return fmt.Errorf("creating index %s: %w", spec.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: index %q already exists", domain.ErrInvalidInput, spec.Name)
	}
	return nil
}

// DescribeIndex reports an index's configuration.
func (s *Store) DescribeIndex(ctx context.Context, name string) (*domain.IndexDescription, error) {
	var dimension int
	var metric string
	err := s.db.QueryRowContext(ctx,
		"SELECT dimension, metric FROM indexes WHERE name = ?", name).Scan(&dimension, &metric)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("describing index %s: %w", name, err)
	}
	return &domain.IndexDescription{
		Name:      name,
		Dimension: dimension,
		Metric:    domain.Metric(metric),
		Ready:     true,
		Host:      s.path,
		State:     "Ready",
	}, nil
}

// Upsert writes records in one transaction, replacing any with the same ID.
func (s *Store) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	desc, err := s.DescribeIndex(ctx, name)
	if err != nil {
		return err
	}
	if err := index.CheckDimension(records, desc.Dimension); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM records WHERE index_name = ?", name).Scan(&seq); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (index_name, id, seq, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_name, id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		seq++
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, name, r.ID, seq, r.Text,
			string(metadataJSON), float32SliceToBytes(r.Vector)); err != nil {
			return fmt.Errorf("saving record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query scores every record in the index and returns the best k.
func (s *Store) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.Match, error) {
	desc, err := s.DescribeIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != desc.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(vector), desc.Dimension)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, metadata, embedding FROM records WHERE index_name = ? ORDER BY seq", name)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var id, content, metadataJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&id, &content, &metadataJSON, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		var metadata map[string]any
		if metadataJSON != "" && metadataJSON != "null" {
			if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata for %s: %w", id, err)
			}
		}

		matches = append(matches, domain.Match{
			ID:       id,
			Text:     content,
			Score:    index.Score(desc.Metric, vector, bytesToFloat32Slice(embeddingBlob)),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return index.TopK(matches, k), nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
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

// bytesToFloat32Slice converts a byte slice back to []float32.
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
