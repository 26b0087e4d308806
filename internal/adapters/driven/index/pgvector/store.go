// Package pgvector provides a vector index adapter for PostgreSQL with the
// pgvector extension. Each index gets its own table so that every table can
// declare a fixed vector dimension; a registry table records the dimension
// and metric each index was created with.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexService = (*Store)(nil)

// registryTable lists the indexes this adapter manages.
const registryTable = "pagewise_indexes"

// tablePrefix is prepended to index names to form record table names.
const tablePrefix = "pagewise_"

// pool is the subset of *pgxpool.Pool the store uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store implements driven.IndexService on PostgreSQL.
type Store struct {
	pool pool
}

// New connects to dsn and ensures the extension and registry exist.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: pgvector dsn is required", domain.ErrInvalidInput)
	}
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}
	s := &Store{pool: p}
	if err := s.ensureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+registryTable+` (
		name TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL,
		metric TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("pgvector: create registry: %w", err)
	}
	return nil
}

func tableIdent(name string) string {
	return pgx.Identifier{tablePrefix + name}.Sanitize()
}

// ListIndexes returns registered index names.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT name FROM "+registryTable+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("pgvector: list indexes: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pgvector: list indexes: %w", err)
	}
	return names, nil
}

// CreateIndex registers the index and creates its record table in one transaction.
func (s *Store) CreateIndex(ctx context.Context, spec domain.IndexSpec) (err error) {
	if spec.Name == "" || spec.Dimension <= 0 {
		return fmt.Errorf("%w: index needs a name and a positive dimension", domain.ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgvector: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
		}
	}()

	tag, err := tx.Exec(ctx,
		"INSERT INTO "+registryTable+" (name, dimension, metric) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING",
		spec.Name, spec.Dimension, string(spec.Metric))
	if err != nil {
		return fmt.Errorf("pgvector: register index %s: %w", spec.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: index %q already exists", domain.ErrInvalidInput, spec.Name)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		embedding vector(%d) NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`, tableIdent(spec.Name), spec.Dimension)
	if _, err = tx.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table for %s: %w", spec.Name, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgvector: commit: %w", err)
	}
	return nil
}

// DescribeIndex reads the registry. Tables are usable once created.
func (s *Store) DescribeIndex(ctx context.Context, name string) (*domain.IndexDescription, error) {
	var dimension int
	var metric string
	err := s.pool.QueryRow(ctx,
		"SELECT dimension, metric FROM "+registryTable+" WHERE name = $1", name).Scan(&dimension, &metric)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgvector: describe index %s: %w", name, err)
	}
	return &domain.IndexDescription{
		Name:      name,
		Dimension: dimension,
		Metric:    domain.Metric(metric),
		Ready:     true,
		State:     "Ready",
	}, nil
}

// Upsert writes records in one transaction.
func (s *Store) Upsert(ctx context.Context, name string, records []domain.VectorRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	desc, err := s.DescribeIndex(ctx, name)
	if err != nil {
		return err
	}
	if err := index.CheckDimension(records, desc.Dimension); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgvector: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
		}
	}()

	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding, content, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    embedding = excluded.embedding,
    content = excluded.content,
    metadata = excluded.metadata,
    updated_at = excluded.updated_at`, tableIdent(name))

	for _, r := range records {
		metadata, marshalErr := json.Marshal(r.Metadata)
		if marshalErr != nil {
			return fmt.Errorf("pgvector: marshal metadata for %q: %w", r.ID, marshalErr)
		}
		if _, err = tx.Exec(ctx, stmt, r.ID, pgv.NewVector(r.Vector), r.Text, metadata, time.Now().UTC()); err != nil {
			return fmt.Errorf("pgvector: upsert %q: %w", r.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgvector: commit: %w", err)
	}
	return nil
}

// distanceSQL returns the score expression and ordering expression for metric.
// Scores are oriented so that higher is more similar.
func distanceSQL(metric domain.Metric) (score, order string) {
	switch metric {
	case domain.MetricEuclidean:
		return "1 / (1 + (embedding <-> $1))", "embedding <-> $1"
	case domain.MetricDotProduct:
		return "(embedding <#> $1) * -1", "embedding <#> $1"
	default:
		return "1 - (embedding <=> $1)", "embedding <=> $1"
	}
}

// Query returns the k nearest records.
func (s *Store) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.Match, error) {
	desc, err := s.DescribeIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != desc.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(vector), desc.Dimension)
	}

	score, order := distanceSQL(desc.Metric)
	query := fmt.Sprintf("SELECT id, content, metadata, %s AS score FROM %s ORDER BY %s ASC, seq ASC LIMIT $2",
		score, tableIdent(name), order)

	rows, err := s.pool.Query(ctx, query, pgv.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("pgvector: query %s: %w", name, err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0, k)
	for rows.Next() {
		var (
			id          string
			content     string
			metadataRaw []byte
			similarity  float64
		)
		if err := rows.Scan(&id, &content, &metadataRaw, &similarity); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		var metadata map[string]any
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
				return nil, fmt.Errorf("pgvector: decode metadata for %q: %w", id, err)
			}
		}
		matches = append(matches, domain.Match{
			ID:       id,
			Text:     content,
			Score:    similarity,
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: rows: %w", err)
	}
	return matches, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
