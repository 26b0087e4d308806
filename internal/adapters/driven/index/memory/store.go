// Package memory provides an in-process vector index.
// It searches exhaustively and keeps nothing across restarts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexService = (*Store)(nil)

// Store is an in-memory implementation of driven.IndexService.
type Store struct {
	mu         sync.RWMutex
	indexes    map[string]*memIndex
	readyAfter int
	creates    int
	upserts    int
}

type memIndex struct {
	spec      domain.IndexSpec
	describes int
	order     []string
	records   map[string]domain.VectorRecord
}

// Option configures a Store.
type Option func(*Store)

// WithReadyAfter makes a new index report not-ready for its first n
// DescribeIndex calls, imitating asynchronous provisioning.
func WithReadyAfter(n int) Option {
	return func(s *Store) { s.readyAfter = n }
}

// New creates an empty in-memory index store.
func New(opts ...Option) *Store {
	s := &Store{indexes: make(map[string]*memIndex)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListIndexes returns index names in lexical order.
func (s *Store) ListIndexes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateIndex registers a new, empty index.
func (s *Store) CreateIndex(_ context.Context, spec domain.IndexSpec) error {
	if spec.Name == "" || spec.Dimension <= 0 {
		return fmt.Errorf("%w: index needs a name and a positive dimension", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[spec.Name]; ok {
		return fmt.Errorf("%w: index %q already exists", domain.ErrInvalidInput, spec.Name)
	}
	s.creates++
	s.indexes[spec.Name] = &memIndex{
		spec:    spec,
		records: make(map[string]domain.VectorRecord),
	}
	return nil
}

// DescribeIndex reports configuration and readiness.
func (s *Store) DescribeIndex(_ context.Context, name string) (*domain.IndexDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	idx.describes++
	ready := idx.describes > s.readyAfter
	state := "Ready"
	if !ready {
		state = "Initializing"
	}
	return &domain.IndexDescription{
		Name:      name,
		Dimension: idx.spec.Dimension,
		Metric:    idx.spec.Metric,
		Ready:     ready,
		State:     state,
	}, nil
}

// Upsert writes records, replacing any with the same ID.
func (s *Store) Upsert(_ context.Context, name string, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return domain.ErrNotFound
	}
	if err := index.CheckDimension(records, idx.spec.Dimension); err != nil {
		return err
	}
	s.upserts++
	for _, r := range records {
		if _, exists := idx.records[r.ID]; !exists {
			idx.order = append(idx.order, r.ID)
		}
		idx.records[r.ID] = copyRecord(r)
	}
	return nil
}

// Query scores every record and returns the best k.
func (s *Store) Query(_ context.Context, name string, vector []float32, k int) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if len(vector) != idx.spec.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(vector), idx.spec.Dimension)
	}

	matches := make([]domain.Match, 0, len(idx.order))
	for _, id := range idx.order {
		r := idx.records[id]
		matches = append(matches, domain.Match{
			ID:       r.ID,
			Text:     r.Text,
			Score:    index.Score(idx.spec.Metric, vector, r.Vector),
			Metadata: copyMetadata(r.Metadata),
		})
	}
	return index.TopK(matches, k), nil
}

// CreateCount returns how many indexes have been created.
func (s *Store) CreateCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creates
}

// UpsertCount returns how many Upsert calls have succeeded.
func (s *Store) UpsertCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts
}

// Len returns the number of records stored in the named index.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.indexes[name]; ok {
		return len(idx.records)
	}
	return 0
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func copyRecord(r domain.VectorRecord) domain.VectorRecord {
	v := make([]float32, len(r.Vector))
	copy(v, r.Vector)
	r.Vector = v
	r.Metadata = copyMetadata(r.Metadata)
	return r
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
