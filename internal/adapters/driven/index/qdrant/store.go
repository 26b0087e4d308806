// Package qdrant provides a vector index adapter backed by Qdrant
// collections over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexService = (*Store)(nil)

// Default configuration values.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334

	// payloadRecordID keeps the caller's record ID, since Qdrant point IDs
	// must be UUIDs or integers.
	payloadRecordID = "record_id"
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the gRPC endpoint, e.g. "localhost:6334" or "https://xyz.cloud.qdrant.io:6334".
	URL string

	// APIKey is sent for Qdrant Cloud. Optional for local instances.
	APIKey string
}

// api is the subset of *qdrant.Client the store uses.
type api interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Store maps indexes onto Qdrant collections.
type Store struct {
	client api
}

// New connects to Qdrant.
func New(cfg Config) (*Store, error) {
	qcfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect: %w", err)
	}
	return &Store{client: client}, nil
}

// newWithClient wraps an existing client.
func newWithClient(client api) *Store {
	return &Store{client: client}
}

func parseConfig(cfg Config) (*qdrant.Config, error) {
	out := &qdrant.Config{Host: DefaultHost, Port: DefaultPort, APIKey: cfg.APIKey}
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return out, nil
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: qdrant url %q: %v", domain.ErrInvalidInput, raw, err)
		}
		out.UseTLS = u.Scheme == "https"
		raw = u.Host
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		// No port given.
		out.Host = raw
		return out, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant port %q", domain.ErrInvalidInput, port)
	}
	out.Host = host
	out.Port = p
	return out, nil
}

// ListIndexes returns collection names.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("qdrant: list collections: %w", err)
	}
	return names, nil
}

// CreateIndex creates a collection with a single unnamed vector.
func (s *Store) CreateIndex(ctx context.Context, spec domain.IndexSpec) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: toDistance(spec.Metric),
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", spec.Name, err)
	}
	return nil
}

// DescribeIndex reports dimension, metric and status. Green and yellow
// collections accept reads and writes and count as ready.
func (s *Store) DescribeIndex(ctx context.Context, name string) (*domain.IndexDescription, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("qdrant: check collection %s: %w", name, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("qdrant: describe collection %s: %w", name, err)
	}

	desc := &domain.IndexDescription{
		Name:  name,
		State: info.GetStatus().String(),
		Ready: info.GetStatus() == qdrant.CollectionStatus_Green ||
			info.GetStatus() == qdrant.CollectionStatus_Yellow,
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		desc.Dimension = int(params.GetSize())
		desc.Metric = fromDistance(params.GetDistance())
	}
	return desc, nil
}

// Upsert writes records as points and waits for the write to apply.
func (s *Store) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(r.ID)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(payload(r)),
		})
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert into %s: %w", name, err)
	}
	return nil
}

// Query runs a nearest-neighbour search.
// Euclid scores are distances, so they are mapped onto the same
// higher-is-closer scale as the other metrics.
func (s *Store) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.Match, error) {
	desc, err := s.DescribeIndex(ctx, name)
	if err != nil {
		return nil, err
	}

	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query %s: %w", name, err)
	}

	matches := make([]domain.Match, 0, len(points))
	for _, p := range points {
		meta := make(map[string]any, len(p.GetPayload()))
		for key, v := range p.GetPayload() {
			meta[key] = fromValue(v)
		}
		text, _ := meta[domain.MetaText].(string)
		delete(meta, domain.MetaText)

		id, _ := meta[payloadRecordID].(string)
		delete(meta, payloadRecordID)
		if id == "" {
			id = p.GetId().GetUuid()
		}

		score := float64(p.GetScore())
		if desc.Metric == domain.MetricEuclidean {
			score = index.FromDistance(score)
		}

		matches = append(matches, domain.Match{
			ID:       id,
			Text:     text,
			Score:    score,
			Metadata: meta,
		})
	}
	return index.TopK(matches, k), nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// pointID returns id when it is a UUID, otherwise a stable UUID derived from it.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

func payload(r domain.VectorRecord) map[string]any {
	out := make(map[string]any, len(r.Metadata)+2)
	for k, v := range r.Metadata {
		switch val := v.(type) {
		case string, bool, int, int32, int64, float32, float64:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	out[domain.MetaText] = r.Text
	out[payloadRecordID] = r.ID
	return out
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

func toDistance(m domain.Metric) qdrant.Distance {
	switch m {
	case domain.MetricEuclidean:
		return qdrant.Distance_Euclid
	case domain.MetricDotProduct:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

func fromDistance(d qdrant.Distance) domain.Metric {
	switch d {
	case qdrant.Distance_Euclid:
		return domain.MetricEuclidean
	case qdrant.Distance_Dot:
		return domain.MetricDotProduct
	default:
		return domain.MetricCosine
	}
}
