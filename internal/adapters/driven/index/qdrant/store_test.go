package qdrant

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// fakeAPI records requests and serves canned collection state.
type fakeAPI struct {
	collections map[string]*qdrant.VectorParams
	status      qdrant.CollectionStatus
	upserts     []*qdrant.UpsertPoints
	queries     []*qdrant.QueryPoints
	results     []*qdrant.ScoredPoint
	err         error
	closed      bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		collections: make(map[string]*qdrant.VectorParams),
		status:      qdrant.CollectionStatus_Green,
	}
}

func (f *fakeAPI) ListCollections(context.Context) ([]string, error) {
	var names []string
	for n := range f.collections {
		names = append(names, n)
	}
	return names, f.err
}

func (f *fakeAPI) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	if f.err != nil {
		return f.err
	}
	f.collections[req.GetCollectionName()] = req.GetVectorsConfig().GetParams()
	return nil
}

func (f *fakeAPI) GetCollectionInfo(_ context.Context, name string) (*qdrant.CollectionInfo, error) {
	params := f.collections[name]
	return &qdrant.CollectionInfo{
		Status: f.status,
		Config: &qdrant.CollectionConfig{
			Params: &qdrant.CollectionParams{VectorsConfig: qdrant.NewVectorsConfig(params)},
		},
	}, nil
}

func (f *fakeAPI) CollectionExists(_ context.Context, name string) (bool, error) {
	_, ok := f.collections[name]
	return ok, f.err
}

func (f *fakeAPI) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeAPI) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.results, f.err
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func TestCreateAndDescribe(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := newWithClient(api)

	_, err := s.DescribeIndex(ctx, "docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.CreateIndex(ctx, domain.IndexSpec{Name: "docs", Dimension: 1536, Metric: domain.MetricDotProduct}))
	assert.Equal(t, qdrant.Distance_Dot, api.collections["docs"].GetDistance())

	desc, err := s.DescribeIndex(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, desc.Ready)
	assert.Equal(t, 1536, desc.Dimension)
	assert.Equal(t, domain.MetricDotProduct, desc.Metric)

	api.status = qdrant.CollectionStatus_Grey
	desc, err = s.DescribeIndex(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, desc.Ready)

	names, err := s.ListIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)
}

func TestUpsert(t *testing.T) {
	api := newFakeAPI()
	s := newWithClient(api)

	require.NoError(t, s.Upsert(context.Background(), "docs", nil))
	assert.Empty(t, api.upserts)

	err := s.Upsert(context.Background(), "docs", []domain.VectorRecord{{
		ID:       "chunk-1",
		Text:     "Paris is the capital of France.",
		Vector:   []float32{0.1, 0.2},
		Metadata: map[string]any{domain.MetaSource: "https://example.com", domain.MetaPosition: 3, "nil": nil},
	}})
	require.NoError(t, err)
	require.Len(t, api.upserts, 1)

	req := api.upserts[0]
	assert.True(t, req.GetWait())
	require.Len(t, req.GetPoints(), 1)
	p := req.GetPoints()[0]
	assert.Equal(t, pointID("chunk-1"), p.GetId().GetUuid())
	assert.Equal(t, "Paris is the capital of France.", p.GetPayload()[domain.MetaText].GetStringValue())
	assert.Equal(t, "chunk-1", p.GetPayload()[payloadRecordID].GetStringValue())
	assert.Equal(t, int64(3), p.GetPayload()[domain.MetaPosition].GetIntegerValue())
	assert.NotContains(t, p.GetPayload(), "nil")
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := newWithClient(api)
	require.NoError(t, s.CreateIndex(ctx, domain.IndexSpec{Name: "docs", Dimension: 2}))

	api.results = []*qdrant.ScoredPoint{
		{
			Id:    qdrant.NewID(pointID("b")),
			Score: 0.5,
			Payload: qdrant.NewValueMap(map[string]any{
				domain.MetaText: "second", payloadRecordID: "b",
			}),
		},
		{
			Id:    qdrant.NewID(pointID("a")),
			Score: 0.9,
			Payload: qdrant.NewValueMap(map[string]any{
				domain.MetaText: "first", payloadRecordID: "a", domain.MetaSource: "https://example.com",
			}),
		},
	}

	matches, err := s.Query(ctx, "docs", []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "first", matches[0].Text)
	assert.Equal(t, "https://example.com", matches[0].Source())
	assert.NotContains(t, matches[0].Metadata, domain.MetaText)
	assert.Equal(t, uint64(4), api.queries[0].GetLimit())

	_, err = s.Query(ctx, "missing", []float32{1, 0}, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_EuclidDistanceRanksClosestFirst(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := newWithClient(api)
	require.NoError(t, s.CreateIndex(ctx, domain.IndexSpec{Name: "docs", Dimension: 2, Metric: domain.MetricEuclidean}))

	api.results = []*qdrant.ScoredPoint{
		{
			Id:      qdrant.NewID(pointID("closest")),
			Score:   0.01,
			Payload: qdrant.NewValueMap(map[string]any{domain.MetaText: "The capital of France is Paris.", payloadRecordID: "closest"}),
		},
		{
			Id:      qdrant.NewID(pointID("far")),
			Score:   4.0,
			Payload: qdrant.NewValueMap(map[string]any{domain.MetaText: "Bananas are yellow.", payloadRecordID: "far"}),
		},
	}

	matches, err := s.Query(ctx, "docs", []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "closest", matches[0].ID)
	assert.Equal(t, "far", matches[1].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
	assert.InDelta(t, 0.2, matches[1].Score, 1e-6)
}

func TestErrorsWrapped(t *testing.T) {
	api := newFakeAPI()
	api.err = errors.New("unavailable")
	s := newWithClient(api)

	_, err := s.ListIndexes(context.Background())
	assert.ErrorContains(t, err, "unavailable")
	assert.Error(t, s.CreateIndex(context.Background(), domain.IndexSpec{Name: "x", Dimension: 2}))
	assert.NoError(t, s.Close())
	assert.True(t, api.closed)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		in       string
		host     string
		port     int
		tls      bool
		hasError bool
	}{
		{in: "", host: DefaultHost, port: DefaultPort},
		{in: "qdrant.local", host: "qdrant.local", port: DefaultPort},
		{in: "qdrant.local:7000", host: "qdrant.local", port: 7000},
		{in: "https://abc.cloud.qdrant.io:6334", host: "abc.cloud.qdrant.io", port: 6334, tls: true},
		{in: "host:notaport", hasError: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg, err := parseConfig(Config{URL: tt.in})
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, cfg.Host)
			assert.Equal(t, tt.port, cfg.Port)
			assert.Equal(t, tt.tls, cfg.UseTLS)
		})
	}
}

func TestPointID(t *testing.T) {
	id := "0b8f7c6e-8f4e-4c43-9a39-5e1c4a6f8b21"
	assert.Equal(t, id, pointID(id))
	assert.Equal(t, pointID("x"), pointID("x"))
	assert.NotEqual(t, pointID("x"), pointID("y"))
}
