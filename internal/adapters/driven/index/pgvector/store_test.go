package pgvector

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

const describeSQL = "SELECT dimension, metric FROM pagewise_indexes WHERE name = $1"

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return &Store{pool: mock}, mock
}

func expectDescribe(mock pgxmock.PgxPoolIface, name string, dim int, metric string) {
	mock.ExpectQuery(regexp.QuoteMeta(describeSQL)).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"dimension", "metric"}).AddRow(dim, metric))
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS pagewise_indexes")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.ensureSchema(context.Background()))
}

func TestCreateIndex(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pagewise_indexes")).
		WithArgs("docs", 3, "cosine").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "pagewise_docs"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	err := s.CreateIndex(context.Background(), domain.IndexSpec{Name: "docs", Dimension: 3, Metric: domain.MetricCosine})
	require.NoError(t, err)
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pagewise_indexes")).
		WithArgs("docs", 3, "cosine").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectRollback()

	err := s.CreateIndex(context.Background(), domain.IndexSpec{Name: "docs", Dimension: 3, Metric: domain.MetricCosine})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDescribeIndex(t *testing.T) {
	s, mock := newMockStore(t)
	expectDescribe(mock, "docs", 1536, "dotproduct")
	mock.ExpectQuery(regexp.QuoteMeta(describeSQL)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	desc, err := s.DescribeIndex(context.Background(), "docs")
	require.NoError(t, err)
	assert.True(t, desc.Ready)
	assert.Equal(t, 1536, desc.Dimension)
	assert.Equal(t, domain.MetricDotProduct, desc.Metric)

	_, err = s.DescribeIndex(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListIndexes(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM pagewise_indexes ORDER BY name")).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))

	names, err := s.ListIndexes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestUpsert(t *testing.T) {
	s, mock := newMockStore(t)
	expectDescribe(mock, "docs", 2, "cosine")
	mock.ExpectBegin()
	for _, id := range []string{"a", "b"} {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "pagewise_docs"`)).
			WithArgs(id, pgxmock.AnyArg(), "text "+id, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err := s.Upsert(context.Background(), "docs", []domain.VectorRecord{
		{ID: "a", Text: "text a", Vector: []float32{1, 0}, Metadata: map[string]any{domain.MetaSource: "u"}},
		{ID: "b", Text: "text b", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	s, mock := newMockStore(t)
	expectDescribe(mock, "docs", 3, "cosine")

	err := s.Upsert(context.Background(), "docs", []domain.VectorRecord{{ID: "a", Vector: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery(t *testing.T) {
	s, mock := newMockStore(t)
	expectDescribe(mock, "docs", 2, "cosine")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, content, metadata, 1 - (embedding <=> $1) AS score FROM "pagewise_docs"`)).
		WithArgs(pgxmock.AnyArg(), 4).
		WillReturnRows(pgxmock.NewRows([]string{"id", "content", "metadata", "score"}).
			AddRow("a", "Paris is the capital.", []byte(`{"source":"https://example.com"}`), 0.93).
			AddRow("b", "Seine.", []byte(nil), 0.41))

	matches, err := s.Query(context.Background(), "docs", []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "https://example.com", matches[0].Source())
	assert.InDelta(t, 0.93, matches[0].Score, 1e-9)
	assert.Nil(t, matches[1].Metadata)
}

func TestQuery_UnknownIndex(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(describeSQL)).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := s.Query(context.Background(), "missing", []float32{1}, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDistanceSQL(t *testing.T) {
	score, order := distanceSQL(domain.MetricEuclidean)
	assert.Contains(t, score, "<->")
	assert.Equal(t, "embedding <-> $1", order)

	score, _ = distanceSQL(domain.MetricDotProduct)
	assert.Contains(t, score, "<#>")

	_, order = distanceSQL(domain.MetricCosine)
	assert.Equal(t, "embedding <=> $1", order)
}

func TestTableIdent(t *testing.T) {
	assert.Equal(t, `"pagewise_docs"`, tableIdent("docs"))
	assert.Equal(t, `"pagewise_a""b"`, tableIdent(`a"b`))
}
