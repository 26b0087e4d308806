package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/pagewise/internal/core/domain"
)

func TestProvisioner_Ensure_CreatesMissingIndex(t *testing.T) {
	store := memory.New()
	p := NewProvisioner(store, time.Second, time.Millisecond)

	desc, err := p.Ensure(context.Background(), testSpec)

	require.NoError(t, err)
	assert.True(t, desc.Ready)
	assert.Equal(t, testDim, desc.Dimension)
	assert.Equal(t, 1, store.CreateCount())
}

func TestProvisioner_Ensure_Idempotent(t *testing.T) {
	store := memory.New()
	p := NewProvisioner(store, time.Second, time.Millisecond)

	_, err := p.Ensure(context.Background(), testSpec)
	require.NoError(t, err)
	require.Equal(t, 1, store.CreateCount())

	_, err = p.Ensure(context.Background(), testSpec)
	require.NoError(t, err)
	assert.Equal(t, 1, store.CreateCount(), "second ensure must not create")
}

func TestProvisioner_Ensure_WaitsForReady(t *testing.T) {
	store := memory.New(memory.WithReadyAfter(3))
	p := NewProvisioner(store, time.Second, time.Millisecond)

	desc, err := p.Ensure(context.Background(), testSpec)

	require.NoError(t, err)
	assert.True(t, desc.Ready)
}

func TestProvisioner_Ensure_TimesOut(t *testing.T) {
	store := memory.New(memory.WithReadyAfter(1 << 30))
	p := NewProvisioner(store, 30*time.Millisecond, 5*time.Millisecond)

	_, err := p.Ensure(context.Background(), testSpec)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexProvisioning)
	assert.ErrorIs(t, err, domain.ErrReadyTimeout)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageProvision, stage)
}

func TestProvisioner_Ensure_DimensionMismatch(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.CreateIndex(context.Background(), domain.IndexSpec{
		Name: testSpec.Name, Dimension: 8, Metric: domain.MetricCosine,
	}))
	p := NewProvisioner(store, time.Second, time.Millisecond)

	_, err := p.Ensure(context.Background(), testSpec)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NotErrorIs(t, err, domain.ErrIndexProvisioning)
	assert.Equal(t, 1, store.CreateCount())
}

func TestProvisioner_Ensure_MetricMismatch(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.CreateIndex(context.Background(), domain.IndexSpec{
		Name: testSpec.Name, Dimension: testDim, Metric: domain.MetricEuclidean,
	}))
	p := NewProvisioner(store, time.Second, time.Millisecond)

	_, err := p.Ensure(context.Background(), testSpec)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProvisioner_Ensure_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		store *failingStore
		kind  error
	}{
		{"list fails", &failingStore{Store: memory.New(), listErr: boom}, domain.ErrIndexProvisioning},
		{"create fails", &failingStore{Store: memory.New(), createErr: boom}, domain.ErrIndexProvisioning},
		{"describe fails", &failingStore{Store: memory.New(), describeErr: boom}, domain.ErrIndexProvisioning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvisioner(tt.store, time.Second, time.Millisecond)
			_, err := p.Ensure(context.Background(), testSpec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestProvisioner_Ensure_LostCreateRace(t *testing.T) {
	inner := memory.New()
	require.NoError(t, inner.CreateIndex(context.Background(), testSpec))
	racy := &racyList{&failingStore{Store: inner, createErr: domain.ErrInvalidInput}}
	p := NewProvisioner(racy, time.Second, time.Millisecond)

	desc, err := p.Ensure(context.Background(), testSpec)

	require.NoError(t, err)
	assert.Equal(t, testSpec.Name, desc.Name)
}

// racyList hides existing indexes from ListIndexes.
type racyList struct {
	*failingStore
}

func (r *racyList) ListIndexes(context.Context) ([]string, error) { return nil, nil }

func TestProvisioner_Ensure_InvalidSpec(t *testing.T) {
	p := NewProvisioner(memory.New(), time.Second, time.Millisecond)

	_, err := p.Ensure(context.Background(), domain.IndexSpec{Dimension: 4})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = p.Ensure(context.Background(), domain.IndexSpec{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProvisioner_Ensure_Cancelled(t *testing.T) {
	store := memory.New(memory.WithReadyAfter(1 << 30))
	p := NewProvisioner(store, time.Minute, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Ensure(ctx, testSpec)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexProvisioning)
}

func TestNewProvisioner_Defaults(t *testing.T) {
	p := NewProvisioner(memory.New(), 0, -1)
	assert.Equal(t, domain.DefaultReadyTimeout, p.readyTimeout)
	assert.Equal(t, domain.DefaultPollInterval, p.pollInterval)
}
