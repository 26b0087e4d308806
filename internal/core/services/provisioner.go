package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// errNotReady marks a poll that should be retried.
var errNotReady = errors.New("index not ready")

// Provisioner makes sure the target index exists, is ready and matches the
// configured dimension and metric.
type Provisioner struct {
	indexes      driven.IndexManager
	readyTimeout time.Duration
	pollInterval time.Duration
}

// NewProvisioner creates a provisioner. Non-positive durations fall back to
// the defaults.
func NewProvisioner(indexes driven.IndexManager, readyTimeout, pollInterval time.Duration) *Provisioner {
	if readyTimeout <= 0 {
		readyTimeout = domain.DefaultReadyTimeout
	}
	if pollInterval <= 0 {
		pollInterval = domain.DefaultPollInterval
	}
	return &Provisioner{
		indexes:      indexes,
		readyTimeout: readyTimeout,
		pollInterval: pollInterval,
	}
}

// Ensure creates spec.Name if it does not exist and waits until it is ready.
// Calling it for an existing compatible index only checks readiness.
func (p *Provisioner) Ensure(ctx context.Context, spec domain.IndexSpec) (*domain.IndexDescription, error) {
	if spec.Name == "" {
		return nil, domain.ConfigError(domain.StageProvision, "index name is empty")
	}
	if spec.Dimension <= 0 {
		return nil, domain.ConfigError(domain.StageProvision, "index dimension must be positive, got %d", spec.Dimension)
	}

	names, err := p.indexes.ListIndexes(ctx)
	if err != nil {
		return nil, domain.NewStageError(domain.StageProvision, domain.ErrIndexProvisioning,
			fmt.Errorf("list indexes: %w", err))
	}

	created := false
	if !slices.Contains(names, spec.Name) {
		logger.Info("Index '%s' not found. Creating it...", spec.Name)
		if err := p.indexes.CreateIndex(ctx, spec); err != nil {
			// Lost a creation race; the describe below settles compatibility.
			if !errors.Is(err, domain.ErrInvalidInput) {
				return nil, domain.NewStageError(domain.StageProvision, domain.ErrIndexProvisioning,
					fmt.Errorf("create index %s: %w", spec.Name, err))
			}
			logger.Debug("index %s already exists", spec.Name)
		} else {
			created = true
		}
	}

	desc, err := p.waitReady(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Index '%s' created successfully.", spec.Name)
	}

	if !desc.Compatible(spec) {
		return nil, domain.ConfigError(domain.StageProvision,
			"index %s has dimension %d and metric %s, want dimension %d and metric %s",
			spec.Name, desc.Dimension, desc.Metric, spec.Dimension, spec.Metric)
	}
	return desc, nil
}

// waitReady polls DescribeIndex at a constant interval until the index
// reports ready or the timeout elapses.
func (p *Provisioner) waitReady(ctx context.Context, name string) (*domain.IndexDescription, error) {
	backoff := retry.WithMaxDuration(p.readyTimeout, retry.NewConstant(p.pollInterval))

	var desc *domain.IndexDescription
	polls := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		polls++
		d, err := p.indexes.DescribeIndex(ctx, name)
		if err != nil {
			// Freshly created indexes can take a moment to become visible.
			if errors.Is(err, domain.ErrNotFound) {
				return retry.RetryableError(errNotReady)
			}
			return err
		}
		if !d.Ready {
			logger.Debug("index %s not ready (state %q), poll %d", name, d.State, polls)
			return retry.RetryableError(errNotReady)
		}
		desc = d
		return nil
	})

	switch {
	case err == nil:
		return desc, nil
	case errors.Is(err, errNotReady):
		return nil, domain.NewStageError(domain.StageProvision, domain.ErrIndexProvisioning,
			fmt.Errorf("%w: %s after %s", domain.ErrReadyTimeout, name, p.readyTimeout))
	default:
		return nil, domain.NewStageError(domain.StageProvision, domain.ErrIndexProvisioning,
			fmt.Errorf("describe index %s: %w", name, err))
	}
}
