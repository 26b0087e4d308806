// Package app is the composition root: it turns resolved Settings into a
// wired pipeline for the driving adapters.
package app

import (
	"context"
	"path/filepath"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/ai"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/fetcher/web"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/services"
	"github.com/custodia-labs/pagewise/internal/postprocessors"
)

// PromptDir is the prompts directory inside the config directory.
const PromptDir = "prompts"

// Runtime holds everything one process needs to ingest and answer.
type Runtime struct {
	Settings    domain.Settings
	Services    *ai.Services
	Prompts     *file.PromptStore
	Provisioner *services.Provisioner
	Pipeline    *services.Pipeline
	Chat        *services.ChatService
}

// Build creates the adapters named by settings and wires the services.
// configDir holds the prompts directory; empty means ~/.pagewise.
func Build(ctx context.Context, settings domain.Settings, configDir string) (*Runtime, error) {
	svc, err := ai.Build(ctx, settings)
	if err != nil {
		return nil, err
	}

	rt, err := Wire(settings, svc, configDir)
	if err != nil {
		svc.Close()
		return nil, err
	}
	return rt, nil
}

// Wire assembles a Runtime from already-built adapters.
func Wire(settings domain.Settings, svc *ai.Services, configDir string) (*Runtime, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, domain.ConfigError(domain.StageConfig, "resolve config dir: %v", err)
		}
		configDir = dir
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, PromptDir))
	if err != nil {
		return nil, domain.ConfigError(domain.StageConfig, "prompt store: %v", err)
	}

	ch, err := postprocessors.FromSettings(settings.Chunk)
	if err != nil {
		return nil, err
	}

	fetcher := web.New(web.Config{
		Timeout:           settings.Fetch.Timeout,
		UserAgent:         settings.Fetch.UserAgent,
		RequestsPerSecond: settings.Fetch.RequestsPerSecond,
	})

	spec := settings.Index.Spec()
	prov := services.NewProvisioner(svc.Index, settings.Index.ReadyTimeout, settings.Index.PollInterval)
	ingestor := services.NewIngestor(fetcher, ch, prov, svc.Embedding, svc.Index, spec, settings.Embedding.BatchSize)
	retriever := services.NewRetriever(svc.Embedding, svc.Index, spec.Name)

	answerer := services.NewAnswerer(svc.LLM, prompts,
		services.WithTokenBudget(svc.Tokens, settings.Retrieval.MaxContextTokens),
		services.WithMaxTokens(settings.LLM.MaxTokens),
	)
	pipeline := services.NewPipeline(ingestor, retriever, answerer, settings.Retrieval.TopK)

	return &Runtime{
		Settings:    settings,
		Services:    svc,
		Prompts:     prompts,
		Provisioner: prov,
		Pipeline:    pipeline,
		Chat:        services.NewChatService(pipeline),
	}, nil
}

// EnsureIndex creates the configured index if needed and waits until it is ready.
func (r *Runtime) EnsureIndex(ctx context.Context) (*domain.IndexDescription, error) {
	return r.Provisioner.Ensure(ctx, r.Settings.Index.Spec())
}

// DescribeIndex reports the configured index's state.
func (r *Runtime) DescribeIndex(ctx context.Context) (*domain.IndexDescription, error) {
	desc, err := r.Services.Index.DescribeIndex(ctx, r.Settings.Index.Name)
	if err != nil {
		return nil, domain.AsStageError(domain.StageProvision, domain.ErrIndexProvisioning, err)
	}
	return desc, nil
}

// WatchPrompts reloads prompts on change until ctx is cancelled.
func (r *Runtime) WatchPrompts(ctx context.Context) error {
	return r.Prompts.Watch(ctx)
}

// Close releases the adapters.
func (r *Runtime) Close() {
	if r.Services != nil {
		r.Services.Close()
	}
}
