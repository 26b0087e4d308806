package cli

import (
	"bytes"
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/ai"
	memoryindex "github.com/custodia-labs/pagewise/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/pagewise/internal/app"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/core/services"
)

// hashEmbedder buckets words so texts that share words are similar.
type hashEmbedder struct{ dim int }

func (e hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		v[h.Sum32()%uint32(e.dim)]++
	}
	return v, nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e hashEmbedder) Dimensions() int              { return e.dim }
func (e hashEmbedder) ModelName() string            { return "hash" }
func (e hashEmbedder) Ping(_ context.Context) error { return nil }
func (e hashEmbedder) Close() error                 { return nil }

// stubLLM always gives the same reply.
type stubLLM struct{}

func (stubLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "stub answer", nil
}

func (stubLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "Paris is the capital of France.", nil
}

func (stubLLM) ModelName() string            { return "stub" }
func (stubLLM) Ping(_ context.Context) error { return nil }
func (stubLLM) Close() error                 { return nil }

const testIndex = "test-index"

// setupTestRuntime points every command at an in-memory index shared across
// invocations, with offline embedding and LLM fakes.
func setupTestRuntime(t *testing.T) *memoryindex.Store {
	t.Helper()

	t.Setenv(services.EnvIndexProvider, string(domain.IndexProviderMemory))
	t.Setenv(services.EnvOpenAIAPIKey, "sk-test")
	t.Setenv(services.EnvPineconeIndex, testIndex)

	store := memoryindex.New()
	original := buildRuntime
	buildRuntime = func(_ context.Context, settings domain.Settings, dir string) (*app.Runtime, error) {
		svc := &ai.Services{
			Index:     store,
			Embedding: hashEmbedder{dim: settings.Index.Dimension},
			LLM:       stubLLM{},
		}
		return app.Wire(settings, svc, dir)
	}
	t.Cleanup(func() { buildRuntime = original })
	return store
}

// runCLI executes the root command with a temporary config directory.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	// Cobra keeps flag values between executions.
	verbose, ingestFile, ingestJSON = false, "", false
	askJSON, askURL, askContext = false, "", false
	chatURL = ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--config-dir", dir, "--env-file", ""}, args...))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
