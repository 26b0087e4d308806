package services

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/postprocessors/chunker"
)

const testDim = 64

var testSpec = domain.IndexSpec{
	Name:      "test-index",
	Dimension: testDim,
	Metric:    domain.MetricCosine,
	Cloud:     domain.DefaultCloud,
	Region:    domain.DefaultRegion,
}

// --- Embedder ---

// bagOfWords hashes lowercase words into a fixed number of buckets so that
// texts sharing words have high cosine similarity.
type bagOfWords struct {
	dim     int
	mu      sync.Mutex
	calls   int
	batches [][]string
	err     error
}

func newBagOfWords() *bagOfWords { return &bagOfWords{dim: testDim} }

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (b *bagOfWords) vector(text string) []float32 {
	v := make([]float32, b.dim)
	for _, w := range words(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(b.dim)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
	}
	return v
}

func (b *bagOfWords) Embed(_ context.Context, text string) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.vector(text), nil
}

func (b *bagOfWords) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.batches = append(b.batches, texts)
	if b.err != nil {
		return nil, b.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = b.vector(t)
	}
	return out, nil
}

func (b *bagOfWords) Dimensions() int            { return b.dim }
func (b *bagOfWords) ModelName() string          { return "bag-of-words" }
func (b *bagOfWords) Ping(context.Context) error { return nil }
func (b *bagOfWords) Close() error               { return nil }

// --- LLM ---

// echoLLM answers with the sentence of the system prompt's context that
// shares the most words with the question.
type echoLLM struct {
	mu       sync.Mutex
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	reply    string
	err      error
}

func (e *echoLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return e.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{})
}

func (e *echoLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.messages = messages
	e.opts = opts
	if e.err != nil {
		return "", e.err
	}
	if e.reply != "" {
		return e.reply, nil
	}

	var system, question string
	for _, m := range messages {
		switch m.Role {
		case driven.RoleSystem:
			system = m.Content
		case driven.RoleUser:
			question = m.Content
		}
	}
	qwords := make(map[string]bool)
	for _, w := range words(question) {
		qwords[w] = true
	}

	best, bestScore := domain.DontKnowAnswer, 0
	for _, sentence := range strings.SplitAfter(system, ".") {
		score := 0
		for _, w := range words(sentence) {
			if qwords[w] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = strings.TrimSpace(sentence), score
		}
	}
	return " " + best + "\n", nil
}

func (e *echoLLM) ModelName() string          { return "echo" }
func (e *echoLLM) Ping(context.Context) error { return nil }
func (e *echoLLM) Close() error               { return nil }

func (e *echoLLM) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// --- Prompts ---

type staticPrompts struct {
	prompts map[string]string
	err     error
}

func newStaticPrompts() *staticPrompts {
	return &staticPrompts{prompts: map[string]string{
		driven.PromptAnswerSystem: "Use only this context. Say you don't know otherwise. Three sentences maximum.\n\n%s",
	}}
}

func (p *staticPrompts) Load(name string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	s, ok := p.prompts[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return s, nil
}

func (p *staticPrompts) Reload() {}

// --- Fetcher ---

type stubFetcher struct {
	pages map[string]domain.Document
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*domain.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.pages[url]
	if !ok {
		return nil, errors.New("unexpected status 404")
	}
	doc.URL = url
	doc.FetchedAt = time.Now()
	return &doc, nil
}

// --- Tokens ---

// wordTokens treats each whitespace-separated word as one token.
type wordTokens struct{}

func (wordTokens) Count(text string) (int, error) { return len(strings.Fields(text)), nil }

func (wordTokens) Truncate(text string, max int) (string, error) {
	f := strings.Fields(text)
	if len(f) <= max {
		return text, nil
	}
	return strings.Join(f[:max], " "), nil
}

// --- Index wrappers ---

// failingStore injects errors into selected calls.
type failingStore struct {
	*memory.Store
	listErr, createErr, describeErr, upsertErr, queryErr error
}

func (f *failingStore) ListIndexes(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListIndexes(ctx)
}

func (f *failingStore) CreateIndex(ctx context.Context, spec domain.IndexSpec) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Store.CreateIndex(ctx, spec)
}

func (f *failingStore) DescribeIndex(ctx context.Context, name string) (*domain.IndexDescription, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.Store.DescribeIndex(ctx, name)
}

func (f *failingStore) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Store.Upsert(ctx, name, records)
}

func (f *failingStore) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.Store.Query(ctx, name, vector, k)
}

// --- Harness ---

type harness struct {
	store    *memory.Store
	embedder *bagOfWords
	llm      *echoLLM
	fetcher  *stubFetcher
	pipeline *Pipeline
}

func newHarness(opts ...memory.Option) *harness {
	h := &harness{
		store:    memory.New(opts...),
		embedder: newBagOfWords(),
		llm:      &echoLLM{},
		fetcher:  &stubFetcher{pages: map[string]domain.Document{}},
	}
	ch, err := chunker.New()
	if err != nil {
		panic(err)
	}
	prov := NewProvisioner(h.store, time.Second, time.Millisecond)
	ing := NewIngestor(h.fetcher, ch, prov, h.embedder, h.store, testSpec, 0)
	ret := NewRetriever(h.embedder, h.store, testSpec.Name)
	ans := NewAnswerer(h.llm, newStaticPrompts())
	h.pipeline = NewPipeline(ing, ret, ans, 0)
	return h
}

func (h *harness) addPage(url, title, content string) {
	h.fetcher.pages[url] = domain.Document{Title: title, Content: content}
}
