package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

// fakeEmbedder maps each text to a deterministic 3-dimensional vector.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	texts     []string
	err       error
	dropLast  bool
	vectorFor func(string) []float32
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if f.vectorFor != nil {
		return f.vectorFor(text)
	}
	return []float32{float32(len(text)), 1, float32(strings.Count(text, " "))}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	if f.dropLast {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 3 }
func (f *fakeEmbedder) ModelName() string          { return "fake" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingIndex records Upsert batch sizes before delegating.
type countingIndex struct {
	driven.VectorIndex
	mu      sync.Mutex
	upserts []int
	queries []int
}

func (c *countingIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	c.mu.Lock()
	c.upserts = append(c.upserts, len(records))
	c.mu.Unlock()
	return c.VectorIndex.Upsert(ctx, records)
}

func (c *countingIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	c.mu.Lock()
	c.queries = append(c.queries, k)
	c.mu.Unlock()
	return c.VectorIndex.Query(ctx, vector, k)
}

// fakeSearch returns canned results, or an error for queries in failFor.
type fakeSearch struct {
	results []domain.SearchResult
	failFor map[string]error
	mu      sync.Mutex
	limits  []int
}

var _ driving.SearchService = (*fakeSearch)(nil)

func (f *fakeSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	f.mu.Lock()
	f.limits = append(f.limits, opts.Limit)
	f.mu.Unlock()
	if err, ok := f.failFor[query]; ok {
		return nil, err
	}
	return f.results, nil
}

func (f *fakeSearch) Count(context.Context) (int, error) { return len(f.results), nil }

// fakeLLM answers from a query-keyed table and records the prompts it saw.
type fakeLLM struct {
	answers map[string]string
	err     error
	mu      sync.Mutex
	seen    [][]driven.ChatMessage
	opts    []driven.ChatOptions
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.mu.Lock()
	f.seen = append(f.seen, messages)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	user := messages[len(messages)-1].Content
	for q, a := range f.answers {
		if strings.HasSuffix(user, q) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: no canned answer", domain.ErrExternalService)
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	if s, ok := p[name]; ok {
		return s, nil
	}
	return "", domain.ErrNotFound
}

func (p fakePrompts) Reload() {}

func testPrompts() fakePrompts {
	return fakePrompts{
		driven.PromptAnswerSystem: "system %s",
		driven.PromptAnswerUser:   "LEGAL SOURCES:%s\nQUESTION: %s",
	}
}
