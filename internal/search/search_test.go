package search_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/cache"
	"github.com/lexisearch/lexisearch/internal/fusion"
	"github.com/lexisearch/lexisearch/internal/models"
	"github.com/lexisearch/lexisearch/internal/retriever"
	"github.com/lexisearch/lexisearch/internal/search"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

type fakeStore struct {
	lexical  []models.CandidateRow
	semantic []models.CandidateRow
}

func (f *fakeStore) LexicalSearch(_ context.Context, _, _ string, _ int) ([]models.CandidateRow, error) {
	return f.lexical, nil
}

func (f *fakeStore) SemanticSearch(_ context.Context, _ []float32, _ string, _ int) ([]models.CandidateRow, error) {
	return f.semantic, nil
}

func (f *fakeStore) Upsert(_ context.Context, _ []models.Document) (int, int, error) { return 0, 0, nil }
func (f *fakeStore) Delete(_ context.Context, _ []string) error                       { return nil }
func (f *fakeStore) EnsureSchema(_ context.Context) error                             { return nil }

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}

	return out, nil
}

func newService(t *testing.T, cacheStore cache.Store) *search.Service {
	t.Helper()

	store := &fakeStore{
		lexical: []models.CandidateRow{{Document: models.Document{ID: "doc-1", Country: "us"}, ScoreRaw: 1.0}},
	}
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2}}

	r := retriever.New(store, embedder, testLogger(), 50)

	return search.New(r, cacheStore, fusion.DefaultWeights, search.Defaults{K: 10}, 60_000, testLogger())
}

func TestSearch_NoCacheReturnsFreshResult(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)

	result, err := svc.Search(context.Background(), models.RawQuery{Text: "climate policy", Country: "us"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Cached {
		t.Fatal("expected Cached=false with no cache store configured")
	}

	if len(result.Results) != 1 || result.Results[0].ID != "doc-1" {
		t.Fatalf("unexpected results: %+v", result.Results)
	}
}

func TestSearch_CacheMissThenHit(t *testing.T) {
	t.Parallel()

	cacheStore, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := newService(t, cacheStore)
	raw := models.RawQuery{Text: "climate policy", Country: "us"}

	first, err := svc.Search(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Cached {
		t.Fatal("expected first call to be a cache miss")
	}

	second, err := svc.Search(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !second.Cached {
		t.Fatal("expected second identical call to be a cache hit")
	}

	if len(second.Results) != len(first.Results) {
		t.Fatalf("cached result shape mismatch: %+v vs %+v", first.Results, second.Results)
	}
}

func TestSearch_DegradedWhenEmbeddingFails(t *testing.T) {
	t.Parallel()

	store := &fakeStore{lexical: []models.CandidateRow{{Document: models.Document{ID: "doc-1", Country: "us"}, ScoreRaw: 1.0}}}
	embedder := &fakeEmbedder{err: errors.New("embedding endpoint unreachable")}
	r := retriever.New(store, embedder, testLogger(), 50)
	svc := search.New(r, nil, fusion.DefaultWeights, search.Defaults{K: 10}, 60_000, testLogger())

	result, err := svc.Search(context.Background(), models.RawQuery{Text: "climate policy", Country: "us"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Degraded {
		t.Fatal("expected Degraded=true when the embedder fails")
	}
}

func TestSearch_InvalidQueryPropagatesError(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)

	_, err := svc.Search(context.Background(), models.RawQuery{Text: "", Country: "us"})
	if !errors.Is(err, models.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}
