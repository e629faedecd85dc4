package indexer_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/indexer"
	"github.com/lexisearch/lexisearch/internal/models"
)

type fakeStore struct {
	mu         sync.Mutex
	upserted   []models.Document
	deletedIDs []string
	upsertErr  error
	deleteErr  error
}

func (s *fakeStore) LexicalSearch(context.Context, string, string, int) ([]models.CandidateRow, error) {
	return nil, nil
}

func (s *fakeStore) SemanticSearch(context.Context, []float32, string, int) ([]models.CandidateRow, error) {
	return nil, nil
}

func (s *fakeStore) Upsert(_ context.Context, docs []models.Document) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return 0, len(docs), s.upsertErr
	}

	s.upserted = append(s.upserted, docs...)

	return len(docs), 0, nil
}

func (s *fakeStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.deletedIDs = append(s.deletedIDs, ids...)

	return nil
}

func (s *fakeStore) EnsureSchema(context.Context) error { return nil }

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}

	return e.vec, nil
}

func (e *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vec
	}

	return out, nil
}

type fakeMirror struct {
	name      string
	mu        sync.Mutex
	upserted  int
	deleted   int
	upsertErr error
}

func (m *fakeMirror) Name() string { return m.name }

func (m *fakeMirror) Upsert(_ context.Context, docs []models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upserted += len(docs)

	return m.upsertErr
}

func (m *fakeMirror) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted += len(ids)

	return nil
}

func (m *fakeMirror) Flush(context.Context) error { return nil }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestUpsert_BackfillsMissingEmbeddings(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	ix := indexer.New(store, embedder, nil, testLogger())

	docs := []models.Document{
		{ID: "has-embedding", Title: "a", Embedding: []float32{0, 1, 0}},
		{ID: "needs-embedding", Title: "b", Body: "c"},
	}

	indexed, skipped, err := ix.Upsert(context.Background(), docs)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if indexed != 2 || skipped != 0 {
		t.Fatalf("Upsert = (%d, %d), want (2, 0)", indexed, skipped)
	}

	if store.upserted[0].Embedding[1] != 1 {
		t.Errorf("expected pre-existing embedding left untouched")
	}

	if store.upserted[1].Embedding == nil {
		t.Errorf("expected missing embedding to be backfilled")
	}
}

func TestUpsert_EmbedderFailureRetainsDocumentWithoutEmbedding(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	ix := indexer.New(store, embedder, nil, testLogger())

	docs := []models.Document{{ID: "doc-1", Title: "a", Body: "b"}}

	indexed, _, err := ix.Upsert(context.Background(), docs)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if indexed != 1 {
		t.Fatalf("Upsert indexed = %d, want 1", indexed)
	}

	if store.upserted[0].Embedding != nil {
		t.Errorf("expected document indexed without an embedding")
	}
}

func TestUpsert_NoStoreConfiguredSkipsAll(t *testing.T) {
	ix := indexer.New(nil, nil, nil, testLogger())

	indexed, skipped, err := ix.Upsert(context.Background(), []models.Document{{ID: "doc-1"}, {ID: "doc-2"}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if indexed != 0 || skipped != 2 {
		t.Fatalf("Upsert = (%d, %d), want (0, 2)", indexed, skipped)
	}
}

func TestUpsert_FansOutToMirrorsAndSurvivesMirrorFailure(t *testing.T) {
	store := &fakeStore{}
	ok := &fakeMirror{name: "meilisearch"}
	failing := &fakeMirror{name: "typesense", upsertErr: errors.New("mirror unreachable")}
	ix := indexer.New(store, nil, []domain.MirrorAdapter{ok, failing}, testLogger())

	indexed, _, err := ix.Upsert(context.Background(), []models.Document{{ID: "doc-1"}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if indexed != 1 {
		t.Fatalf("indexed = %d, want 1", indexed)
	}

	if ok.upserted != 1 {
		t.Errorf("expected healthy mirror to receive the batch, got %d", ok.upserted)
	}

	if failing.upserted != 1 {
		t.Errorf("expected failing mirror to still be invoked, got %d", failing.upserted)
	}
}

func TestDelete_EmptyIDListIsNoOp(t *testing.T) {
	store := &fakeStore{}
	ix := indexer.New(store, nil, nil, testLogger())

	if err := ix.Delete(context.Background(), nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(store.deletedIDs) != 0 {
		t.Errorf("expected no deletion for an empty id list")
	}
}

func TestRunDelta_DeletesBeforeUpserting(t *testing.T) {
	store := &fakeStore{}
	ix := indexer.New(store, nil, nil, testLogger())

	err := ix.RunDelta(context.Background(), models.DeltaBatch{
		Documents: []models.Document{{ID: "doc-1"}},
		Deletions: []string{"doc-0"},
	})
	if err != nil {
		t.Fatalf("RunDelta: %v", err)
	}

	if len(store.deletedIDs) != 1 || store.deletedIDs[0] != "doc-0" {
		t.Errorf("expected doc-0 deleted, got %v", store.deletedIDs)
	}

	if len(store.upserted) != 1 || store.upserted[0].ID != "doc-1" {
		t.Errorf("expected doc-1 upserted, got %v", store.upserted)
	}
}
