package store_test

import (
	"context"
	"testing"

	"github.com/lexisearch/lexisearch/internal/models"
)

func TestLexicalSearch(t *testing.T) {
	ds, country := newDocumentStore(t, 0)
	ctx := context.Background()

	docs := []models.Document{
		{ID: "doc-1", Title: "Quantum photosynthesis research", Country: country},
		{ID: "doc-2", Title: "Quantum entanglement experiment", Country: country},
		{ID: "doc-3", Title: "Classical music composition", Country: country},
	}

	if _, _, err := ds.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := ds.LexicalSearch(ctx, country, "quantum", 10)
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("LexicalSearch(quantum) = %d results, want 2", len(results))
	}

	results, err = ds.LexicalSearch(ctx, country, "classical", 10)
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}

	if len(results) != 1 {
		t.Errorf("LexicalSearch(classical) = %d results, want 1", len(results))
	}

	results, err = ds.LexicalSearch(ctx, "zz-other-country", "quantum", 10)
	if err != nil {
		t.Fatalf("LexicalSearch with unrelated country: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("LexicalSearch with unrelated country = %d results, want 0", len(results))
	}
}

func TestLexicalSearch_EmptyTokenQueryReturnsEmptyNotError(t *testing.T) {
	ds, country := newDocumentStore(t, 0)
	ctx := context.Background()

	results, err := ds.LexicalSearch(ctx, country, "   ", 10)
	if err != nil {
		t.Fatalf("expected no error for an empty-token query, got %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected empty result for an empty-token query, got %d", len(results))
	}
}

func TestSemanticSearch_DimensionMismatchReturnsEmpty(t *testing.T) {
	ds, country := newDocumentStore(t, 1536)
	ctx := context.Background()

	results, err := ds.SemanticSearch(ctx, make([]float32, 8), country, 10)
	if err != nil {
		t.Fatalf("expected no error for a dimension-mismatched vector, got %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected empty result for a dimension-mismatched vector, got %d", len(results))
	}
}

func TestSemanticSearch_ReturnsClampedCosineSimilarity(t *testing.T) {
	ds, country := newDocumentStore(t, 3)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	docs := []models.Document{
		{ID: "doc-vec-1", Title: "a", Country: country, Embedding: []float32{1, 0, 0}},
	}

	if _, _, err := ds.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := ds.SemanticSearch(ctx, vec, country, 10)
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].ScoreVector < 0 || results[0].ScoreVector > 1 {
		t.Errorf("ScoreVector = %v, want clamped to [0,1]", results[0].ScoreVector)
	}
}

func TestUpsert_EmbeddingCoalesceNeverClobbers(t *testing.T) {
	ds, country := newDocumentStore(t, 3)
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}

	if _, _, err := ds.Upsert(ctx, []models.Document{
		{ID: "doc-coalesce", Title: "v1", Country: country, Embedding: vec},
	}); err != nil {
		t.Fatalf("initial Upsert: %v", err)
	}

	if _, _, err := ds.Upsert(ctx, []models.Document{
		{ID: "doc-coalesce", Title: "v2", Country: country},
	}); err != nil {
		t.Fatalf("follow-up Upsert without embedding: %v", err)
	}

	results, err := ds.SemanticSearch(ctx, vec, country, 10)
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}

	if len(results) != 1 || results[0].Title != "v2" {
		t.Fatalf("expected the updated title with the original embedding intact, got %+v", results)
	}
}

func TestDelete_RemovesDocuments(t *testing.T) {
	ds, country := newDocumentStore(t, 0)
	ctx := context.Background()

	if _, _, err := ds.Upsert(ctx, []models.Document{
		{ID: "doc-del", Title: "to remove", Country: country},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := ds.Delete(ctx, []string{"doc-del"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := ds.LexicalSearch(ctx, country, "remove", 10)
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected deleted document to be absent, got %d results", len(results))
	}
}

func TestDelete_EmptyIDListIsNoOp(t *testing.T) {
	ds, _ := newDocumentStore(t, 0)

	if err := ds.Delete(context.Background(), nil); err != nil {
		t.Fatalf("Delete with empty id list should be a no-op, got %v", err)
	}
}
