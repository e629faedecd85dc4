// Package domain defines the canonical service interfaces shared across the
// HTTP API, CLI, and client SDK. Consumers should depend on these interfaces
// rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/lexisearch/lexisearch/internal/models"
)

// DocumentStore is the persistence boundary for search documents.
type DocumentStore interface {
	LexicalSearch(ctx context.Context, country, queryText string, limit int) ([]models.CandidateRow, error)
	SemanticSearch(ctx context.Context, queryVector []float32, country string, limit int) ([]models.CandidateRow, error)
	Upsert(ctx context.Context, docs []models.Document) (indexed, skipped int, err error)
	Delete(ctx context.Context, ids []string) error
	EnsureSchema(ctx context.Context) error
}

// Embedder turns text into a unit-norm vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// MirrorAdapter fans index writes out to an external search engine.
type MirrorAdapter interface {
	Name() string
	Upsert(ctx context.Context, docs []models.Document) error
	Delete(ctx context.Context, ids []string) error
	Flush(ctx context.Context) error
}

// SearchService defines the end-to-end search operation: normalize, cache
// lookup, retrieve, fuse.
type SearchService interface {
	Search(ctx context.Context, raw models.RawQuery) (models.SearchResult, error)
}

// IndexService defines document ingestion and removal.
type IndexService interface {
	Upsert(ctx context.Context, docs []models.Document) (indexed, skipped int, err error)
	Delete(ctx context.Context, ids []string) error
}

// EvaluatorService runs gold-query suites against the live search path.
type EvaluatorService interface {
	Evaluate(ctx context.Context, goldQueries []models.GoldQuery) (models.EvalSummary, error)
}
