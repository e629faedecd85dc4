package store

import (
	"fmt"
	"regexp"

	"context"

	"github.com/lexisearch/lexisearch/internal/models"
)

// documentColumns lists the columns returned by every search query, in the
// order scanDocument expects them.
const documentColumns = `id, title, body, url, domain, tags, lang, country,
	published_at, updated_at, authority_score`

// DocumentStore implements domain.DocumentStore over a pooled Postgres
// connection with a pgvector-backed embedding column.
type DocumentStore struct {
	Base
	embeddingDimensions int
}

// NewDocumentStore creates a DocumentStore. embeddingDimensions is the
// configured vector width; semantic queries whose input vector doesn't
// match it are rejected before being sent to Postgres.
func NewDocumentStore(base Base, embeddingDimensions int) *DocumentStore {
	return &DocumentStore{Base: base, embeddingDimensions: embeddingDimensions}
}

// hasLexeme matches the word characters the "simple" tsquery dictionary
// tokenizes on; an input with none of these produces an empty tsquery.
var hasLexeme = regexp.MustCompile(`\w`)

// LexicalSearch ranks documents by weighted full-text relevance
// (title=A, body=B, tags=C) using the generated tsv column and ts_rank_cd.
// Only documents matching country are returned, ordered by score_raw
// descending, ties broken by updated_at descending then id ascending.
func (s *DocumentStore) LexicalSearch(ctx context.Context, country, queryText string, limit int) ([]models.CandidateRow, error) {
	if !hasLexeme.MatchString(queryText) {
		return []models.CandidateRow{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `SELECT ` + documentColumns + `,
			ts_rank_cd(tsv, plainto_tsquery('simple', $2)) AS score_raw
		FROM search_documents
		WHERE tsv @@ plainto_tsquery('simple', $2)
			AND country = $1
		ORDER BY score_raw DESC, updated_at DESC, id ASC
		LIMIT $3`

	rows, err := tx.Query(ctx, sql, country, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("executing lexical search: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.CandidateRow, 0, limit)

	for rows.Next() {
		var c models.CandidateRow

		if err := scanDocument(rows, &c.Document, &c.ScoreRaw); err != nil {
			return nil, fmt.Errorf("scanning lexical result: %w", err)
		}

		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lexical rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing lexical search: %w", err)
	}

	return candidates, nil
}

// SemanticSearch ranks documents by cosine similarity to queryVector,
// reported as score_vector in [0,1] (1 - cosine distance, clamped before
// reporting). Only documents matching country with a non-null embedding are
// considered, ties broken by updated_at then id. A vector whose length
// doesn't match the configured embedding dimension short-circuits to an
// empty result instead of issuing the query.
func (s *DocumentStore) SemanticSearch(ctx context.Context, queryVector []float32, country string, limit int) ([]models.CandidateRow, error) {
	if s.embeddingDimensions > 0 && len(queryVector) != s.embeddingDimensions {
		return []models.CandidateRow{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `SELECT ` + documentColumns + `,
			GREATEST(0, LEAST(1, 1 - (embedding <=> $1::vector))) AS score_vector
		FROM search_documents
		WHERE embedding IS NOT NULL
			AND country = $2
		ORDER BY embedding <=> $1::vector, updated_at DESC, id ASC
		LIMIT $3`

	rows, err := tx.Query(ctx, sql, formatEmbedding(queryVector), country, limit)
	if err != nil {
		return nil, fmt.Errorf("executing semantic search: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.CandidateRow, 0, limit)

	for rows.Next() {
		var c models.CandidateRow

		if err := scanDocument(rows, &c.Document, &c.ScoreVector); err != nil {
			return nil, fmt.Errorf("scanning semantic result: %w", err)
		}

		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating semantic rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing semantic search: %w", err)
	}

	return candidates, nil
}
