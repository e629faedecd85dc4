package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexisearch/lexisearch/internal/models"
)

// maxBulkBatchSize limits rows per INSERT statement to stay well under
// PostgreSQL's parameter limit (65535 params), mirroring the teacher's
// BulkUpsertNodes batching.
const maxBulkBatchSize = 100

const upsertColumnsPerRow = 12

// Upsert writes docs in chunked multi-row INSERT ... ON CONFLICT statements.
// A document with a nil Embedding never clobbers an existing stored
// embedding, via embedding = COALESCE(new, existing). Returns counts of rows
// written and skipped; on success skipped is always 0 since every row in a
// committed chunk counts as indexed, and when a chunk fails every document not
// yet written is reported as skipped alongside the error.
func (s *DocumentStore) Upsert(ctx context.Context, docs []models.Document) (int, int, error) {
	if len(docs) == 0 {
		return 0, 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	indexed := 0

	for i := 0; i < len(docs); i += maxBulkBatchSize {
		end := min(i+maxBulkBatchSize, len(docs))

		n, err := s.upsertBatch(ctx, docs[i:end])
		if err != nil {
			return indexed, len(docs) - indexed, err
		}

		indexed += n
	}

	return indexed, len(docs) - indexed, nil
}

func (s *DocumentStore) upsertBatch(ctx context.Context, batch []models.Document) (int, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning upsert transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	valueParts := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*upsertColumnsPerRow)

	for j, doc := range batch {
		base := j*upsertColumnsPerRow + 1

		placeholders := make([]string, upsertColumnsPerRow)
		for k := range placeholders {
			placeholders[k] = fmt.Sprintf("$%d", base+k)
		}

		// embedding is the last column; pgx sends it as text, so it needs an
		// explicit cast to satisfy the vector column type.
		placeholders[upsertColumnsPerRow-1] += "::vector"

		valueParts = append(valueParts, "("+strings.Join(placeholders, ", ")+")")

		var embeddingLiteral any
		if doc.Embedding != nil {
			embeddingLiteral = formatEmbedding(doc.Embedding)
		}

		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}

		args = append(args,
			doc.ID, doc.Title, doc.Body, doc.URL, doc.Domain, tags, doc.Lang, strings.ToLower(doc.Country),
			doc.PublishedAt, doc.UpdatedAt, doc.AuthorityScore, embeddingLiteral,
		)
	}

	sql := `INSERT INTO search_documents
			(id, title, body, url, domain, tags, lang, country, published_at, updated_at, authority_score, embedding)
		VALUES ` + strings.Join(valueParts, ", ") + `
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			body = EXCLUDED.body,
			url = EXCLUDED.url,
			domain = EXCLUDED.domain,
			tags = EXCLUDED.tags,
			lang = EXCLUDED.lang,
			country = EXCLUDED.country,
			published_at = EXCLUDED.published_at,
			updated_at = EXCLUDED.updated_at,
			authority_score = EXCLUDED.authority_score,
			embedding = COALESCE(EXCLUDED.embedding::vector, search_documents.embedding)`

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return 0, fmt.Errorf("upserting document batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing document batch: %w", err)
	}

	return len(batch), nil
}

// Delete removes documents by id. An empty id list is a no-op.
func (s *DocumentStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, `DELETE FROM search_documents WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	return nil
}
