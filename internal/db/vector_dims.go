// Package db provides database migration and maintenance utilities.
package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/dbpool"
)

// EnsureVectorDimensions checks that search_documents.embedding matches the
// configured dimensions and alters it (with index rebuild) if not. This
// allows operators to change the embedding dimension config and have the
// schema adapt on next restart. Existing embeddings with mismatched
// dimensions are set to NULL so they can be re-generated.
func EnsureVectorDimensions(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, dimensions int) error {
	if dimensions < 1 || dimensions > 4096 {
		return fmt.Errorf("embedding dimensions must be between 1 and 4096, got %d", dimensions)
	}

	var currentType string
	err := pool.QueryRow(ctx,
		`SELECT format_type(a.atttypid, a.atttypmod)
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 WHERE c.relname = 'search_documents' AND a.attname = 'embedding' AND NOT a.attisdropped`,
	).Scan(&currentType)
	if err != nil {
		return fmt.Errorf("querying embedding column type: %w", err)
	}

	expectedType := fmt.Sprintf("vector(%d)", dimensions)
	if currentType == expectedType {
		log.WithField("dimensions", dimensions).Debug("embedding column dimensions match config")
		return nil
	}

	log.WithFields(logrus.Fields{
		"current":  currentType,
		"expected": expectedType,
	}).Info("embedding column dimensions changed, altering schema")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning dimension alter tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// Drop the existing IVFFLAT index; it must be rebuilt against the new column width.
	if _, err := tx.Exec(ctx, `DROP INDEX IF EXISTS idx_search_documents_embedding`); err != nil {
		return fmt.Errorf("dropping embedding index: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE search_documents SET embedding = NULL WHERE embedding IS NOT NULL AND vector_dims(embedding) != $1`,
		dimensions,
	); err != nil {
		return fmt.Errorf("nulling mismatched embeddings: %w", err)
	}

	alterSQL := fmt.Sprintf(`ALTER TABLE search_documents ALTER COLUMN embedding TYPE vector(%d)`, dimensions)
	if _, err := tx.Exec(ctx, alterSQL); err != nil {
		return fmt.Errorf("altering embedding column: %w", err)
	}

	// lists=100 matches the bootstrap migration; re-clustering against an
	// empty-or-partial table is acceptable since the index self-balances as
	// rows accumulate.
	if _, err := tx.Exec(ctx,
		`CREATE INDEX idx_search_documents_embedding ON search_documents
		 USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	); err != nil {
		return fmt.Errorf("recreating embedding index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing dimension alter: %w", err)
	}

	log.WithField("dimensions", dimensions).Info("embedding column dimensions updated")

	return nil
}
