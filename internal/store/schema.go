package store

import (
	"context"
	"fmt"

	"github.com/lexisearch/lexisearch/internal/db"
	"github.com/lexisearch/lexisearch/internal/db/migrations"
)

// EnsureSchema applies the search_documents table, its generated tsv column,
// and its indexes via goose embedded migrations. Idempotent: goose tracks
// applied versions itself, and every DDL statement in the migration uses
// IF NOT EXISTS.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	if err := db.RunMigrations(ctx, s.Pool, s.Log, migrations.FS); err != nil {
		return fmt.Errorf("ensuring document store schema: %w", err)
	}

	return nil
}
