package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/db"
	"github.com/lexisearch/lexisearch/internal/dbpool"
	"github.com/lexisearch/lexisearch/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{pool: pool, log: log}

	return sharedEnv
}

// newDocumentStore returns a DocumentStore with the schema applied, and a
// unique country code scoping this test's fixture documents so parallel
// tests never collide.
func newDocumentStore(t *testing.T, embeddingDimensions int) (*store.DocumentStore, string) {
	t.Helper()

	env := getTestEnv(t)
	ds := store.NewDocumentStore(store.Base{Pool: env.pool, Log: env.log}, embeddingDimensions)

	ctx := context.Background()
	if err := ds.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}

	if embeddingDimensions > 0 {
		if err := db.EnsureVectorDimensions(ctx, env.pool, env.log, embeddingDimensions); err != nil {
			t.Fatalf("resizing embedding column: %v", err)
		}
	}

	country := "z" + uuid.New().String()[:7]

	t.Cleanup(func() {
		env.pool.Exec(context.Background(), "DELETE FROM search_documents WHERE country = $1", country) //nolint:errcheck // best-effort cleanup
	})

	return ds, country
}
