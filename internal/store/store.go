// Package store provides the Document Store's persistence layer over a
// pooled *pgxpool.Pool. Country is a plain filter column, not a security
// boundary, so there is no per-request session variable to set.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for the Document Store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	return b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
}
