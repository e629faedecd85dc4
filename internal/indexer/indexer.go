// Package indexer wires the Document Store, Embedder, and mirror adapters
// together into the document ingestion path: embedding backfill, chunked
// transactional upsert, and best-effort mirror fan-out.
package indexer

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/models"
)

// Indexer implements domain.IndexService.
type Indexer struct {
	store    domain.DocumentStore
	embedder domain.Embedder
	mirrors  []domain.MirrorAdapter
	log      *logrus.Logger
}

// New creates an Indexer. embedder and mirrors may be nil/empty; a nil store
// causes every Upsert to report all documents as skipped.
func New(store domain.DocumentStore, embedder domain.Embedder, mirrors []domain.MirrorAdapter, log *logrus.Logger) *Indexer {
	return &Indexer{store: store, embedder: embedder, mirrors: mirrors, log: log}
}

// Upsert backfills missing embeddings, writes docs to the Document Store,
// then fans the batch out to configured mirrors and waits for them; a mirror
// failure never fails the call.
func (ix *Indexer) Upsert(ctx context.Context, docs []models.Document) (int, int, error) {
	if ix.store == nil {
		return 0, len(docs), nil
	}

	if len(docs) == 0 {
		return 0, 0, nil
	}

	for i := range docs {
		docs[i].Country = strings.ToLower(docs[i].Country)
	}

	ix.backfillEmbeddings(ctx, docs)

	indexed, skipped, err := ix.store.Upsert(ctx, docs)
	if err != nil {
		return indexed, skipped, err
	}

	ix.fanOutUpsert(docs)

	return indexed, skipped, nil
}

// Delete removes docs from the Document Store, then from configured mirrors.
// An empty id list is a no-op.
func (ix *Indexer) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 || ix.store == nil {
		return nil
	}

	if err := ix.store.Delete(ctx, ids); err != nil {
		return err
	}

	ix.fanOutDelete(ids)

	return nil
}

// RunDelta applies a combined upsert/delete batch: deletions first, so a
// document that was both deleted and re-upserted in the same delta lands
// in its final intended state.
func (ix *Indexer) RunDelta(ctx context.Context, batch models.DeltaBatch) error {
	if err := ix.Delete(ctx, batch.Deletions); err != nil {
		return err
	}

	_, _, err := ix.Upsert(ctx, batch.Documents)

	return err
}

// backfillEmbeddings computes an embedding from title+body for every doc
// missing one, in a single batched call to the embedder rather than one
// request per document. An embedder failure is logged and the whole batch
// is retained without embeddings; the upsert's COALESCE semantics ensure
// this never clobbers a previously stored embedding for an existing
// document.
func (ix *Indexer) backfillEmbeddings(ctx context.Context, docs []models.Document) {
	if ix.embedder == nil {
		return
	}

	missing := make([]int, 0, len(docs))
	texts := make([]string, 0, len(docs))

	for i := range docs {
		if docs[i].Embedding != nil {
			continue
		}

		missing = append(missing, i)
		texts = append(texts, docs[i].Title+"\n"+docs[i].Body)
	}

	if len(missing) == 0 {
		return
	}

	vecs, err := ix.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		ix.log.WithError(err).WithField("document_count", len(missing)).
			Warn("embedding backfill failed, indexing documents without embeddings")

		return
	}

	for j, i := range missing {
		docs[i].Embedding = vecs[j]
	}
}

// fanOutUpsert invokes every mirror adapter concurrently. Mirror failures
// are logged as ErrIndexerPartialFailure and never propagate to the caller;
// the document batch is already durably committed to the primary store.
func (ix *Indexer) fanOutUpsert(docs []models.Document) {
	if len(ix.mirrors) == 0 {
		return
	}

	var wg sync.WaitGroup

	for _, m := range ix.mirrors {
		wg.Add(1)

		go func(m domain.MirrorAdapter) {
			defer wg.Done()

			if err := m.Upsert(context.Background(), docs); err != nil {
				ix.log.WithError(models.ErrIndexerPartialFailure).WithFields(logrus.Fields{
					"mirror": m.Name(),
					"cause":  err,
				}).Warn("mirror upsert failed")
			}
		}(m)
	}

	wg.Wait()
}

// fanOutDelete invokes every mirror adapter's Delete concurrently, under the
// same best-effort semantics as fanOutUpsert.
func (ix *Indexer) fanOutDelete(ids []string) {
	if len(ix.mirrors) == 0 {
		return
	}

	var wg sync.WaitGroup

	for _, m := range ix.mirrors {
		wg.Add(1)

		go func(m domain.MirrorAdapter) {
			defer wg.Done()

			if err := m.Delete(context.Background(), ids); err != nil {
				ix.log.WithError(models.ErrIndexerPartialFailure).WithFields(logrus.Fields{
					"mirror": m.Name(),
					"cause":  err,
				}).Warn("mirror delete failed")
			}
		}(m)
	}

	wg.Wait()
}
