// Package retriever dispatches a normalized query to the lexical and
// semantic branches of the Document Store concurrently and reports a
// combined, fail-closed-per-branch result.
package retriever

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/metrics"
	"github.com/lexisearch/lexisearch/internal/models"
)

// state models the Retriever's lifecycle for observability; only failed is a
// terminal non-success state.
type state int

const (
	stateIdle state = iota
	stateEmbedding
	stateDispatched
	stateFusing
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateEmbedding:
		return "embedding"
	case stateDispatched:
		return "dispatched"
	case stateFusing:
		return "fusing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Retriever issues the lexical and semantic store queries for a normalized
// query and reports their raw candidates.
type Retriever struct {
	store             domain.DocumentStore
	embedder          domain.Embedder
	log               *logrus.Logger
	candidatePoolSize int
}

// New returns a Retriever. candidatePoolSize bounds each branch's result
// list; per the spec it defaults to max(50, 5*k) at call time when 0.
func New(store domain.DocumentStore, embedder domain.Embedder, log *logrus.Logger, candidatePoolSize int) *Retriever {
	return &Retriever{store: store, embedder: embedder, log: log, candidatePoolSize: candidatePoolSize}
}

// Retrieve runs the lexical and semantic branches concurrently. If the
// embedding call fails, it degrades to lexical-only rather than failing the
// whole request. Each store branch fails closed: the other branch's results
// still return if only one side errors; ErrRetrievalFailed is returned only
// when both fail.
func (r *Retriever) Retrieve(ctx context.Context, q models.NormalizedQuery) (models.RetrievalResult, error) {
	s := stateIdle
	r.transition(&s, stateEmbedding)

	poolSize := r.candidatePoolSize
	if poolSize <= 0 {
		poolSize = max(50, 5*q.K)
	}

	var queryVector []float32

	degraded := false

	if r.embedder != nil {
		start := time.Now()

		vec, err := r.embedder.Embed(ctx, q.Text)
		metrics.LatencyMs.WithLabelValues("embed").Observe(float64(time.Since(start).Milliseconds()))

		if err != nil {
			r.log.WithError(err).Warn("retriever: embedding unavailable, degrading to lexical-only")

			degraded = true
			metrics.RetrievalDegradedTotal.Inc()
		} else {
			queryVector = vec
		}
	} else {
		degraded = true
	}

	r.transition(&s, stateDispatched)

	var (
		wg                      sync.WaitGroup
		lexical, semantic       []models.CandidateRow
		errLexical, errSemantic error
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		start := time.Now()
		lexical, errLexical = r.store.LexicalSearch(ctx, q.Country, q.Text, poolSize)
		metrics.LatencyMs.WithLabelValues("lexical").Observe(float64(time.Since(start).Milliseconds()))
	}()

	if !degraded {
		wg.Add(1)

		go func() {
			defer wg.Done()

			start := time.Now()
			semantic, errSemantic = r.store.SemanticSearch(ctx, queryVector, q.Country, poolSize)
			metrics.LatencyMs.WithLabelValues("semantic").Observe(float64(time.Since(start).Milliseconds()))
		}()
	}

	wg.Wait()

	if errLexical != nil {
		r.log.WithError(errLexical).Warn("retriever: lexical branch failed")
	}

	if errSemantic != nil {
		r.log.WithError(errSemantic).Warn("retriever: semantic branch failed")
		degraded = true
		metrics.RetrievalDegradedTotal.Inc()
	}

	if errLexical != nil && (degraded || errSemantic != nil) {
		r.transition(&s, stateFailed)

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.RetrievalResult{}, errors.Join(models.ErrTimeout, errLexical, errSemantic)
		}

		return models.RetrievalResult{}, errors.Join(models.ErrRetrievalFailed, errLexical, errSemantic)
	}

	r.transition(&s, stateFusing)
	r.transition(&s, stateDone)

	return models.RetrievalResult{Lexical: lexical, Semantic: semantic, Degraded: degraded}, nil
}

func (r *Retriever) transition(current *state, next state) {
	r.log.WithFields(logrus.Fields{"from": current.String(), "to": next.String()}).Debug("retriever: state transition")
	*current = next
}
