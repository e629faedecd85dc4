// Package search implements the end-to-end search operation: normalize the
// raw query, check the cache, retrieve candidates, and fuse them into a
// ranked result list.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/cache"
	"github.com/lexisearch/lexisearch/internal/fusion"
	"github.com/lexisearch/lexisearch/internal/metrics"
	"github.com/lexisearch/lexisearch/internal/models"
	"github.com/lexisearch/lexisearch/internal/query"
	"github.com/lexisearch/lexisearch/internal/retriever"
)

// Defaults bundles the Query Normalizer's fallback values.
type Defaults struct {
	K int
}

// Service implements domain.SearchService, wiring the Query Normalizer, a
// Cache Store, the Retriever, and the Fusion Ranker together.
type Service struct {
	retriever    *retriever.Retriever
	cacheStore   cache.Store
	cacheGroup   *cache.Group
	weights      fusion.Weights
	defaults     Defaults
	defaultTTLMs int64
	log          *logrus.Logger
}

// New creates a Service. cacheStore may be nil to disable caching entirely;
// every lookup is then treated as a miss.
func New(
	r *retriever.Retriever, cacheStore cache.Store, weights fusion.Weights, defaults Defaults, defaultTTLMs int64, log *logrus.Logger,
) *Service {
	return &Service{
		retriever:    r,
		cacheStore:   cacheStore,
		cacheGroup:   cache.NewGroup(),
		weights:      weights,
		defaults:     defaults,
		defaultTTLMs: defaultTTLMs,
		log:          log,
	}
}

// Search normalizes raw, serves from cache when possible, and otherwise runs
// the full retrieve-then-fuse pipeline, caching the fused result under the
// query's fingerprint.
func (s *Service) Search(ctx context.Context, raw models.RawQuery) (models.SearchResult, error) {
	start := time.Now()

	normalized, err := query.NormalizeWithDefaults(raw, query.Defaults{K: s.defaults.K})
	if err != nil {
		return models.SearchResult{}, err
	}

	key := query.Fingerprint(normalized)

	if s.cacheStore == nil {
		results, degraded, err := s.runPipeline(ctx, normalized)
		metrics.LatencyMs.WithLabelValues("total").Observe(float64(time.Since(start).Milliseconds()))

		if err != nil {
			return models.SearchResult{}, err
		}

		return models.SearchResult{Results: results, Degraded: degraded, Cached: false}, nil
	}

	// degraded only reflects a fresh compute; a cache hit reports Degraded:
	// false since we don't persist that bit alongside the cached payload.
	var degraded bool

	raw2, hit, err := cache.GetOrCompute(ctx, s.cacheStore, s.cacheGroup, key, s.defaultTTLMs, func() ([]byte, error) {
		results, d, err := s.runPipeline(ctx, normalized)
		if err != nil {
			return nil, err
		}

		degraded = d

		return json.Marshal(results)
	})

	metrics.LatencyMs.WithLabelValues("total").Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		return models.SearchResult{}, err
	}

	var results []models.FusedResult
	if err := json.Unmarshal(raw2, &results); err != nil {
		return models.SearchResult{}, fmt.Errorf("decoding cached search result: %w", err)
	}

	return models.SearchResult{Results: results, Degraded: degraded, Cached: hit}, nil
}

// runPipeline runs the Normalizer's output through the Retriever and Fusion
// Ranker, bypassing the cache. The Evaluator calls this path directly so
// gold-query runs always measure the live pipeline. The returned bool
// reports whether retrieval degraded to lexical-only.
func (s *Service) runPipeline(ctx context.Context, normalized models.NormalizedQuery) ([]models.FusedResult, bool, error) {
	retrieval, err := s.retriever.Retrieve(ctx, normalized)
	if err != nil {
		return nil, false, err
	}

	if retrieval.Degraded {
		s.log.WithField("query_text", normalized.Text).Warn("search served in degraded (lexical-only) mode")
	}

	fuseStart := time.Now()
	results := fusion.Fuse(retrieval.Lexical, retrieval.Semantic, normalized, s.weights)
	metrics.LatencyMs.WithLabelValues("fuse").Observe(float64(time.Since(fuseStart).Milliseconds()))

	return results, retrieval.Degraded, nil
}

// RunPipelineForEval exposes runPipeline to the Evaluator, which must run
// the live retrieval path for every gold query with no cache shortcut.
func (s *Service) RunPipelineForEval(ctx context.Context, normalized models.NormalizedQuery) ([]models.FusedResult, bool, error) {
	return s.runPipeline(ctx, normalized)
}
