// Package evaluator runs a suite of gold queries against the live search
// pipeline and reports precision/recall/nDCG/localization accuracy metrics.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/metrics"
	"github.com/lexisearch/lexisearch/internal/models"
	"github.com/lexisearch/lexisearch/internal/query"
)

const (
	minAveragePrecision     = 0.30
	minLocalizationAccuracy = 0.95
)

// pipelineRunner is satisfied by *search.Service. It is declared here,
// narrowed to exactly what the evaluator needs, so this package does not
// import the cache/retriever/fusion wiring it has no business depending on.
type pipelineRunner interface {
	RunPipelineForEval(ctx context.Context, normalized models.NormalizedQuery) ([]models.FusedResult, bool, error)
}

// Evaluator implements domain.EvaluatorService.
type Evaluator struct {
	pipeline pipelineRunner
	log      *logrus.Logger
	progress func(models.QueryMetrics) // optional, for /ws/eval broadcast
}

// New creates an Evaluator. progress may be nil; when set, it is invoked
// synchronously after each gold query completes, so callers can broadcast
// live suite progress (e.g. over the /ws/eval websocket).
func New(pipeline pipelineRunner, log *logrus.Logger, progress func(models.QueryMetrics)) *Evaluator {
	return &Evaluator{pipeline: pipeline, log: log, progress: progress}
}

// Evaluate runs every gold query through the full retrieval path (no cache
// shortcut) and computes per-query and aggregate metrics. A non-nil error
// indicates at least one gold query failed outright; the returned summary
// still reflects every query that did succeed.
func (e *Evaluator) Evaluate(ctx context.Context, goldQueries []models.GoldQuery) (models.EvalSummary, error) {
	perQuery := make([]models.QueryMetrics, 0, len(goldQueries))
	latencies := make([]float64, 0, len(goldQueries))

	var firstErr error

	for _, gq := range goldQueries {
		qm, err := e.evaluateOne(ctx, gq)
		if err != nil {
			e.log.WithError(err).WithField("query", gq.Query).Error("gold query evaluation failed")

			if firstErr == nil {
				firstErr = fmt.Errorf("evaluating gold query %q: %w", gq.Query, err)
			}

			continue
		}

		perQuery = append(perQuery, qm)
		latencies = append(latencies, qm.LatencyMs)

		if e.progress != nil {
			e.progress(qm)
		}
	}

	summary := summarize(perQuery, latencies)

	return summary, firstErr
}

func (e *Evaluator) evaluateOne(ctx context.Context, gq models.GoldQuery) (models.QueryMetrics, error) {
	k := gq.K
	if k == 0 {
		k = 10
	}

	normalized, err := query.NormalizeWithDefaults(models.RawQuery{
		Text:           gq.Query,
		Country:        gq.Country,
		K:              &k,
		MustDomains:    gq.MustDomains,
		MustNotDomains: gq.MustNotDomains,
	}, query.Defaults{K: k})
	if err != nil {
		return models.QueryMetrics{}, err
	}

	start := time.Now()

	results, degraded, err := e.pipeline.RunPipelineForEval(ctx, normalized)
	if err != nil {
		return models.QueryMetrics{}, err
	}

	latencyMs := float64(time.Since(start).Milliseconds())
	metrics.LatencyMs.WithLabelValues("eval").Observe(latencyMs)

	expected := toSet(gq.ExpectedIDs)

	return models.QueryMetrics{
		Query:                gq.Query,
		Precision:            precisionAt(results, expected),
		Recall:               recallAt(results, expected),
		NDCG:                 ndcgAt(results, expected),
		LocalizationAccuracy: localizationAccuracy(results, gq.Country),
		LatencyMs:            latencyMs,
		Degraded:             degraded,
	}, nil
}

func precisionAt(results []models.FusedResult, expected map[string]struct{}) float64 {
	if len(results) == 0 {
		return 0
	}

	hits := 0

	for _, r := range results {
		if _, ok := expected[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(results))
}

func recallAt(results []models.FusedResult, expected map[string]struct{}) float64 {
	if len(expected) == 0 {
		return 0
	}

	hits := 0

	for _, r := range results {
		if _, ok := expected[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(expected))
}

func ndcgAt(results []models.FusedResult, expected map[string]struct{}) float64 {
	var dcg float64

	for i, r := range results {
		if _, ok := expected[r.ID]; ok {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}

	var idcg float64

	for i := 0; i < len(expected) && i < len(results); i++ {
		idcg += 1 / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}

	return dcg / idcg
}

func localizationAccuracy(results []models.FusedResult, country string) float64 {
	country = strings.ToLower(country)

	for _, r := range results {
		if strings.ToLower(r.Country) != country {
			return 0
		}
	}

	return 1
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

func summarize(perQuery []models.QueryMetrics, latencies []float64) models.EvalSummary {
	n := len(perQuery)
	if n == 0 {
		return models.EvalSummary{Queries: perQuery}
	}

	var sumPrecision, sumRecall, sumNDCG, sumLocalization float64

	for _, qm := range perQuery {
		sumPrecision += qm.Precision
		sumRecall += qm.Recall
		sumNDCG += qm.NDCG
		sumLocalization += qm.LocalizationAccuracy
	}

	avgPrecision := sumPrecision / float64(n)
	avgLocalization := sumLocalization / float64(n)

	summary := models.EvalSummary{
		Queries:              perQuery,
		AveragePrecision:     avgPrecision,
		AverageRecall:        sumRecall / float64(n),
		AverageNDCG:          sumNDCG / float64(n),
		LocalizationAccuracy: avgLocalization,
		LatencyP95Ms:         p95(latencies),
	}

	summary.Passed = avgPrecision >= minAveragePrecision && avgLocalization >= minLocalizationAccuracy

	return summary
}

// p95 returns the value at index floor(0.95*n) of the ascending-sorted
// input, per the spec's exact percentile definition.
func p95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.95 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}
