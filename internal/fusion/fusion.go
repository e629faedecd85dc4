// Package fusion combines lexical and semantic candidate lists into a single
// ranked result using per-channel score normalization and a weighted
// composite, per the service's ranking contract.
package fusion

import (
	"math"
	"sort"
	"time"

	"github.com/lexisearch/lexisearch/internal/models"
)

// Weights configures the composite score's per-term contribution. The zero
// value is not usable; callers should start from DefaultWeights.
type Weights struct {
	Lexical   float64
	Vector    float64
	Authority float64
	Freshness float64
}

// DefaultWeights matches the spec's default composite: lexical and vector
// dominate, authority and freshness act as small tie-breaking nudges.
var DefaultWeights = Weights{Lexical: 0.45, Vector: 0.45, Authority: 0.05, Freshness: 0.05}

const freshnessHalfLifeDays = 30

type union struct {
	doc         models.Document
	scoreRaw    float64
	scoreVector float64
}

// Fuse merges the lexical and semantic candidate lists into a single ranked
// list of at most query.K results. The returned score is an ordering device
// only; values are not comparable across queries.
func Fuse(lexical, semantic []models.CandidateRow, query models.NormalizedQuery, w Weights) []models.FusedResult {
	merged := make(map[string]*union, len(lexical)+len(semantic))
	order := make([]string, 0, len(lexical)+len(semantic))

	for _, c := range lexical {
		merged[c.ID] = &union{doc: c.Document, scoreRaw: c.ScoreRaw}
		order = append(order, c.ID)
	}

	for _, c := range semantic {
		u, ok := merged[c.ID]
		if !ok {
			u = &union{doc: c.Document}
			merged[c.ID] = u
			order = append(order, c.ID)
		}

		u.scoreVector = c.ScoreVector
	}

	var maxLex, maxVec float64

	for _, id := range order {
		u := merged[id]
		if u.scoreRaw > maxLex {
			maxLex = u.scoreRaw
		}

		if u.scoreVector > maxVec {
			maxVec = u.scoreVector
		}
	}

	mustDomains := toSet(query.MustDomains)
	mustNotDomains := toSet(query.MustNotDomains)

	now := time.Now()

	results := make([]models.FusedResult, 0, len(order))

	for _, id := range order {
		u := merged[id]

		if _, excluded := mustNotDomains[u.doc.Domain]; excluded {
			continue
		}

		if len(mustDomains) > 0 {
			if _, allowed := mustDomains[u.doc.Domain]; !allowed {
				continue
			}
		}

		nLex := ratio(u.scoreRaw, maxLex)
		nVec := ratio(u.scoreVector, maxVec)
		authority := 0.0

		if u.doc.AuthorityScore != nil {
			authority = *u.doc.AuthorityScore
		}

		freshness := freshnessScore(u.doc, now)

		score := w.Lexical*nLex + w.Vector*nVec + w.Authority*authority + w.Freshness*freshness

		results = append(results, models.FusedResult{
			Document:    u.doc,
			Score:       score,
			ScoreRaw:    nLex,
			ScoreVector: nVec,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}

		if a.ScoreVector != b.ScoreVector {
			return a.ScoreVector > b.ScoreVector
		}

		aUpdated, bUpdated := updatedAt(a.Document), updatedAt(b.Document)
		if !aUpdated.Equal(bUpdated) {
			return aUpdated.After(bUpdated)
		}

		return a.ID < b.ID
	})

	k := query.K
	if k > 0 && len(results) > k {
		results = results[:k]
	}

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

func ratio(value, max float64) float64 {
	if max == 0 {
		return 0
	}

	return value / max
}

// freshnessScore returns exp(-ageDays/30) using updated_at, falling back to
// published_at, and 0 when neither timestamp is known.
func freshnessScore(doc models.Document, now time.Time) float64 {
	ts := updatedAtPtr(doc)
	if ts == nil {
		return 0
	}

	ageDays := now.Sub(*ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	return math.Exp(-ageDays / freshnessHalfLifeDays)
}

func updatedAtPtr(doc models.Document) *time.Time {
	if doc.UpdatedAt != nil {
		return doc.UpdatedAt
	}

	return doc.PublishedAt
}

func updatedAt(doc models.Document) time.Time {
	if ts := updatedAtPtr(doc); ts != nil {
		return *ts
	}

	return time.Time{}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return set
}
