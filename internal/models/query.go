package models

import "time"

// RawQuery is the unvalidated input to the Query Normalizer. K is a pointer
// so that an absent K (defaulted) can be distinguished from an explicit
// K == 0 (rejected as invalid).
type RawQuery struct {
	Text           string
	Country        string
	K              *int
	MustDomains    []string
	MustNotDomains []string
	Since          *time.Time
	Until          *time.Time
}

// NormalizedQuery is immutable after construction by the Query Normalizer.
type NormalizedQuery struct {
	Text           string
	Country        string
	K              int
	MustDomains    []string
	MustNotDomains []string
	Since          *time.Time
	Until          *time.Time
}

// CandidateRow is a document enriched with exactly one raw retrieval score.
type CandidateRow struct {
	Document
	ScoreRaw    float64 // lexical relevance, populated by the lexical branch
	ScoreVector float64 // cosine similarity in [0,1], populated by the semantic branch
}

// FusedResult is a document enriched with the composite ranking score.
type FusedResult struct {
	Document
	Score       float64 `json:"score"`
	ScoreRaw    float64 `json:"score_raw"`
	ScoreVector float64 `json:"score_vector"`
	Rank        int     `json:"rank"`
}

// SearchResult is the Search Service's response: the fused ranking plus the
// two booleans a caller needs to interpret it (did retrieval degrade to
// lexical-only, was this answer served from cache).
type SearchResult struct {
	Results  []FusedResult
	Degraded bool
	Cached   bool
}
