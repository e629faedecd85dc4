// Package query normalizes raw search requests into a canonical form and
// produces a stable fingerprint used as a cache key.
package query

import (
	"sort"
	"strings"

	"github.com/lexisearch/lexisearch/internal/models"
)

const (
	minK     = 1
	maxK     = 200
	defaultK = 10
)

// Defaults bundles the Query Normalizer's fallback values, populated from
// server configuration (config.DefaultK).
type Defaults struct {
	K int
}

// Normalize validates and canonicalizes a raw query using the package's
// built-in defaults (K defaults to 10). It is a convenience wrapper around
// NormalizeWithDefaults for callers without a configured default K, such as
// tests.
func Normalize(raw models.RawQuery) (models.NormalizedQuery, error) {
	return NormalizeWithDefaults(raw, Defaults{K: defaultK})
}

// NormalizeWithDefaults validates and canonicalizes a raw query. It trims
// text, lowercases country and domains, clamps K, and rejects inconsistent
// domain filters. defaults.K is used when raw.K is nil; a raw.K of exactly
// 0 is rejected rather than silently replaced by the default.
func NormalizeWithDefaults(raw models.RawQuery, defaults Defaults) (models.NormalizedQuery, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return models.NormalizedQuery{}, models.ErrInvalidQuery
	}

	country := strings.ToLower(strings.TrimSpace(raw.Country))
	if len(country) != 2 || !isAlpha(country) {
		return models.NormalizedQuery{}, models.ErrInvalidQuery
	}

	k := defaults.K
	if k == 0 {
		k = defaultK
	}

	if raw.K != nil {
		if *raw.K < minK || *raw.K > maxK {
			return models.NormalizedQuery{}, models.ErrInvalidQuery
		}

		k = *raw.K
	}

	mustDomains := normalizeDomainSet(raw.MustDomains)
	mustNotDomains := normalizeDomainSet(raw.MustNotDomains)

	for d := range mustDomains {
		if _, clash := mustNotDomains[d]; clash {
			return models.NormalizedQuery{}, models.ErrInvalidQuery
		}
	}

	return models.NormalizedQuery{
		Text:           text,
		Country:        country,
		K:              k,
		MustDomains:    setToSortedSlice(mustDomains),
		MustNotDomains: setToSortedSlice(mustNotDomains),
		Since:          raw.Since,
		Until:          raw.Until,
	}, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}

	return true
}

func normalizeDomainSet(domains []string) map[string]struct{} {
	out := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out[d] = struct{}{}
		}
	}

	return out
}

func setToSortedSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}

	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}

	sort.Strings(out)

	return out
}
