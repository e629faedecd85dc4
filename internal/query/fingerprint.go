package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/lexisearch/lexisearch/internal/models"
)

// canonicalForm is the sorted-field JSON shape used for fingerprinting.
// Field order is fixed here (not derived from struct order) so the encoding
// is stable regardless of how models.NormalizedQuery evolves.
type canonicalForm struct {
	Text           string   `json:"text"`
	Country        string   `json:"country"`
	K              int      `json:"k"`
	MustDomains    []string `json:"must_domains"`
	MustNotDomains []string `json:"must_not_domains"`
	Since          int64    `json:"since"`
	Until          int64    `json:"until"`
}

// Fingerprint returns a deterministic, fixed-length hex key for q. Equivalent
// normalized queries always produce the same fingerprint.
func Fingerprint(q models.NormalizedQuery) string {
	form := canonicalForm{
		Text:           q.Text,
		Country:        q.Country,
		K:              q.K,
		MustDomains:    q.MustDomains,
		MustNotDomains: q.MustNotDomains,
	}

	if q.Since != nil {
		form.Since = q.Since.UnixNano()
	}

	if q.Until != nil {
		form.Until = q.Until.UnixNano()
	}

	encoded, _ := json.Marshal(form) //nolint:errcheck // canonicalForm is always marshalable.

	sum := sha256.Sum256(encoded)

	return hex.EncodeToString(sum[:16])
}
