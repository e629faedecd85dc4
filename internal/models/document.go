// Package models defines the data types shared by the search, indexing,
// and evaluation packages.
package models

import "time"

// Document is the unit of retrieval and indexing.
type Document struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Tags           []string   `json:"tags,omitempty"`
	URL            string     `json:"url,omitempty"`
	Domain         string     `json:"domain,omitempty"`
	Lang           string     `json:"lang,omitempty"`
	Country        string     `json:"country"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	AuthorityScore *float64   `json:"authority_score,omitempty"`
	Embedding      []float32  `json:"embedding,omitempty"`
}
