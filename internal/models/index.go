package models

// IndexResult reports how many documents an Upsert actually wrote versus
// skipped (e.g. because no document store is configured).
type IndexResult struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// DeltaBatch is a combined upsert/delete unit for incremental reindexing.
type DeltaBatch struct {
	Documents []Document `json:"documents,omitempty"`
	Deletions []string   `json:"deletions,omitempty"`
}
