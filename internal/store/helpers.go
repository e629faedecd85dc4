package store

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lexisearch/lexisearch/internal/models"
)

// scanDocument scans one row in documentColumns order into doc, followed by
// a trailing per-query score column into score.
func scanDocument(rows pgx.Rows, doc *models.Document, score *float64) error {
	return rows.Scan(
		&doc.ID, &doc.Title, &doc.Body, &doc.URL, &doc.Domain, &doc.Tags,
		&doc.Lang, &doc.Country, &doc.PublishedAt, &doc.UpdatedAt, &doc.AuthorityScore,
		score,
	)
}

// formatEmbedding renders a vector as a pgvector input literal, e.g. "[1,2,3]".
func formatEmbedding(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'f', -1, 32)
	}

	return "[" + strings.Join(parts, ",") + "]"
}
