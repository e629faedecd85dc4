package client

import (
	"context"

	"github.com/lexisearch/lexisearch/internal/models"
)

// IndexService manages document ingestion and removal.
type IndexService struct {
	c *Client
}

// UpsertResponse is the body of a successful POST /api/v1/index response.
type UpsertResponse struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// Upsert bulk-inserts or updates documents.
func (s *IndexService) Upsert(ctx context.Context, docs []models.Document) (*UpsertResponse, error) {
	var resp UpsertResponse
	if err := s.c.post(ctx, "/api/v1/index", map[string]any{"documents": docs}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Delete removes documents by ID.
func (s *IndexService) Delete(ctx context.Context, ids []string) error {
	return s.c.del(ctx, "/api/v1/index", map[string]any{"ids": ids}, nil)
}
