package client

import (
	"context"

	"github.com/lexisearch/lexisearch/internal/models"
)

// SearchService performs hybrid lexical+semantic search.
type SearchService struct {
	c *Client
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Text           string   `json:"text"`
	Country        string   `json:"country"`
	K              *int     `json:"k,omitempty"`
	MustDomains    []string `json:"must_domains,omitempty"`
	MustNotDomains []string `json:"must_not_domains,omitempty"`
}

// SearchResponse is the body of a successful POST /api/v1/search response.
type SearchResponse struct {
	Results  []models.FusedResult `json:"results"`
	Degraded bool                 `json:"degraded"`
	Cached   bool                 `json:"cached"`
}

// Search runs a hybrid search against the live pipeline.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := s.c.post(ctx, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
