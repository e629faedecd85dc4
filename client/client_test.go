package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexisearch/lexisearch/internal/models"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithAPIKey("test-key"))

	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "0.1.0"})
		},
	})

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("got status %q, want ok", resp.Status)
	}
}

func TestSearch(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/search": func(w http.ResponseWriter, r *http.Request) {
			var req SearchRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 200, SearchResponse{
				Results:  []models.FusedResult{{Document: models.Document{ID: "doc-1"}, Score: 0.9}},
				Degraded: false,
				Cached:   false,
			})
		},
	})

	resp, err := c.Search.Search(context.Background(), SearchRequest{Text: "climate policy", Country: "us"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "doc-1" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestIndexUpsertAndDelete(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/index": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, UpsertResponse{Indexed: 1, Skipped: 0})
		},
		"DELETE /api/v1/index": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})

	ctx := context.Background()

	resp, err := c.Index.Upsert(ctx, []models.Document{{ID: "doc-1", Title: "t", Body: "b", Country: "us"}})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if resp.Indexed != 1 {
		t.Errorf("got indexed=%d, want 1", resp.Indexed)
	}

	if err := c.Index.Delete(ctx, []string{"doc-1"}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/search": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 400, map[string]string{"code": "invalid_request", "message": "text is required"})
		},
	})

	_, err := c.Search.Search(context.Background(), SearchRequest{})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != 400 {
		t.Errorf("got status %d, want 400", apiErr.StatusCode)
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, HealthResponse{Status: "ok"})
		},
	})

	c.Health(context.Background()) //nolint:errcheck

	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: got %q, want %q", gotAuth, "Bearer test-key")
	}
}
