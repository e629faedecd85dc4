package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexisearch/lexisearch/internal/api"
	"github.com/lexisearch/lexisearch/internal/evalrun"
	"github.com/lexisearch/lexisearch/internal/models"
	"github.com/lexisearch/lexisearch/internal/ws"
)

type fakePipeline struct{}

func (fakePipeline) RunPipelineForEval(_ context.Context, normalized models.NormalizedQuery) ([]models.FusedResult, bool, error) {
	return []models.FusedResult{{Document: models.Document{ID: "doc-1", Country: normalized.Country}, Rank: 1}}, false, nil
}

func TestEvalHandler_Start_RunsSuiteAndFinishes(t *testing.T) {
	t.Parallel()

	log := testLogger()
	hub := ws.NewHub(log)
	registry := evalrun.NewRegistry()

	h := api.NewEvalHandler(fakePipeline{}, hub, registry, log)

	r := gin.New()
	r.POST("/evals", h.Start)

	body := `{"gold_queries":[{"query":"climate policy","country":"us","expected_ids":["doc-1"],"k":5}]}`
	w := doRequest(r, http.MethodPost, "/evals", body)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if resp.RunID == "" {
		t.Fatal("expected a non-empty run_id")
	}

	deadline := time.After(2 * time.Second)
	for {
		active, err := registry.IsRunActive(context.Background(), resp.RunID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !active {
			return
		}

		select {
		case <-deadline:
			t.Fatal("timed out waiting for the background evaluation run to finish")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
