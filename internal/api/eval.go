package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/evaluator"
	"github.com/lexisearch/lexisearch/internal/evalrun"
	"github.com/lexisearch/lexisearch/internal/models"
	"github.com/lexisearch/lexisearch/internal/ws"
)

// pipelineRunner is the subset of *search.Service the Evaluator needs. It
// mirrors the package-private interface of the same name in internal/evaluator.
type pipelineRunner interface {
	RunPipelineForEval(ctx context.Context, normalized models.NormalizedQuery) ([]models.FusedResult, bool, error)
}

// EvalHandler starts gold-query evaluation runs and streams their progress
// over the /ws/eval websocket.
type EvalHandler struct {
	pipeline pipelineRunner
	hub      *ws.Hub
	registry *evalrun.Registry
	log      *logrus.Logger
}

// NewEvalHandler creates an EvalHandler.
func NewEvalHandler(pipeline pipelineRunner, hub *ws.Hub, registry *evalrun.Registry, log *logrus.Logger) *EvalHandler {
	return &EvalHandler{pipeline: pipeline, hub: hub, registry: registry, log: log}
}

type startEvalRequest struct {
	GoldQueries []models.GoldQuery `json:"gold_queries"`
}

type startEvalResponse struct {
	RunID string `json:"run_id"`
}

// evalProgressEvent is broadcast once per gold query as it completes.
type evalProgressEvent struct {
	Query models.QueryMetrics `json:"query"`
}

// evalCompleteEvent is broadcast once, after the full suite finishes.
type evalCompleteEvent struct {
	Summary models.EvalSummary `json:"summary"`
	Error   string             `json:"error,omitempty"`
}

// Start handles POST /api/v1/evals. It runs the suite in the background and
// returns immediately with a run ID clients can watch over GET /ws/eval.
func (h *EvalHandler) Start(c *gin.Context) {
	var req startEvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	runID := uuid.NewString()
	h.registry.Start(runID)

	ev := evaluator.New(h.pipeline, h.log, func(qm models.QueryMetrics) {
		h.broadcast(runID, "progress", evalProgressEvent{Query: qm})
	})

	// Evaluation runs independently of the triggering request's lifetime.
	go func() {
		defer h.registry.Finish(runID)

		summary, err := ev.Evaluate(context.Background(), req.GoldQueries)

		evt := evalCompleteEvent{Summary: summary}
		if err != nil {
			evt.Error = err.Error()
		}

		h.broadcast(runID, "complete", evt)
	}()

	c.JSON(http.StatusAccepted, startEvalResponse{RunID: runID})
}

func (h *EvalHandler) broadcast(runID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).Error("marshaling eval event")
		return
	}

	h.hub.BroadcastEvent(eventType, runID, data)
}
