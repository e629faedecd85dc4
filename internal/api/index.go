package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/models"
)

// IndexHandler serves document ingestion and removal.
type IndexHandler struct {
	svc domain.IndexService
	log *logrus.Logger
}

// NewIndexHandler creates an IndexHandler backed by the given index service.
func NewIndexHandler(svc domain.IndexService, log *logrus.Logger) *IndexHandler {
	return &IndexHandler{svc: svc, log: log}
}

type upsertRequest struct {
	Documents []models.Document `json:"documents"`
}

type upsertResponse struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// Upsert handles POST /api/v1/index.
func (h *IndexHandler) Upsert(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	indexed, skipped, err := h.svc.Upsert(c.Request.Context(), req.Documents)
	if err != nil {
		h.log.WithError(err).Error("index upsert failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "index upsert failed")

		return
	}

	c.JSON(http.StatusOK, upsertResponse{Indexed: indexed, Skipped: skipped})
}

// Delete handles DELETE /api/v1/index.
func (h *IndexHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), req.IDs); err != nil {
		h.log.WithError(err).Error("index delete failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "index delete failed")

		return
	}

	c.Status(http.StatusNoContent)
}
