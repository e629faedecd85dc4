package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/models"
)

// SearchHandler serves the hybrid search endpoint.
type SearchHandler struct {
	svc domain.SearchService
	log *logrus.Logger
}

// NewSearchHandler creates a SearchHandler backed by the given search service.
func NewSearchHandler(svc domain.SearchService, log *logrus.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, log: log}
}

type searchRequest struct {
	Text           string   `json:"text"`
	Country        string   `json:"country"`
	K              *int     `json:"k"`
	MustDomains    []string `json:"must_domains"`
	MustNotDomains []string `json:"must_not_domains"`
}

type searchResponse struct {
	Results  []models.FusedResult `json:"results"`
	Degraded bool                 `json:"degraded"`
	Cached   bool                 `json:"cached"`
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	raw := models.RawQuery{
		Text:           req.Text,
		Country:        req.Country,
		K:              req.K,
		MustDomains:    req.MustDomains,
		MustNotDomains: req.MustNotDomains,
	}

	result, err := h.svc.Search(c.Request.Context(), raw)
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, searchResponse{Results: result.Results, Degraded: result.Degraded, Cached: result.Cached})
}

func (h *SearchHandler) respondSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidQuery):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrTimeout):
		respondError(c, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, models.ErrRetrievalFailed):
		respondError(c, http.StatusBadGateway, "retrieval_failed", err.Error())
	default:
		h.log.WithError(err).Error("search failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "search failed")
	}
}
