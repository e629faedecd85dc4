package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/dbpool"
	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/evalrun"
	"github.com/lexisearch/lexisearch/internal/middleware"
	"github.com/lexisearch/lexisearch/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log    *logrus.Logger
	Pool   *dbpool.Pool
	Hub    *ws.Hub
	Search domain.SearchService
	Index  domain.IndexService
	// EvalPipeline is the narrow interface the Evaluator needs to run a gold
	// query suite outside the cache. In practice this is the same
	// *search.Service backing Search.
	EvalPipeline pipelineRunner
	EvalRegistry *evalrun.Registry

	APIKey              string
	CORSOrigins         []string
	Version             string
	EmbeddingEndpoint   string
	EmbeddingModel      string
	EmbeddingDimensions int
	DeadlineMs          int64
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.Deadline(deps.DeadlineMs))

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version, deps.EmbeddingEndpoint, deps.EmbeddingModel, deps.EmbeddingDimensions)
	search := NewSearchHandler(deps.Search, log)
	index := NewIndexHandler(deps.Index, log)
	eval := NewEvalHandler(deps.EvalPipeline, deps.Hub, deps.EvalRegistry, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require a valid static API key.
	api.Use(middleware.AuthMiddleware(deps.APIKey, log))

	api.POST("/search", search.Search)

	api.POST("/index", index.Upsert)
	api.DELETE("/index", index.Delete)

	api.POST("/evals", eval.Start)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	// The evaluator progress stream is unauthenticated at the wire level: a
	// run ID is itself an unguessable capability token, matching the spec's
	// bare GET /ws/eval path (outside the authenticated /api/v1 group).
	r.GET("/ws/eval", wsHandler(ctx, deps.Log, deps.Hub, deps.CORSOrigins, deps.EvalRegistry))

	return r
}
