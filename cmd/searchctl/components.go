package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/cache"
	"github.com/lexisearch/lexisearch/internal/config"
	"github.com/lexisearch/lexisearch/internal/db"
	"github.com/lexisearch/lexisearch/internal/dbpool"
	"github.com/lexisearch/lexisearch/internal/domain"
	"github.com/lexisearch/lexisearch/internal/embedding"
	"github.com/lexisearch/lexisearch/internal/fusion"
	"github.com/lexisearch/lexisearch/internal/indexer"
	"github.com/lexisearch/lexisearch/internal/mirror"
	"github.com/lexisearch/lexisearch/internal/retriever"
	"github.com/lexisearch/lexisearch/internal/search"
	"github.com/lexisearch/lexisearch/internal/store"
)

// components bundles the pipeline pieces shared by the serve and run-evals
// subcommands: both wire a full DocumentStore/Embedder/Retriever/Cache
// stack, they only differ in what sits on top (HTTP router vs. evaluator).
type components struct {
	cfg    *config.Config
	pool   *dbpool.Pool
	search *search.Service
	index  *indexer.Indexer
	log    *logrus.Logger
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	log.SetLevel(parsed)
	log.SetFormatter(&logrus.JSONFormatter{})

	return log
}

func buildComponents(ctx context.Context) (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(cfg.LogLevel)

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	docStore := store.NewDocumentStore(store.Base{Pool: pool, Log: log}, cfg.EmbeddingDimensions)

	if err := docStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	if err := db.EnsureVectorDimensions(ctx, pool, log, cfg.EmbeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring embedding column dimensions: %w", err)
	}

	embedder := embedding.NewClient(cfg.EmbeddingEndpoint, cfg.EmbeddingModel, cfg.EmbeddingDimensions)

	cacheStore, err := buildCache(cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	mirrors, err := buildMirrors(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	r := retriever.New(docStore, embedder, log, cfg.CandidatePoolSize)

	weights := fusion.Weights{
		Lexical:   cfg.WLexical,
		Vector:    cfg.WVector,
		Authority: cfg.WAuthority,
		Freshness: cfg.WFreshness,
	}

	svc := search.New(r, cacheStore, weights, search.Defaults{K: cfg.DefaultK}, cfg.DefaultTTLMs, log)
	idx := indexer.New(docStore, embedder, mirrors, log)

	return &components{cfg: cfg, pool: pool, search: svc, index: idx, log: log}, nil
}

func buildCache(cfg *config.Config, log *logrus.Logger) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "redis":
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}

		return cache.NewRedis(goredis.NewClient(opts), log), nil
	default:
		lru, err := cache.NewLRU(cfg.CacheCapacity, log)
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}

		return lru, nil
	}
}

func buildMirrors(cfg *config.Config) ([]domain.MirrorAdapter, error) {
	if cfg.MirrorAdapter == "" {
		return nil, nil
	}

	adapter, err := mirror.New(cfg.MirrorAdapter, cfg.MirrorURL, cfg.MirrorAPIKey.Value())
	if err != nil {
		return nil, fmt.Errorf("creating mirror adapter: %w", err)
	}

	return []domain.MirrorAdapter{adapter}, nil
}
