package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexisearch/lexisearch/internal/api"
	"github.com/lexisearch/lexisearch/internal/config"
	"github.com/lexisearch/lexisearch/internal/evalrun"
	"github.com/lexisearch/lexisearch/internal/ws"
)

const shutdownGracePeriod = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the search service HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.pool.Close()

	hub := ws.NewHub(c.log)
	go hub.Run(ctx)

	registry := evalrun.NewRegistry()

	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:                 c.log,
		Pool:                c.pool,
		Hub:                 hub,
		Search:              c.search,
		Index:               c.index,
		EvalPipeline:        c.search,
		EvalRegistry:        registry,
		APIKey:              c.cfg.APIKey.Value(),
		CORSOrigins:         c.cfg.CORSOrigins,
		Version:             config.Version,
		EmbeddingEndpoint:   c.cfg.EmbeddingEndpoint,
		EmbeddingModel:      c.cfg.EmbeddingModel,
		EmbeddingDimensions: c.cfg.EmbeddingDimensions,
		DeadlineMs:          c.cfg.DeadlineMs,
	})

	srv := &http.Server{
		Addr:         c.cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		c.log.WithField("addr", srv.Addr).Info("search service listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}

		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		c.log.Info("shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	case err := <-serveErr:
		return err
	}
}
