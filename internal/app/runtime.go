package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/todolist/internal/mcp"
)

const healthShutdownTimeout = 5 * time.Second

// Serve runs the HTTP API, the MCP server when MCP_ADDR is set, and the
// background workers enabled in configuration, until ctx is cancelled.
func (c *Container) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	c.startBackground(ctx, &wg)

	errCh := make(chan error, 2)

	server := c.APIServer()
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if c.Config.MCPAddr != "" {
		mcpCfg := mcp.ServerConfig{
			Addr:      c.Config.MCPAddr,
			AuthToken: c.Config.MCPAuthToken,
			Version:   c.Config.AppVersion,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mcp.Serve(ctx, mcpCfg, c.MCPDependencies(), c.Logger); err != nil && ctx.Err() == nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		c.Logger.Error("server failed", "error", runErr)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.Config.HTTPShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		c.Logger.Warn("API server shutdown error", "error", err)
	}

	c.OutboxProcessor.Stop()
	wg.Wait()
	return runErr
}

// RunWorker runs the past-due sweeper and the outbox processor with a small
// health server, until ctx is cancelled.
func (c *Container) RunWorker(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.Logger.Info("starting todolist worker")

	var wg sync.WaitGroup
	c.startBackground(ctx, &wg)

	if c.Config.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              c.Config.WorkerHealthAddr,
			Handler:           c.WorkerHealthHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			c.Logger.Info("health server starting", "addr", c.Config.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				c.Logger.Error("health server error", "error", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				c.Logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	c.Logger.Info("shutting down worker")

	c.OutboxProcessor.Stop()
	wg.Wait()

	stats := c.OutboxProcessor.GetStats()
	c.Logger.Info("worker stopped",
		"published", stats.PublishedCount,
		"failed", stats.FailedCount,
		"dead", stats.DeadCount,
	)
	return nil
}

// startBackground starts the outbox processor and the sweeper when enabled.
// The sweeper goroutine is tracked by wg and exits with ctx.
func (c *Container) startBackground(ctx context.Context, wg *sync.WaitGroup) {
	if c.Config.OutboxProcessorEnabled {
		if err := c.OutboxProcessor.Start(ctx); err != nil {
			c.Logger.Error("failed to start outbox processor", "error", err)
		}
	} else {
		c.Logger.Info("outbox processor disabled")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.PastDueSweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Error("past-due sweeper exited", "error", err)
		}
	}()
}

// WorkerHealthHandler serves /healthz with processor and sweeper state and
// /readyz with a database ping.
func (c *Container) WorkerHealthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := c.OutboxProcessor.GetStats()
		writeHealthJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"sweeper_running":   c.PastDueSweeper.IsRunning(),
			"outbox_running":    stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.DBConn.Ping(checkCtx); err != nil {
			writeHealthJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		writeHealthJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
	return mux
}

func writeHealthJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
