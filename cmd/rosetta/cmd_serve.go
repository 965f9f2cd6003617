// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/server"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/tool"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the conversion and scoring API:

  POST /v1/convert          convert and score a document
  POST /v1/score            compute an evidence score
  POST /v1/detect           detect source quality
  GET  /v1/manifests        recent manifests
  GET  /v1/manifests/{id}   one manifest
  GET  /metrics             Prometheus metrics
  /mcp                      MCP over streamable HTTP
  GET  /health              liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	inv, err := newInvoker(ctx, cfg, logger)
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		logger.Warn("analysis service not configured; /v1/convert answers 503")
	case err != nil:
		return err
	}
	a, cleanup, err := buildApp(ctx, cfg, logger, inv)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := serveHandler(a, logger)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveHandler mounts the HTTP API and the MCP endpoint over a.
func serveHandler(a *app, log *zap.Logger) http.Handler {
	mcpServer := mcp.NewServer(mcpImplementation(), nil)
	tool.Register(mcpServer, a.conv)

	return server.New(a.conv,
		server.WithManifests(a.store),
		server.WithGatherer(a.registry),
		server.WithMCP(mcpServer),
		server.WithLogger(log.Named("http")),
	).Handler()
}
