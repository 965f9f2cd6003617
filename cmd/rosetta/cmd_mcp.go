// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/rosetta"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/tool"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdio",
	Long: `Serves score_evidence and detect_source_quality over the Model Context
Protocol on stdin/stdout. convert_document is added when an analysis
service is configured.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func mcpImplementation() *mcp.Implementation {
	return &mcp.Implementation{Name: "rosetta", Version: version}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var conv *rosetta.Converter
	a, cleanup, err := newApp(ctx, cfg, logger)
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		logger.Warn("analysis service not configured; convert_document disabled")
	case err != nil:
		return err
	default:
		defer cleanup()
		conv = a.conv
	}

	server := mcp.NewServer(mcpImplementation(), nil)
	tool.Register(server, conv)
	logger.Debug("mcp server starting", zap.Bool("convert_document", conv != nil))
	return server.Run(ctx, &mcp.StdioTransport{})
}
