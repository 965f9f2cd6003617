// SPDX-License-Identifier: Apache-2.0

// Command rosetta converts legal source documents, scores their evidentiary
// quality and drafts filings from the command line, over HTTP or as an MCP
// server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/compassoutlaw/rosetta/internal/config"
)

var (
	// Global flags
	configPath string
	envFile    string
	verbose    bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "rosetta",
	Short: "Evidence conversion and scoring toolkit",
	Long: `rosetta classifies source documents as PROSE, TABULAR or HIERARCHICAL,
converts them to Markdown or JSON through an analysis service, and attaches
a 0-100 evidence score and an audit metadata block to every conversion.

Settings come from --config (YAML), a .env file and ROSETTA_* environment
variables, in increasing order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var envFiles []string
		if envFile != "" {
			envFiles = append(envFiles, envFile)
		}
		var err error
		cfg, err = config.Load(configPath, envFiles...)
		if err != nil {
			return err
		}

		// The mcp command speaks JSON-RPC on stdout; logs go to stderr.
		zc := zap.NewProductionConfig()
		if verbose || cfg.Verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(validatePDFCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(preflightCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
