// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/config"
	"github.com/compassoutlaw/rosetta/internal/preflight"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/store"
)

var preflightProbe bool

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Run the pre-filing checklist",
	Long: `Runs the checklist in order with the configured delay between steps.
A failing blocker stops the run; other failures are reported and the run
continues. --probe adds a live round trip to the analysis service.`,
	Args: cobra.NoArgs,
	RunE: runPreflight,
}

func init() {
	preflightCmd.Flags().BoolVar(&preflightProbe, "probe", false, "Send a sample conversion to the analysis service")
}

func runPreflight(cmd *cobra.Command, _ []string) error {
	runner := preflight.NewRunner(cfg.PreflightDelay, logger.Named("preflight"))
	report, err := runner.Run(cmd.Context(), checklist(cfg, logger, preflightProbe))
	printReport(cmd.OutOrStdout(), report)
	if err != nil {
		return err
	}
	if report.Halted {
		return errors.New(report.HaltMessage)
	}
	return nil
}

// checklist returns the pre-filing checks for c.
func checklist(c config.Config, log *zap.Logger, probe bool) []preflight.Check {
	checks := []preflight.Check{
		{
			Step:           1,
			Name:           "Analysis service configured",
			Blocker:        true,
			FailureMessage: "Configure ROSETTA_FUNCTIONS_URL or GEMINI_API_KEY before converting evidence.",
			Run: func(context.Context) error {
				if c.Backend() == config.BackendNone {
					return service.ErrNotConfigured
				}
				return nil
			},
		},
		{
			Step:           2,
			Name:           "Manifest ledger writable",
			Blocker:        true,
			FailureMessage: "The manifest ledger could not be opened; check ROSETTA_STORE_PATH.",
			Run: func(ctx context.Context) error {
				st, err := store.Open(ctx, c.Store.Path)
				if err != nil {
					return err
				}
				defer st.Close()
				return st.Ping(ctx)
			},
		},
		{
			Step:           3,
			Name:           "PDF validation endpoint configured",
			FailureMessage: "PDF/A validation is unavailable; use the professional workaround.",
			Run: func(context.Context) error {
				if c.PDF.Endpoint == "" {
					return errors.New("ROSETTA_PDF_ENDPOINT is not set")
				}
				return nil
			},
		},
	}
	if probe {
		checks = append(checks, preflight.Check{
			Step:           4,
			Name:           "Analysis service responds",
			FailureMessage: "The analysis service did not answer a sample conversion.",
			Run: func(ctx context.Context) error {
				inv, err := newInvoker(ctx, c, log)
				if err != nil {
					return err
				}
				_, err = inv.Invoke(ctx, service.FunctionRosettaStone, service.ConversionPayload{
					Content:  "Preflight sample.",
					FileName: "preflight.txt",
					MimeType: "text/plain",
				})
				return err
			},
		})
	}
	return checks
}

func printReport(w io.Writer, r preflight.Report) {
	for _, res := range r.Results {
		kind := ""
		if res.Blocker {
			kind = " [blocker]"
		}
		fmt.Fprintf(w, "%d. %-40s %s%s\n", res.Step, res.Name, res.Outcome, kind)
		if res.Error != "" {
			fmt.Fprintf(w, "   %s\n", res.Error)
		}
	}
	if r.Halted {
		fmt.Fprintf(w, "\nhalted: %s\n", r.HaltMessage)
	}
}
