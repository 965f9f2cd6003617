// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/evidence/sniff"
	"github.com/compassoutlaw/rosetta/internal/rosetta"
	"github.com/compassoutlaw/rosetta/internal/tracker"
)

var (
	convertMime   string
	convertOutDir string
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Convert source documents and score them",
	Long: `Converts each file through the analysis service, one at a time with the
configured batch delay between files. The first failure stops the batch.

Each result is written to <out>/<file>.rosetta.json when --out is set, and a
summary line is printed per file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertMime, "mime", "", "MIME type for every file (default: sniffed per file)")
	convertCmd.Flags().StringVarP(&convertOutDir, "out", "o", "", "Directory for JSON results")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, cleanup, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	items := make([]rosetta.Item, 0, len(args))
	for _, path := range args {
		item, err := readItem(path, convertMime)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	pipeline := tracker.New()
	if err := pipeline.Start(); err != nil {
		return err
	}

	results, batchErr := a.conv.Batch(ctx, items, cfg.BatchDelay)
	if batchErr != nil {
		_ = pipeline.Fail(batchErr.Error())
	} else {
		_ = pipeline.Advance()
	}

	if err := printResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if convertOutDir != "" {
		if err := writeResults(convertOutDir, results); err != nil {
			return err
		}
	}
	printPipeline(cmd.OutOrStdout(), pipeline)
	return batchErr
}

// readItem loads path and sniffs its MIME type unless mime is given.
func readItem(path, mime string) (rosetta.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rosetta.Item{}, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	if mime == "" {
		mime = sniff.Default().MimeTypeOr(sniff.Source{FileName: name, Content: data}, "application/octet-stream")
		logger.Debug("sniffed mime type", zap.String("file", name), zap.String("mime_type", mime))
	}
	return rosetta.Item{Content: string(data), FileName: name, MimeType: mime}, nil
}

func printResults(w io.Writer, results []*evidence.ConversionResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCLASS\tFORMAT\tSCORE\tTIER\tMANIFEST")
	for _, r := range results {
		format := string(r.OptimalFormat)
		if r.RequiresLocalPipeline {
			format += " (local parquet)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Manifest.FileName, r.Manifest.Classification, format,
			r.EvidenceScore, evidence.TierFor(r.EvidenceScore), r.Manifest.ID)
	}
	return tw.Flush()
}

func writeResults(dir string, results []*evidence.ConversionResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, r := range results {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		name := resultName(r.Manifest.FileName)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// resultName maps a manifest file name onto a file name inside the output
// directory. Directory parts are dropped.
func resultName(fileName string) string {
	base := filepath.Base(fileName)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		base = "untitled"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".rosetta.json"
}

func printPipeline(w io.Writer, t *tracker.Tracker) {
	parts := make([]string, 0, len(tracker.Stages))
	for _, s := range t.Snapshot() {
		parts = append(parts, fmt.Sprintf("%s:%s", s.Stage, s.Status))
	}
	fmt.Fprintf(w, "\npipeline %s\n", strings.Join(parts, " > "))
	if reason := t.FailureReason(); reason != "" {
		fmt.Fprintf(w, "failed: %s\n", reason)
	}
}
