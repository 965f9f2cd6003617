// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compassoutlaw/rosetta/internal/evidence"
)

var (
	scoreQuality string
	scoreSuccess bool
	scoreSchema  string
	scoreMime    string
	scoreFile    string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute an evidence score",
	Long: `Computes the 0-100 evidence score from a source quality, a conversion
outcome and an optional schema verdict.

Pass --file to detect the source quality from a file instead of --quality.

Examples:
  rosetta score --quality digital --success --schema valid
  rosetta score --file scan.pdf --success`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreQuality, "quality", "", "Source quality: digital, highres_scan or lowres")
	scoreCmd.Flags().BoolVar(&scoreSuccess, "success", false, "The conversion produced content")
	scoreCmd.Flags().StringVar(&scoreSchema, "schema", "", "Schema verdict: valid, invalid, or empty when not applicable")
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "Detect the source quality from this file")
	scoreCmd.Flags().StringVar(&scoreMime, "mime", "", "MIME type of --file (default: sniffed)")
}

func runScore(cmd *cobra.Command, _ []string) error {
	quality, err := resolveQuality()
	if err != nil {
		return err
	}
	schema, err := parseSchemaVerdict(scoreSchema)
	if err != nil {
		return err
	}
	score := evidence.Score(quality, scoreSuccess, schema)
	fmt.Fprintf(cmd.OutOrStdout(), "source quality: %s\nevidence score: %d/100\ntier: %s\n",
		quality, score, evidence.TierFor(score))
	return nil
}

func resolveQuality() (evidence.SourceQuality, error) {
	if scoreFile != "" {
		item, err := readItem(scoreFile, scoreMime)
		if err != nil {
			return "", err
		}
		return evidence.DetectSourceQuality(item.MimeType, item.Content), nil
	}
	switch q := evidence.SourceQuality(scoreQuality); q {
	case evidence.QualityDigital, evidence.QualityHighResScan, evidence.QualityLowRes:
		return q, nil
	}
	return "", fmt.Errorf("--quality must be digital, highres_scan or lowres (got %q)", scoreQuality)
}

func parseSchemaVerdict(s string) (*bool, error) {
	switch s {
	case "":
		return nil, nil
	case "valid":
		return evidence.Bool(true), nil
	case "invalid":
		return evidence.Bool(false), nil
	}
	return nil, fmt.Errorf("--schema must be valid, invalid or empty (got %q)", s)
}
