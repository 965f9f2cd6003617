// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/compassoutlaw/rosetta/internal/pdfcheck"
)

var pdfLocalOnly bool

var validatePDFCmd = &cobra.Command{
	Use:   "validate-pdf FILE",
	Short: "Check a PDF locally and with the validation service",
	Long: `Parses the PDF with pdfcpu and reports its page count, then uploads it to
the configured validation endpoint (ROSETTA_PDF_ENDPOINT) for font and PDF/A
checks. Use --local to skip the upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidatePDF,
}

func init() {
	validatePDFCmd.Flags().BoolVar(&pdfLocalOnly, "local", false, "Only run the local structural check")
}

func runValidatePDF(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := pdfcheck.Preflight(f)
	if err != nil {
		return fmt.Errorf("%s is not a readable PDF: %w", path, err)
	}
	fmt.Fprintf(out, "pages: %d\nimages: %t\n", report.PageCount, report.HasImages)

	if pdfLocalOnly {
		return nil
	}
	if cfg.PDF.Endpoint == "" {
		return errors.New("no validation endpoint configured (set ROSETTA_PDF_ENDPOINT or use --local)")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	res, err := newPDFClient(cfg, logger).Validate(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "font check: %s\npdf/a: %s\n", res.FontCheck, res.PDFAConversion)
	if res.DownloadURL != "" {
		fmt.Fprintf(out, "download: %s\n", res.DownloadURL)
	}
	return nil
}
