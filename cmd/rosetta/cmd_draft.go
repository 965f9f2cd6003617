// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/compassoutlaw/rosetta/internal/draft"
)

var (
	draftRecipient string
	draftFacts     string
	draftOutcome   string
	draftTone      string
	draftTitle     string
	draftType      string
	draftBatch     string
	draftOutDir    string
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft a filing with the legal-strategy function",
	Long: `Generates a filing from a strategy brief and exports it as
<title>_filing.json in --out.

With --batch, drafts every entry of a YAML file in order, waiting the
configured batch delay between entries. The first failure stops the batch;
documents drafted before it are still exported.

Examples:
  rosetta draft --title "Motion to Compel" --type motion \
    --recipient "Opposing counsel" --facts "..." --outcome "..." --tone formal
  rosetta draft --batch filings.yaml --out ./filings`,
	Args: cobra.NoArgs,
	RunE: runDraft,
}

func init() {
	f := draftCmd.Flags()
	f.StringVar(&draftRecipient, "recipient", "", "Who the filing is addressed to")
	f.StringVar(&draftFacts, "facts", "", "Key facts of the matter")
	f.StringVar(&draftOutcome, "outcome", "", "Desired outcome")
	f.StringVar(&draftTone, "tone", string(draft.ToneFormal), "AGGRESSIVE, COLLABORATIVE or FORMAL")
	f.StringVar(&draftTitle, "title", "", "Document title")
	f.StringVar(&draftType, "type", string(draft.TypeMotion), "MOTION, DECLARATION, RFO or EXHIBIT")
	f.StringVar(&draftBatch, "batch", "", "YAML file of drafts to generate in order")
	f.StringVarP(&draftOutDir, "out", "o", ".", "Export directory")
}

func runDraft(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	specs, err := draftSpecs()
	if err != nil {
		return err
	}

	inv, err := newInvoker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	drafter := draft.NewDrafter(inv, logger.Named("draft"))

	docs, batchErr := drafter.Batch(ctx, specs, cfg.BatchDelay)
	if err := os.MkdirAll(draftOutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", draftOutDir, err)
	}
	for _, doc := range docs {
		path, err := draft.Export(draftOutDir, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", doc.DocumentType, path)
	}
	return batchErr
}

func draftSpecs() ([]draft.Spec, error) {
	if draftBatch != "" {
		f, err := os.Open(draftBatch)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return draft.LoadSpecs(f)
	}

	docType, err := draft.ParseDocumentType(draftType)
	if err != nil {
		return nil, err
	}
	title := draftTitle
	if title == "" {
		title = string(docType)
	}
	return []draft.Spec{{
		Title: title,
		Type:  docType,
		Request: draft.StrategyRequest{
			Recipient:      draftRecipient,
			KeyFacts:       draftFacts,
			DesiredOutcome: draftOutcome,
			Tone:           draft.Tone(strings.ToUpper(draftTone)),
		},
	}}, nil
}
