// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/compassoutlaw/rosetta/internal/evidence"
)

// MetadataScoreEvidence describes the score_evidence tool.
var MetadataScoreEvidence = &mcp.Tool{
	Name: "score_evidence",
	Description: "Compute the 0-100 evidence score for a conversion using the fixed 50-10-20-20 rule: " +
		"base 50, +10 digital or +5 highres_scan source, +20 for a successful conversion (-50 otherwise), " +
		"+20 for a valid schema or -30 for an invalid one. Omit schema_valid when no schema applies. " +
		"Scores of 70 or more are Tier 1 Verified; lower scores require review.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"source_quality", "conversion_success"},
		"properties": map[string]interface{}{
			"source_quality": map[string]interface{}{
				"type": "string",
				"enum": []string{"digital", "highres_scan", "lowres"},
			},
			"conversion_success": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the conversion produced non-empty content.",
			},
			"schema_valid": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the inferred schema validated. Omit when not applicable.",
			},
		},
	},
}

// InputScoreEvidence is the input for the ScoreEvidence tool.
type InputScoreEvidence struct {
	SourceQuality     evidence.SourceQuality `json:"source_quality"`
	ConversionSuccess bool                   `json:"conversion_success"`
	SchemaValid       *bool                  `json:"schema_valid,omitempty"`
}

// OutputScoreEvidence is the output for the ScoreEvidence tool.
type OutputScoreEvidence struct {
	EvidenceScore int           `json:"evidence_score"`
	Tier          evidence.Tier `json:"tier"`
}

// ScoreEvidence computes the evidence score and tier label.
func ScoreEvidence(_ context.Context, _ *mcp.CallToolRequest, input InputScoreEvidence) (*mcp.CallToolResult, OutputScoreEvidence, error) {
	switch input.SourceQuality {
	case evidence.QualityDigital, evidence.QualityHighResScan, evidence.QualityLowRes:
	default:
		return nil, OutputScoreEvidence{}, fmt.Errorf("unknown source_quality %q", input.SourceQuality)
	}
	score := evidence.Score(input.SourceQuality, input.ConversionSuccess, input.SchemaValid)
	return nil, OutputScoreEvidence{EvidenceScore: score, Tier: evidence.TierFor(score)}, nil
}
