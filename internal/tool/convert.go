// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/rosetta"
)

// MetadataConvertDocument describes the convert_document tool.
var MetadataConvertDocument = &mcp.Tool{
	Name: "convert_document",
	Description: "Convert a source document for legal drafting. The content is classified as PROSE, " +
		"TABULAR or HIERARCHICAL and converted to Markdown or JSON. The result carries a 0-100 " +
		"evidence score, a PFV metadata block for audit, and a manifest. " +
		"Scores of 70 or more are Tier 1 Verified; TABULAR content is flagged for a local Parquet pipeline.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw text content of the document. Only the first 10000 characters are analysed.",
			},
			"file_name": map[string]interface{}{
				"type":        "string",
				"description": "Source file name, recorded in the metadata block.",
			},
			"mime_type": map[string]interface{}{
				"type":        "string",
				"description": "MIME type of the source. Sniffed from the content when omitted.",
			},
		},
	},
}

// InputConvertDocument is the input for the ConvertDocument tool.
type InputConvertDocument struct {
	Content  string `json:"content"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

// OutputConvertDocument is the output for the ConvertDocument tool.
type OutputConvertDocument struct {
	ConvertedContent      string                  `json:"converted_content"`
	OptimalFormat         evidence.Format         `json:"optimal_format"`
	Classification        evidence.Classification `json:"classification"`
	EvidenceScore         int                     `json:"evidence_score"`
	Tier                  evidence.Tier           `json:"tier"`
	PFVMetadata           string                  `json:"pfv_metadata"`
	JSONSchema            map[string]any          `json:"json_schema,omitempty"`
	SchemaConforms        *bool                   `json:"schema_conforms,omitempty"`
	RequiresLocalPipeline bool                    `json:"requires_local_pipeline"`
	ManifestID            string                  `json:"manifest_id"`
}

// ConvertDocument returns a handler for convert_document backed by conv.
func ConvertDocument(conv *rosetta.Converter) mcp.ToolHandlerFor[InputConvertDocument, OutputConvertDocument] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InputConvertDocument) (*mcp.CallToolResult, OutputConvertDocument, error) {
		if input.Content == "" {
			return nil, OutputConvertDocument{}, fmt.Errorf("content is required")
		}
		fileName := input.FileName
		if fileName == "" {
			fileName = "unknown"
		}
		mimeType, _ := resolveMimeType(input.MimeType, input.FileName, input.Content)

		res, err := conv.Convert(ctx, input.Content, fileName, mimeType)
		if err != nil {
			return nil, OutputConvertDocument{}, err
		}
		return nil, OutputConvertDocument{
			ConvertedContent:      res.ConvertedContent,
			OptimalFormat:         res.OptimalFormat,
			Classification:        res.Manifest.Classification,
			EvidenceScore:         res.EvidenceScore,
			Tier:                  evidence.TierFor(res.EvidenceScore),
			PFVMetadata:           res.PFVMetadata,
			JSONSchema:            res.JSONSchema,
			SchemaConforms:        res.Manifest.SchemaConforms,
			RequiresLocalPipeline: res.RequiresLocalPipeline,
			ManifestID:            res.Manifest.ID,
		}, nil
	}
}
