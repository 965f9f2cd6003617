// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/evidence/sniff"
)

// fallbackMimeType is assumed when nothing can be sniffed from the content.
const fallbackMimeType = "application/octet-stream"

// MetadataDetectSourceQuality describes the detect_source_quality tool.
var MetadataDetectSourceQuality = &mcp.Tool{
	Name: "detect_source_quality",
	Description: "Classify the provenance of a source file as digital, highres_scan or lowres " +
		"from its MIME type and content markers such as [OCR] and [SCANNED]. " +
		"When mime_type is omitted it is sniffed from the file name and content.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Text content of the source file",
			},
			"mime_type": map[string]interface{}{
				"type":        "string",
				"description": "MIME type of the source file, e.g. application/pdf or text/plain.",
			},
			"file_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional file name used for MIME sniffing.",
			},
		},
	},
}

// InputDetectSourceQuality is the input for the DetectSourceQuality tool.
type InputDetectSourceQuality struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
}

// OutputDetectSourceQuality is the output for the DetectSourceQuality tool.
type OutputDetectSourceQuality struct {
	SourceQuality evidence.SourceQuality `json:"source_quality"`
	MimeType      string                 `json:"mime_type"`
	// SnifferUsed is empty when the caller supplied the MIME type.
	SnifferUsed string `json:"sniffer_used,omitempty"`
}

// DetectSourceQuality runs the source-quality detector, sniffing the MIME
// type first when the caller did not provide one.
func DetectSourceQuality(_ context.Context, _ *mcp.CallToolRequest, input InputDetectSourceQuality) (*mcp.CallToolResult, OutputDetectSourceQuality, error) {
	if input.Content == "" {
		return nil, OutputDetectSourceQuality{}, fmt.Errorf("content is required")
	}
	mimeType, sniffer := resolveMimeType(input.MimeType, input.FileName, input.Content)
	return nil, OutputDetectSourceQuality{
		SourceQuality: evidence.DetectSourceQuality(mimeType, input.Content),
		MimeType:      mimeType,
		SnifferUsed:   sniffer,
	}, nil
}

// resolveMimeType returns given when set, otherwise the sniffed type and
// the name of the sniffer that produced it.
func resolveMimeType(given, fileName, content string) (mimeType, sniffer string) {
	if given != "" {
		return given, ""
	}
	res, err := sniff.Default().Detect(sniff.Source{FileName: fileName, Content: []byte(content)})
	if err != nil {
		return fallbackMimeType, ""
	}
	return res.MimeType, res.SnifferUsed
}
