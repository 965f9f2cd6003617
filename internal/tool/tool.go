// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the evidence toolkit as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/compassoutlaw/rosetta/internal/rosetta"
)

// Register adds every tool to server. convert_document is registered only
// when conv is non-nil.
func Register(server *mcp.Server, conv *rosetta.Converter) {
	mcp.AddTool(server, MetadataScoreEvidence, ScoreEvidence)
	mcp.AddTool(server, MetadataDetectSourceQuality, DetectSourceQuality)
	if conv != nil {
		mcp.AddTool(server, MetadataConvertDocument, ConvertDocument(conv))
	}
}
