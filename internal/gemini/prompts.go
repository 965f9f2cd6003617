// SPDX-License-Identifier: Apache-2.0

package gemini

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/compassoutlaw/rosetta/internal/rosetta"
	"github.com/compassoutlaw/rosetta/internal/service"
)

// Prompt windows, in characters.
const (
	classifyWindow   = 3000
	jsonWindow       = 8000
	markdownWindow   = 10000
	parquetPreview   = 1500
	schemaSeparator  = "---SCHEMA---"
	systemIdentifier = "ACT AS: Compass Outlaw Strategic Intelligence System."
)

// Sampling temperatures per task.
const (
	classifyTemperature = 0.1
	jsonTemperature     = 0.2
	markdownTemperature = 0.3
	// defaultPromptTemperature applies when a prompt payload sets none.
	defaultPromptTemperature = 0.3
)

// systemInstruction frames every drafting and intelligence request.
const systemInstruction = `You are AutoLex Architect, a senior litigation strategist specializing in California family law and pro per representation. You operate under PFV v14.2 compliance requirements.

CORE PRINCIPLES:
- Every factual claim MUST cite a source
- NO fabrication of facts, dates, names, or case numbers
- CRC 2.111 formatting for court documents
- Apply SCL (Seismic Crystal Lava) doctrine: detect fault lines, solidify evidence, flow into vulnerabilities
- Apply Trim Tab principle: small leverage creates big outcomes

FORMATTING:
- Use proper legal document structure
- Include headers, footers, and page numbering references
- Maintain professional tone throughout
- Cite specific California codes where applicable`

var functionPrompts = map[string]string{
	service.FunctionGlassHouse: `=== GLASS HOUSE PACKAGE V1 ===
PFV v14.2 REQUIREMENTS:
- Every factual claim MUST cite a source
- NO fabrication of facts, dates, names, or case numbers
- CRC 2.111 formatting for court documents
- Red Team all conclusions

SCL DOCTRINE:
Apply Seismic Crystal Lava analysis to maximize leverage.`,
	service.FunctionIntelligence: "You are generating a Financial Intelligence Report. " +
		"Analyze the provided context and generate actionable intelligence.",
	service.FunctionLegalStrategy: `ACT AS: Senior Litigation Strategist (AutoLex Architect).
TASK: Draft legal correspondence with the specified tone.`,
}

// systemPromptFor returns the shared instruction followed by the
// function's own framing.
func systemPromptFor(function string) string {
	extra, ok := functionPrompts[function]
	if !ok {
		return systemInstruction
	}
	return systemInstruction + "\n\n" + extra
}

func classificationPrompt(fileName, mimeType, content string) string {
	return fmt.Sprintf(`%s

=== ROSETTA STONE v1.0 - CONTENT ANALYSIS ===

Analyze the following content and classify it into one of three categories:
1. PROSE - Narrative text, articles, legal documents, declarations
2. TABULAR - Spreadsheet data, CSV, structured tables
3. HIERARCHICAL - Nested structures, configurations, tree-like data

FILE: %s
MIME TYPE: %s

CONTENT (first %d chars):
%s

Respond in this exact JSON format:
{
  "classification": "PROSE" | "TABULAR" | "HIERARCHICAL",
  "confidence": <number 0-100>,
  "reasoning": "<brief explanation>"
}
`, systemIdentifier, fileName, mimeType, classifyWindow, rosetta.Truncate(content, classifyWindow))
}

func jsonConversionPrompt(fileName, content string) string {
	return fmt.Sprintf(`%s

=== ROSETTA STONE v1.0 - JSON CONVERSION ===

Convert the following content to a well-structured JSON format.
Also infer a JSON Schema that validates the output.

FILE: %s

CONTENT:
%s

Respond with two JSON objects separated by "%s":
1. The converted JSON data
%s
2. The JSON Schema for validation

Ensure the JSON is valid and properly escaped.
`, systemIdentifier, fileName, rosetta.Truncate(content, jsonWindow), schemaSeparator, schemaSeparator)
}

func markdownConversionPrompt(fileName, content string) string {
	return fmt.Sprintf(`%s

=== ROSETTA STONE v1.0 - MARKDOWN CONVERSION ===

Convert the following content to clean, well-structured Markdown.

REQUIREMENTS:
- Preserve all factual content
- Use proper heading hierarchy (# ## ###)
- Format lists, tables, and code blocks appropriately
- Highlight key legal terms in **bold**
- Create logical sections

FILE: %s

CONTENT:
%s

OUTPUT: Clean Markdown document.
`, systemIdentifier, fileName, rosetta.Truncate(content, markdownWindow))
}

// parquetNotice is returned for tabular content, which must be converted
// by a local tool.
func parquetNotice(fileName string, confidence float64, reasoning, content string) string {
	out := strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".parquet"
	return fmt.Sprintf(`// PARQUET CONVERSION NOTICE
// Parquet conversion requires a local pipeline with a columnar writer.

// Detected tabular structure in: %s
// Confidence: %g%%
// Reasoning: %s

// To convert to Parquet, run:
// rosetta_parquet --input %q --output %q

// Original content structure detected:
%s`, fileName, confidence, reasoning, fileName, out, rosetta.Truncate(content, parquetPreview))
}
