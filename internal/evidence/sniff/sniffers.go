// SPDX-License-Identifier: Apache-2.0

package sniff

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// PDFSniffer recognises PDF files by hint, extension or the %PDF- magic.
type PDFSniffer struct{}

func NewPDFSniffer() *PDFSniffer { return &PDFSniffer{} }

func (s *PDFSniffer) Name() string { return "pdf" }

func (s *PDFSniffer) CanHandle(src Source) bool {
	if src.hint() == "pdf" || src.ext() == ".pdf" {
		return true
	}
	return bytes.HasPrefix(src.Content, []byte("%PDF-"))
}

func (s *PDFSniffer) MimeType(Source) string { return "application/pdf" }

// officeTypes maps office document extensions to their vnd. MIME types.
var officeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".odt":  "application/vnd.oasis.opendocument.text",
}

// OfficeSniffer recognises word-processor and spreadsheet files by extension.
type OfficeSniffer struct{}

func NewOfficeSniffer() *OfficeSniffer { return &OfficeSniffer{} }

func (s *OfficeSniffer) Name() string { return "office" }

func (s *OfficeSniffer) CanHandle(src Source) bool {
	_, ok := officeTypes[src.ext()]
	return ok
}

func (s *OfficeSniffer) MimeType(src Source) string { return officeTypes[src.ext()] }

type JSONSniffer struct{}

func NewJSONSniffer() *JSONSniffer { return &JSONSniffer{} }

func (s *JSONSniffer) Name() string { return "json" }

// CanHandle accepts a json hint or extension, or content that is a valid
// JSON object or array.
func (s *JSONSniffer) CanHandle(src Source) bool {
	if src.hint() == "json" || src.ext() == ".json" {
		return true
	}
	trimmed := bytes.TrimSpace(src.Content)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return json.Valid(trimmed)
}

func (s *JSONSniffer) MimeType(Source) string { return "application/json" }

// MarkdownSniffer accepts a markdown hint or extension, or content that
// begins with or contains a heading line.
type MarkdownSniffer struct{}

func NewMarkdownSniffer() *MarkdownSniffer { return &MarkdownSniffer{} }

func (s *MarkdownSniffer) Name() string { return "markdown" }

func (s *MarkdownSniffer) CanHandle(src Source) bool {
	switch src.hint() {
	case "markdown", "md":
		return true
	}
	if src.ext() == ".md" || src.ext() == ".markdown" {
		return true
	}
	content := strings.TrimSpace(string(src.Content))
	return strings.HasPrefix(content, "# ") || strings.Contains(content, "\n# ") || strings.Contains(content, "\n## ")
}

func (s *MarkdownSniffer) MimeType(Source) string { return "text/markdown" }

type YAMLSniffer struct{}

func NewYAMLSniffer() *YAMLSniffer { return &YAMLSniffer{} }

func (s *YAMLSniffer) Name() string { return "yaml" }

// CanHandle accepts a yaml hint or extension, or content whose first line
// looks like a mapping key and which decodes as a YAML mapping.
func (s *YAMLSniffer) CanHandle(src Source) bool {
	switch src.hint() {
	case "yaml", "yml":
		return true
	}
	if src.ext() == ".yaml" || src.ext() == ".yml" {
		return true
	}
	content := strings.TrimSpace(string(src.Content))
	if content == "" || strings.ContainsAny(content[:1], "#{[") {
		return false
	}
	first := strings.SplitN(content, "\n", 2)[0]
	if !strings.Contains(first, ": ") && !strings.HasSuffix(first, ":") {
		return false
	}
	var doc map[string]any
	return yaml.Unmarshal([]byte(content), &doc) == nil && len(doc) > 0
}

func (s *YAMLSniffer) MimeType(Source) string { return "application/yaml" }

// TextSniffer is the fallback for any valid UTF-8 content.
type TextSniffer struct{}

func NewTextSniffer() *TextSniffer { return &TextSniffer{} }

func (s *TextSniffer) Name() string { return "text" }

func (s *TextSniffer) CanHandle(src Source) bool {
	switch src.hint() {
	case "text", "txt":
		return true
	}
	return len(src.Content) > 0 && utf8.Valid(src.Content)
}

func (s *TextSniffer) MimeType(Source) string { return "text/plain" }
