// SPDX-License-Identifier: Apache-2.0

// Package sniff guesses a MIME type for content that arrives without one,
// so the source-quality detector has something to work with.
package sniff

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned when no registered sniffer claims a source.
var ErrUnknownFormat = errors.New("unknown content format")

// Source describes the raw input to the sniffing pipeline.
type Source struct {
	// Content is the raw document content.
	Content  []byte
	FileName string
	// Hint is an optional caller-supplied format name such as "pdf" or "md".
	Hint string
}

func (s Source) ext() string {
	return strings.ToLower(filepath.Ext(s.FileName))
}

func (s Source) hint() string {
	return strings.ToLower(strings.TrimSpace(s.Hint))
}

type Sniffer interface {
	CanHandle(source Source) bool
	MimeType(source Source) string
	Name() string
}

type Pipeline struct {
	sniffers []Sniffer
}

// NewPipeline creates a Pipeline that consults sniffers in order.
func NewPipeline(sniffers ...Sniffer) *Pipeline {
	return &Pipeline{sniffers: sniffers}
}

// Default returns a Pipeline with every built-in sniffer registered.
// Order matters: binary signatures are checked before structured text, and
// structured text before the plain-text fallback.
func Default() *Pipeline {
	return NewPipeline(
		NewPDFSniffer(),
		NewOfficeSniffer(),
		NewJSONSniffer(),
		NewMarkdownSniffer(),
		NewYAMLSniffer(),
		NewTextSniffer(),
	)
}

// Result is the outcome of a successful Detect.
type Result struct {
	MimeType    string `json:"mime_type"`
	SnifferUsed string `json:"sniffer_used"`
}

// Detect returns the MIME type chosen by the first sniffer that claims src.
func (p *Pipeline) Detect(src Source) (Result, error) {
	for _, s := range p.sniffers {
		if s.CanHandle(src) {
			return Result{MimeType: s.MimeType(src), SnifferUsed: s.Name()}, nil
		}
	}
	return Result{}, fmt.Errorf("%w: no sniffer matched %q (hint %q)", ErrUnknownFormat, src.FileName, src.Hint)
}

// MimeTypeOr returns the detected MIME type, or fallback when detection fails.
func (p *Pipeline) MimeTypeOr(src Source, fallback string) string {
	res, err := p.Detect(src)
	if err != nil {
		return fallback
	}
	return res.MimeType
}

// Registered returns the names of all registered sniffers.
func (p *Pipeline) Registered() []string {
	names := make([]string, len(p.sniffers))
	for i, s := range p.sniffers {
		names[i] = s.Name()
	}
	return names
}
