// SPDX-License-Identifier: Apache-2.0

// Package service models the named-function analysis backend that the
// converter and drafter call. The backend is opaque: callers send a JSON
// payload to a function name and receive a loosely shaped response.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/compassoutlaw/rosetta/internal/evidence"
)

// Function names exposed by the backend.
const (
	FunctionRosettaStone  = "rosetta-stone"
	FunctionIntelligence  = "intelligence"
	FunctionLegalStrategy = "legal-strategy"
	FunctionGlassHouse    = "glass-house"
)

// Invoker calls a backend function by name.
type Invoker interface {
	Invoke(ctx context.Context, function string, payload any) (*Response, error)
}

// ConversionPayload is sent to the rosetta-stone function.
type ConversionPayload struct {
	Content   string `json:"content"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	Timestamp string `json:"timestamp"`
}

// PromptPayload is sent to the drafting and intelligence functions.
type PromptPayload struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

// Kind tells a fully formed conversion apart from a partial reply.
type Kind int

const (
	// KindPartial replies carry some of text, analysis and schema and must
	// be completed locally.
	KindPartial Kind = iota
	// KindFull replies carry a finished ConversionResult.
	KindFull
)

func (k Kind) String() string {
	if k == KindFull {
		return "full"
	}
	return "partial"
}

// Response is the decoded reply of a backend function.
type Response struct {
	Kind Kind

	// Document is set only for KindFull.
	Document *evidence.ConversionResult

	Text       string
	Analysis   *evidence.Analysis
	JSONSchema map[string]any
}

// wireResponse is the union of every shape the backend is known to send.
type wireResponse struct {
	Text             string             `json:"text"`
	Analysis         *evidence.Analysis `json:"analysis"`
	JSONSchema       map[string]any     `json:"jsonSchema"`
	ConvertedContent string             `json:"convertedContent"`

	// Only a finished ConversionResult carries these.
	OptimalFormat evidence.Format `json:"optimalFormat"`
	PFVMetadata   string          `json:"pfvMetadata"`
	Manifest      struct {
		ID string `json:"id"`
	} `json:"manifest"`

	Message string `json:"message"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// finished reports whether w is a complete ConversionResult: a known
// target format plus the audit block or a manifest id.
func (w *wireResponse) finished() bool {
	switch w.OptimalFormat {
	case evidence.FormatMarkdown, evidence.FormatJSON, evidence.FormatParquet:
	default:
		return false
	}
	return w.PFVMetadata != "" || w.Manifest.ID != ""
}

// Decode parses a backend reply. Only a body carrying the finished-result
// fields is KindFull; anything else is partial, with convertedContent used
// as the text when text is absent. Error-shaped bodies ({message} or
// {error, details}) with no payload fields are returned as *Error.
func Decode(function string, body []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", function, err)
	}

	if w.finished() {
		var doc evidence.ConversionResult
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode %s conversion: %w", function, err)
		}
		return &Response{Kind: KindFull, Document: &doc}, nil
	}

	text := w.Text
	if text == "" {
		text = w.ConvertedContent
	}
	hasPayload := text != "" || w.Analysis != nil || w.JSONSchema != nil
	if !hasPayload && (w.Message != "" || w.Error != "") {
		msg := w.Message
		if msg == "" {
			msg = w.Error
		}
		return nil, &Error{Function: function, Message: msg, Details: w.Details}
	}

	return &Response{
		Kind:       KindPartial,
		Text:       text,
		Analysis:   w.Analysis,
		JSONSchema: w.JSONSchema,
	}, nil
}

// DefaultReasoning is used when the backend omits its analysis.
const DefaultReasoning = "Default classification: analysis unavailable"

// Normalized is a partial reply with every field defaulted.
type Normalized struct {
	Analysis   evidence.Analysis
	Text       string
	JSONSchema map[string]any
}

// Normalize fills in what a partial reply left out: PROSE at 50% when the
// analysis is missing, and the original content when no text came back.
func Normalize(resp *Response, original string) Normalized {
	n := Normalized{
		Analysis: evidence.Analysis{
			Classification: evidence.ClassProse,
			Confidence:     50,
			Reasoning:      DefaultReasoning,
		},
		Text: original,
	}
	if resp == nil {
		return n
	}

	if resp.Analysis != nil {
		n.Analysis = *resp.Analysis
		n.Analysis.Classification = evidence.ParseClassification(string(resp.Analysis.Classification))
	}
	if resp.Text != "" {
		n.Text = resp.Text
	}
	n.JSONSchema = resp.JSONSchema
	return n
}
