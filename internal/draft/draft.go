// SPDX-License-Identifier: Apache-2.0

// Package draft generates legal correspondence and filings through the
// legal-strategy function.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/service"
)

// Temperature used for every draft.
const Temperature = 0.4

// Tone steers the voice of a draft.
type Tone string

const (
	ToneAggressive    Tone = "AGGRESSIVE"
	ToneCollaborative Tone = "COLLABORATIVE"
	ToneFormal        Tone = "FORMAL"
)

var (
	ErrMissingFields = errors.New("missing required fields: recipient, keyFacts, desiredOutcome")
	ErrInvalidTone   = errors.New("invalid tone: must be AGGRESSIVE, COLLABORATIVE, or FORMAL")
	ErrInvalidType   = errors.New("invalid document type: must be MOTION, DECLARATION, RFO, or EXHIBIT")
)

// StrategyRequest is the brief handed to the strategist.
type StrategyRequest struct {
	Recipient      string `json:"recipient" yaml:"recipient"`
	KeyFacts       string `json:"keyFacts" yaml:"key_facts"`
	DesiredOutcome string `json:"desiredOutcome" yaml:"desired_outcome"`
	Tone           Tone   `json:"tone" yaml:"tone"`
}

// Validate checks that the brief is complete.
func (r StrategyRequest) Validate() error {
	if strings.TrimSpace(r.Recipient) == "" || strings.TrimSpace(r.KeyFacts) == "" || strings.TrimSpace(r.DesiredOutcome) == "" {
		return ErrMissingFields
	}
	switch r.Tone {
	case ToneAggressive, ToneCollaborative, ToneFormal:
		return nil
	}
	return fmt.Errorf("%w (got %q)", ErrInvalidTone, r.Tone)
}

// Prompt renders the strategist prompt for r.
func (r StrategyRequest) Prompt() string {
	return fmt.Sprintf(`ACT AS: Senior Litigation Strategist (AutoLex Architect).
TASK: Draft a legal correspondence.

RECIPIENT: %s
KEY FACTS: %s
DESIRED OUTCOME: %s
TONE: %s

FORMATTING RULES:
1. Use standard legal correspondence headers if applicable.
2. Cite specific California Probate Codes where relevant (infer from context).
3. Be concise, authoritative, and direct.
4. If TONE is AGGRESSIVE, focus on liability and deadlines.
5. If TONE is COLLABORATIVE, focus on mutual benefit and resolution.

OUTPUT: The full draft text of the letter/email.
`, r.Recipient, r.KeyFacts, r.DesiredOutcome, r.Tone)
}

// DocumentType classifies an exported draft.
type DocumentType string

const (
	TypeMotion      DocumentType = "MOTION"
	TypeDeclaration DocumentType = "DECLARATION"
	TypeRFO         DocumentType = "RFO"
	TypeExhibit     DocumentType = "EXHIBIT"
)

// ParseDocumentType accepts any case.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeMotion, TypeDeclaration, TypeRFO, TypeExhibit:
		return t, nil
	}
	return "", fmt.Errorf("%w (got %q)", ErrInvalidType, s)
}

// Document is a drafted filing ready for export.
type Document struct {
	Title        string       `json:"title"`
	DocumentType DocumentType `json:"document_type"`
	Body         string       `json:"body"`
	CreatedAt    time.Time    `json:"created_at"`
	Version      string       `json:"version"`
}

// ExportVersion is stamped on every exported Document.
const ExportVersion = "1.0"

// Spec is one entry of a batch draft.
type Spec struct {
	Title   string          `yaml:"title"`
	Type    DocumentType    `yaml:"type"`
	Request StrategyRequest `yaml:"request"`
}

type Drafter struct {
	invoker service.Invoker
	logger  *zap.Logger
	now     func() time.Time
}

// NewDrafter returns a Drafter calling invoker. A nil logger is replaced
// with a no-op logger.
func NewDrafter(invoker service.Invoker, logger *zap.Logger) *Drafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drafter{invoker: invoker, logger: logger, now: time.Now}
}

// Draft validates req and returns the generated text.
func (d *Drafter) Draft(ctx context.Context, req StrategyRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	resp, err := d.invoker.Invoke(ctx, service.FunctionLegalStrategy, service.PromptPayload{
		Prompt:      req.Prompt(),
		Temperature: Temperature,
	})
	if err != nil {
		d.logger.Error("draft failed", zap.String("recipient", req.Recipient), zap.Error(err))
		return "", fmt.Errorf("draft for %s: %w", req.Recipient, err)
	}
	d.logger.Debug("draft generated", zap.String("tone", string(req.Tone)), zap.Int("length", len(resp.Text)))
	return resp.Text, nil
}

// Batch drafts each spec in order with delay between items. The first
// failure halts the batch and is returned with the documents drafted so far.
func (d *Drafter) Batch(ctx context.Context, specs []Spec, delay time.Duration) ([]Document, error) {
	docs := make([]Document, 0, len(specs))
	for i, spec := range specs {
		if i > 0 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return docs, ctx.Err()
			case <-timer.C:
			}
		}
		docType, err := ParseDocumentType(string(spec.Type))
		if err != nil {
			return docs, fmt.Errorf("batch item %d: %w", i, err)
		}

		body, err := d.Draft(ctx, spec.Request)
		if err != nil {
			return docs, fmt.Errorf("batch item %d: %w", i, err)
		}
		docs = append(docs, Document{
			Title:        spec.Title,
			DocumentType: docType,
			Body:         body,
			CreatedAt:    d.now().UTC(),
			Version:      ExportVersion,
		})
	}
	return docs, nil
}
