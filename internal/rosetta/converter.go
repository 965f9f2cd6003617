// SPDX-License-Identifier: Apache-2.0

// Package rosetta converts source documents into scored, metadata-stamped
// evidence by calling the rosetta-stone analysis function.
package rosetta

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/service"
)

// MaxContentChars is the most content, in characters, sent to the service.
const MaxContentChars = 10000

// TimestampLayout is the ISO-8601 form used in payloads and metadata.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Recorder persists manifests of completed conversions.
type Recorder interface {
	Record(ctx context.Context, m evidence.Manifest) error
}

type Converter struct {
	invoker  service.Invoker
	recorder Recorder
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Converter.
type Option func(*Converter)

// WithRecorder stores every manifest through r. Recorder failures are
// logged and do not fail the conversion.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) { c.recorder = r }
}

// WithMetrics reports conversions to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithIDGenerator replaces the manifest id source.
func WithIDGenerator(f func() string) Option {
	return func(c *Converter) { c.newID = f }
}

// NewConverter returns a Converter that calls invoker.
func NewConverter(invoker service.Invoker, opts ...Option) *Converter {
	c := &Converter{
		invoker: invoker,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert sends content to the analysis service and assembles the result.
// A failed service call yields no result at all.
func (c *Converter) Convert(ctx context.Context, content, fileName, mimeType string) (*evidence.ConversionResult, error) {
	start := c.now()
	timestamp := start.UTC().Format(TimestampLayout)

	resp, err := c.invoker.Invoke(ctx, service.FunctionRosettaStone, service.ConversionPayload{
		Content:   Truncate(content, MaxContentChars),
		FileName:  fileName,
		MimeType:  mimeType,
		Timestamp: timestamp,
	})
	if err != nil {
		c.logger.Error("conversion failed",
			zap.String("file", fileName),
			zap.String("mime_type", mimeType),
			zap.Error(err))
		c.metrics.observeFailure()
		return nil, fmt.Errorf("convert %s: %w", fileName, err)
	}

	var result *evidence.ConversionResult
	if resp.Kind == service.KindFull && resp.Document != nil {
		result = resp.Document
		c.fillManifest(&result.Manifest, fileName)
	} else {
		result = c.assemble(resp, content, fileName, mimeType, timestamp)
	}

	c.logger.Info("conversion complete",
		zap.String("file", fileName),
		zap.String("kind", resp.Kind.String()),
		zap.String("classification", string(result.Manifest.Classification)),
		zap.String("format", string(result.OptimalFormat)),
		zap.Int("evidence_score", result.EvidenceScore))
	c.metrics.observeSuccess(result, c.now().Sub(start))
	c.record(ctx, result.Manifest)

	return result, nil
}

// fillManifest gives a remote manifest a local id, file name and creation
// time where the backend left them out.
func (c *Converter) fillManifest(m *evidence.Manifest, fileName string) {
	if m.ID == "" {
		m.ID = c.newID()
	}
	if m.FileName == "" {
		m.FileName = fileName
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = c.now().UTC()
	}
}

// assemble completes a partial reply locally.
func (c *Converter) assemble(resp *service.Response, content, fileName, mimeType, timestamp string) *evidence.ConversionResult {
	n := service.Normalize(resp, content)
	classification := n.Analysis.Classification
	format := evidence.FormatFor(classification)

	quality := evidence.DetectSourceQuality(mimeType, content)
	success := n.Text != ""
	var schemaValid *bool
	if classification == evidence.ClassHierarchical {
		schemaValid = evidence.Bool(n.JSONSchema != nil)
	}
	score := evidence.Score(quality, success, schemaValid)

	metadata := evidence.FormatMetadata(evidence.MetadataInput{
		FileName:  fileName,
		Format:    format,
		Score:     score,
		Timestamp: timestamp,
		Analysis:  n.Analysis,
	})

	manifest := evidence.Manifest{
		ID:             c.newID(),
		FileName:       fileName,
		Classification: classification,
		EvidenceScore:  score,
		Tier:           evidence.TierFor(score),
		PFVMetadata:    metadata,
		CreatedAt:      c.now().UTC(),
	}
	if classification == evidence.ClassHierarchical && n.JSONSchema != nil {
		ok, err := SchemaConformance(n.JSONSchema, n.Text)
		if err != nil {
			c.logger.Warn("schema conformance check skipped", zap.String("file", fileName), zap.Error(err))
		} else {
			manifest.SchemaConforms = evidence.Bool(ok)
		}
	}

	c.logger.Debug("partial reply assembled",
		zap.String("quality", string(quality)),
		zap.Bool("conversion_success", success),
		zap.Bool("schema_applies", schemaValid != nil))

	return &evidence.ConversionResult{
		OriginalContent:       content,
		ConvertedContent:      n.Text,
		OptimalFormat:         format,
		EvidenceScore:         score,
		PFVMetadata:           metadata,
		JSONSchema:            n.JSONSchema,
		Manifest:              manifest,
		RequiresLocalPipeline: classification == evidence.ClassTabular,
	}
}

func (c *Converter) record(ctx context.Context, m evidence.Manifest) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, m); err != nil {
		c.logger.Warn("failed to record manifest", zap.String("manifest_id", m.ID), zap.Error(err))
	}
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
