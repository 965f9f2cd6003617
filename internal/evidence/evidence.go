// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"strings"
	"time"
)

// SourceQuality describes the provenance of an input file.
type SourceQuality string

const (
	QualityDigital     SourceQuality = "digital"
	QualityHighResScan SourceQuality = "highres_scan"
	QualityLowRes      SourceQuality = "lowres"
)

// Classification is the shape of the source content as reported by the
// analysis service.
type Classification string

const (
	ClassProse        Classification = "PROSE"
	ClassTabular      Classification = "TABULAR"
	ClassHierarchical Classification = "HIERARCHICAL"
)

// ParseClassification maps a free-form tag onto a Classification.
// Unknown or empty tags fall back to PROSE.
func ParseClassification(s string) Classification {
	c := Classification(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ClassTabular, ClassHierarchical:
		return c
	}
	return ClassProse
}

// Format is the target representation of a converted document.
type Format string

const (
	FormatMarkdown Format = "Markdown"
	FormatJSON     Format = "JSON"
	FormatParquet  Format = "Parquet"
)

// FormatFor derives the output format from the classification alone.
// Parquet is never chosen here; TABULAR content is handed to a local
// pipeline instead (see ConversionResult.RequiresLocalPipeline).
func FormatFor(c Classification) Format {
	switch c {
	case ClassTabular, ClassHierarchical:
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// Analysis is the classification verdict returned by the analysis service.
type Analysis struct {
	Classification Classification `json:"classification"`
	// Confidence is a percentage in [0,100].
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Manifest duplicates the bookkeeping fields of a conversion for
// downstream ledgers.
type Manifest struct {
	ID             string         `json:"id"`
	FileName       string         `json:"fileName"`
	Classification Classification `json:"classification"`
	EvidenceScore  int            `json:"evidenceScore"`
	Tier           Tier           `json:"tier"`
	PFVMetadata    string         `json:"pfvMetadata"`
	// SchemaConforms is set only when a schema was inferred and the
	// converted JSON was checked against it.
	SchemaConforms *bool     `json:"schemaConforms,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversionResult is the aggregate record returned to callers of a
// conversion.
type ConversionResult struct {
	OriginalContent       string         `json:"originalContent"`
	ConvertedContent      string         `json:"convertedContent"`
	OptimalFormat         Format         `json:"optimalFormat"`
	EvidenceScore         int            `json:"evidenceScore"`
	PFVMetadata           string         `json:"pfvMetadata"`
	JSONSchema            map[string]any `json:"jsonSchema,omitempty"`
	Manifest              Manifest       `json:"manifest"`
	RequiresLocalPipeline bool           `json:"requiresLocalPipeline"`
}
