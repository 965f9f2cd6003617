// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed identity strings stamped on every metadata block.
const (
	AgentIdentity   = "Rosetta Stone v1.0 (via Compass Outlaw)"
	ProtocolVersion = "PFV v14.2"
	ModelIdentifier = "gemini-2.5-flash"
)

// MetadataInput carries the values rendered into a metadata block.
type MetadataInput struct {
	FileName  string
	Format    Format
	Score     int
	Timestamp string // ISO-8601
	Analysis  Analysis
}

// FormatMetadata renders the audit block documenting a conversion.
// Field order is fixed.
func FormatMetadata(in MetadataInput) string {
	fields := [][2]string{
		{"Agent-Identity", AgentIdentity},
		{"Conversion-Timestamp", in.Timestamp},
		{"Source-File", in.FileName},
		{"Target-Format", string(in.Format)},
		{"Content-Classification", string(in.Analysis.Classification)},
		{"Classification-Confidence", formatPercent(in.Analysis.Confidence)},
		{"Evidence-Score-Value", fmt.Sprintf("%d/100", in.Score)},
		{"Evidence-Tier", string(TierFor(in.Score))},
		{"Protocol-Version", ProtocolVersion},
		{"Analysis-Reasoning", in.Analysis.Reasoning},
		{"Model", ModelIdentifier},
	}

	var sb strings.Builder
	sb.WriteString("--- PFV METADATA ---\n")
	for _, f := range fields {
		sb.WriteString(f[0])
		sb.WriteString(": ")
		sb.WriteString(f[1])
		sb.WriteByte('\n')
	}
	sb.WriteString("--- END PFV METADATA ---")
	return sb.String()
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
