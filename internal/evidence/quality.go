// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"strings"
	"unicode/utf8"
)

// Markers left in text by OCR and scanning tools.
var scanMarkers = []string{"[OCR]", "[SCANNED]"}

const (
	// scanMarkerThreshold separates high-resolution scans from low
	// resolution ones when a scan marker is present.
	scanMarkerThreshold = 1000
	// binaryScanThreshold is the length at or below which PDF and vendor
	// binary documents are treated as scans.
	binaryScanThreshold = 500
)

// DetectSourceQuality classifies an input file's provenance from its MIME
// type and extracted text. Rules are evaluated in priority order and the
// function always returns a value.
//
// The PDF/vendor branch treats short content as a scan and long content as
// born-digital, the inverse of the marker branch. That is the behaviour the
// scoring tables were calibrated against and it is kept as is.
func DetectSourceQuality(mimeType, content string) SourceQuality {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	length := utf8.RuneCountInString(content)

	if isTextualMIME(mime) {
		return QualityDigital
	}

	for _, marker := range scanMarkers {
		if strings.Contains(content, marker) {
			if length > scanMarkerThreshold {
				return QualityHighResScan
			}
			return QualityLowRes
		}
	}

	if strings.Contains(mime, "pdf") || strings.Contains(mime, "vnd.") {
		if length <= binaryScanThreshold {
			return QualityHighResScan
		}
		return QualityDigital
	}

	return QualityDigital
}

func isTextualMIME(mime string) bool {
	if strings.HasPrefix(mime, "text/plain") {
		return true
	}
	for _, kw := range []string{"json", "xml", "markdown"} {
		if strings.Contains(mime, kw) {
			return true
		}
	}
	return false
}
