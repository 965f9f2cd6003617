// SPDX-License-Identifier: Apache-2.0

package draft

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[/\\:*?"<>|]`)
)

// Slugify turns a title into a file name stem: whitespace runs become
// underscores and path-hostile characters are dropped.
func Slugify(title string) string {
	slug := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "")
	slug = whitespaceRun.ReplaceAllString(slug, "_")
	if slug == "" {
		return "untitled"
	}
	return slug
}

// ExportName is the file name Export writes doc to.
func ExportName(doc Document) string {
	return Slugify(doc.Title) + "_filing.json"
}

// Export writes doc as indented JSON into dir and returns the file path.
func Export(dir string, doc Document) (string, error) {
	if doc.Version == "" {
		doc.Version = ExportVersion
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %q: %w", doc.Title, err)
	}
	path := filepath.Join(dir, ExportName(doc))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
