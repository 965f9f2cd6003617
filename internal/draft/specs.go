// SPDX-License-Identifier: Apache-2.0

package draft

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// specFile is the on-disk layout of a batch draft file.
type specFile struct {
	Drafts []Spec `yaml:"drafts"`
}

// LoadSpecs decodes a YAML batch file of the form
//
//	drafts:
//	  - title: Motion to Compel
//	    type: motion
//	    request:
//	      recipient: Opposing counsel
//	      key_facts: ...
//	      desired_outcome: ...
//	      tone: FORMAL
//
// Document types are normalised and checked; tones are upper-cased and left
// for StrategyRequest.Validate.
func LoadSpecs(r io.Reader) ([]Spec, error) {
	var f specFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode draft specs: %w", err)
	}
	for i := range f.Drafts {
		t, err := ParseDocumentType(string(f.Drafts[i].Type))
		if err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}
		f.Drafts[i].Type = t
		f.Drafts[i].Request.Tone = Tone(strings.ToUpper(strings.TrimSpace(string(f.Drafts[i].Request.Tone))))
	}
	return f.Drafts, nil
}
