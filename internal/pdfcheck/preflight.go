// SPDX-License-Identifier: Apache-2.0

package pdfcheck

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Report summarises a local structural check of a PDF.
type Report struct {
	PageCount int  `json:"page_count"`
	HasImages bool `json:"has_images"`
}

// Preflight parses and validates the PDF in rs. A file that pdfcpu cannot
// read would be rejected by the remote validator too.
func Preflight(rs io.ReadSeeker) (*Report, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &Report{
		PageCount: ctx.PageCount,
		HasImages: hasImages(ctx),
	}, nil
}

// hasImages reports whether any page references an image XObject.
func hasImages(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
