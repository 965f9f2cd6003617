// SPDX-License-Identifier: Apache-2.0

package rosetta

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/evidence"
)

// Item is one document in a batch conversion.
type Item struct {
	Content  string
	FileName string
	MimeType string
}

// Batch converts items one at a time in order, waiting delay between
// items. The first failure stops the batch; results gathered before it are
// returned alongside the error.
func (c *Converter) Batch(ctx context.Context, items []Item, delay time.Duration) ([]*evidence.ConversionResult, error) {
	results := make([]*evidence.ConversionResult, 0, len(items))
	for i, item := range items {
		if i > 0 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := c.Convert(ctx, item.Content, item.FileName, item.MimeType)
		if err != nil {
			c.logger.Warn("batch halted", zap.Int("index", i), zap.Int("completed", len(results)))
			return results, fmt.Errorf("batch item %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}
