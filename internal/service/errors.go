// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no backend endpoint or key is set.
var ErrNotConfigured = errors.New("analysis service not configured")

// Error is a failure reported by the backend itself, either as a non-2xx
// status or as an error-shaped body.
type Error struct {
	Function string
	Status   int
	Message  string
	Details  string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("service %s failed", e.Function)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// IsServiceError reports whether err is, or wraps, an *Error.
func IsServiceError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
