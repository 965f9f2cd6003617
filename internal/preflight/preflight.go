// SPDX-License-Identifier: Apache-2.0

// Package preflight runs an ordered checklist before a filing session.
// A failing blocker halts the run; other failures are recorded.
package preflight

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay separates consecutive checks.
const DefaultDelay = 800 * time.Millisecond

// Outcome of a single check.
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomePass    Outcome = "PASS"
	OutcomeFail    Outcome = "FAIL"
)

// Check is one checklist entry. Run returns nil when the check passes.
type Check struct {
	Step           int
	Name           string
	Blocker        bool
	FailureMessage string
	Run            func(ctx context.Context) error
}

// Result records how a check ended.
type Result struct {
	Step    int     `json:"step"`
	Name    string  `json:"name"`
	Blocker bool    `json:"blocker"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// Report is the outcome of a checklist run.
type Report struct {
	Results []Result `json:"results"`
	// Halted is set when a blocker failed; HaltMessage is its FailureMessage.
	Halted      bool   `json:"halted"`
	HaltMessage string `json:"halt_message,omitempty"`
}

// AllBlockersPassed reports whether every blocker in the checklist passed.
// Checks never reached count as not passed.
func (r Report) AllBlockersPassed() bool {
	for _, res := range r.Results {
		if res.Blocker && res.Outcome != OutcomePass {
			return false
		}
	}
	return !r.Halted
}

type Runner struct {
	delay  time.Duration
	logger *zap.Logger
}

// NewRunner returns a Runner waiting delay before each check. A nil logger
// is replaced with a no-op logger.
func NewRunner(delay time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{delay: delay, logger: logger}
}

// Run executes checks in order. The returned error is non-nil only when
// ctx ends before the checklist does.
func (r *Runner) Run(ctx context.Context, checks []Check) (Report, error) {
	report := Report{Results: make([]Result, len(checks))}
	for i, c := range checks {
		report.Results[i] = Result{Step: c.Step, Name: c.Name, Blocker: c.Blocker, Outcome: OutcomePending}
	}

	for i, c := range checks {
		if r.delay > 0 {
			timer := time.NewTimer(r.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return report, ctx.Err()
			case <-timer.C:
			}
		}

		var err error
		if c.Run != nil {
			err = c.Run(ctx)
		}
		if err == nil {
			report.Results[i].Outcome = OutcomePass
			r.logger.Debug("preflight check passed", zap.Int("step", c.Step), zap.String("name", c.Name))
			continue
		}

		report.Results[i].Outcome = OutcomeFail
		report.Results[i].Error = err.Error()
		if c.Blocker {
			r.logger.Error("preflight blocker failed; halting",
				zap.Int("step", c.Step), zap.String("name", c.Name), zap.Error(err))
			report.Halted = true
			report.HaltMessage = c.FailureMessage
			return report, nil
		}
		r.logger.Warn("preflight check failed", zap.Int("step", c.Step), zap.String("name", c.Name), zap.Error(err))
	}
	return report, nil
}
