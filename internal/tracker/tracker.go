// SPDX-License-Identifier: Apache-2.0

// Package tracker models the document production pipeline as a finite
// state machine over a fixed sequence of stages.
package tracker

import (
	"errors"
	"fmt"
	"sync"
)

// Stage is one step of the production pipeline.
type Stage string

const (
	StageRosetta  Stage = "ROSETTA"
	StageClaude   Stage = "CLAUDE"
	StageXeLaTeX  Stage = "XELATEX"
	StageAligning Stage = "ALIGNING"
	StageVRT      Stage = "VRT"
	StageHuman    Stage = "HUMAN"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageRosetta, StageClaude, StageXeLaTeX, StageAligning, StageVRT, StageHuman}

// Status is the state of a single stage.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

var (
	ErrInvalidTransition = errors.New("invalid pipeline transition")
	ErrUnknownStage      = errors.New("unknown pipeline stage")
)

// StageStatus pairs a stage with its status.
type StageStatus struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
}

// Tracker is safe for concurrent use. The zero value is not usable; call New.
type Tracker struct {
	mu sync.Mutex
	// current is the index of the active, failed or last stage; -1 before Start.
	current int
	failed  bool
	done    bool
	reason  string
}

func New() *Tracker {
	return &Tracker{current: -1}
}

// Start activates the first stage.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != -1 {
		return fmt.Errorf("%w: already started", ErrInvalidTransition)
	}
	t.current = 0
	return nil
}

// Advance completes the active stage and activates the next one. Advancing
// past the last stage completes the pipeline.
func (t *Tracker) Advance() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive("advance"); err != nil {
		return err
	}
	if t.current == len(Stages)-1 {
		t.done = true
		return nil
	}
	t.current++
	return nil
}

// Fail marks the active stage failed. No further transitions are allowed
// until Reset.
func (t *Tracker) Fail(reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive("fail"); err != nil {
		return err
	}
	t.failed = true
	t.reason = reason
	return nil
}

// Reset returns every stage to pending.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current, t.failed, t.done, t.reason = -1, false, false, ""
}

func (t *Tracker) requireActive(op string) error {
	switch {
	case t.current == -1:
		return fmt.Errorf("%w: cannot %s before start", ErrInvalidTransition, op)
	case t.failed:
		return fmt.Errorf("%w: cannot %s a failed pipeline", ErrInvalidTransition, op)
	case t.done:
		return fmt.Errorf("%w: cannot %s a completed pipeline", ErrInvalidTransition, op)
	}
	return nil
}

// Status returns the status of stage.
func (t *Tracker) Status(stage Stage) (Status, error) {
	idx := indexOf(stage)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusAt(idx), nil
}

func (t *Tracker) statusAt(idx int) Status {
	switch {
	case t.current == -1 || idx > t.current:
		return StatusPending
	case idx < t.current || t.done:
		return StatusComplete
	case t.failed:
		return StatusFailed
	default:
		return StatusActive
	}
}

// Current returns the active or failed stage. ok is false before Start and
// after completion.
func (t *Tracker) Current() (stage Stage, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == -1 || t.done {
		return "", false
	}
	return Stages[t.current], true
}

// Done reports whether every stage completed.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// FailureReason returns the reason passed to Fail, if any.
func (t *Tracker) FailureReason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Snapshot returns the status of every stage in order.
func (t *Tracker) Snapshot() []StageStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StageStatus, len(Stages))
	for i, s := range Stages {
		out[i] = StageStatus{Stage: s, Status: t.statusAt(i)}
	}
	return out
}

func indexOf(stage Stage) int {
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}
