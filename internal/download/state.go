package download

import (
	"fmt"

	"github.com/handiism/chartpack/internal/model"
)

// StageError is a run failure together with the stage it happened in.
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// runState tracks the stage of one run. The zero value has not started.
type runState struct {
	stage  model.Stage
	failed bool
}

// advance moves to the next stage, rejecting skips, repeats and moves out of
// a failed run.
func (s *runState) advance(to model.Stage) error {
	if s.failed {
		return fmt.Errorf("run already failed in %s", s.stage)
	}
	if !isAllowedTransition(s.stage, to) {
		return fmt.Errorf("disallowed transition: %q -> %q", s.stage, to)
	}
	s.stage = to
	return nil
}

// fail marks the run failed in its current stage.
func (s *runState) fail(err error) *StageError {
	s.failed = true
	return &StageError{Stage: s.stage, Err: err}
}

func isAllowedTransition(from, to model.Stage) bool {
	switch from {
	case "":
		return to == model.StageDownloading
	case model.StageDownloading:
		return to == model.StageExtracting
	case model.StageExtracting:
		return to == model.StageConverting
	case model.StageConverting:
		return to == model.StageDone
	default:
		return false
	}
}
