package engine

import (
	"errors"
	"fmt"
)

// ErrEmptyPrompt is returned when the user submits a blank prompt. Callers
// surface EmptyPromptMessage on their warning sink and make no model call.
var ErrEmptyPrompt = errors.New("empty prompt")

// EmptyPromptMessage is the user-visible warning for ErrEmptyPrompt.
const EmptyPromptMessage = "Please enter a prompt!"

// PlanError reports a reply that parsed as JSON but does not describe a
// runnable plan (unknown op, bad output clause, malformed step).
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string { return fmt.Sprintf("invalid analysis plan: %s", e.Reason) }

// ExecError reports a plan step that failed against the dataset, such as a
// reference to a column that does not exist.
type ExecError struct {
	Op  string
	Err error
}

func (e *ExecError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("executing %s step: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("executing plan: %v", e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

func execErr(op string, format string, args ...any) *ExecError {
	return &ExecError{Op: op, Err: fmt.Errorf(format, args...)}
}
