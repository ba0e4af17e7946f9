package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrUnknownSolver indicates a solver name with no registered implementation.
	ErrUnknownSolver = errors.New("sim: unknown solver")
)

// StepError wraps a failure with the step that produced it.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%gs): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
