package solver

import (
	"errors"
	"fmt"

	"github.com/e2nIEE/pipeflow/pkg/idx"
)

// ErrNotConverged marks an exhausted iteration budget. Matched with
// errors.Is; the concrete *ConvergenceError carries mode and residual so
// an orchestrating controller can retry with adjusted damping or initial
// guesses.
var ErrNotConverged = errors.New("pipeflow: did not converge")

type ConvergenceError struct {
	Mode       idx.Mode
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("pipeflow: %s did not converge in %d iterations (residual %g)",
		e.Mode, e.Iterations, e.Residual)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrNotConverged }
