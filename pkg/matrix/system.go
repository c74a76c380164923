// Package matrix wraps the sparse LU solver behind the small surface the
// assembler needs: accumulate coefficients, accumulate the load vector,
// factor and solve. Indices are 1-based, matching the solver.
package matrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/sparse"
)

// ErrSingular marks a singular or ill-conditioned system. Callers treat
// it like non-convergence; it is never masked.
var ErrSingular = errors.New("pipeflow: singular system matrix")

type System struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func NewSystem(size int) (*System, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &System{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based indexing
		solution: make([]float64, size+1),
		config:   config,
	}, nil
}

// Element returns the accumulator cell at (i, j), creating it on first
// use. The returned handle stays valid across Clear calls, which is what
// the assembler's pattern-reuse fast path relies on.
func (s *System) Element(i, j int) *sparse.Element {
	return s.matrix.GetElement(int64(i), int64(j))
}

// AddRHS accumulates into the load vector.
func (s *System) AddRHS(i int, value float64) {
	s.rhs[i] += value
}

// Clear zeroes all coefficients and the load vector but keeps the
// sparsity structure.
func (s *System) Clear() {
	s.matrix.Clear()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
}

// Reset discards the matrix together with its sparsity structure. A
// factored matrix rejects new elements, so changing the pattern after a
// solve requires a fresh one; previously returned element handles are
// dead after this call.
func (s *System) Reset() error {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
	mat, err := sparse.Create(int64(s.Size), s.config)
	if err != nil {
		return fmt.Errorf("recreating sparse matrix: %w", err)
	}
	s.matrix = mat
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	return nil
}

// Solve factors and solves the current system. A failed factorization or
// a non-finite solution reports ErrSingular.
func (s *System) Solve() ([]float64, error) {
	if err := s.matrix.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	solution, err := s.matrix.Solve(s.rhs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	s.solution = solution

	for i := 1; i <= s.Size; i++ {
		if math.IsNaN(solution[i]) || math.IsInf(solution[i], 0) {
			return nil, fmt.Errorf("%w: non-finite solution component %d", ErrSingular, i)
		}
	}
	return solution, nil
}

// Solution returns the last solve result, 1-based.
func (s *System) Solution() []float64 {
	return s.solution
}

// ResidualNorm is the max-norm of the current load vector.
func (s *System) ResidualNorm() float64 {
	norm := 0.0
	for i := 1; i <= s.Size; i++ {
		if v := math.Abs(s.rhs[i]); v > norm {
			norm = v
		}
	}
	return norm
}

func (s *System) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
}
