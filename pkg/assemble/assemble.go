// Package assemble builds the sparse Jacobian and residual vector for
// one Newton step. Hydraulic and thermal systems are assembled by
// separate types over the same reduced PIT; both keep the sparsity
// pattern static across iterations so coefficient cells can be refilled
// through cached handles while the caller's generation token is
// unchanged.
package assemble

import (
	"github.com/edp1096/sparse"

	"github.com/e2nIEE/pipeflow/pkg/matrix"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

// Flows below this magnitude are treated as stagnant.
const FlowEps = 1e-12

// emitter accumulates (row, col, value) entries into the system matrix,
// caching element handles in emission order. While the pattern is valid
// the cached handles are reused and GetElement lookups are skipped
// entirely; the emission order must therefore be deterministic.
type emitter struct {
	sys    *matrix.System
	elems  []*sparse.Element
	cursor int
	primed bool
}

func (e *emitter) begin(patternValid bool) error {
	if e.primed && !patternValid {
		// The matrix has been factored at least once and a factored
		// matrix rejects new elements; a pattern change needs a fresh one.
		if err := e.sys.Reset(); err != nil {
			return err
		}
	} else {
		e.sys.Clear()
	}
	e.cursor = 0
	if !patternValid || !e.primed {
		e.elems = e.elems[:0]
		e.primed = false
	}
	return nil
}

func (e *emitter) add(i, j int, v float64) {
	if e.primed {
		e.elems[e.cursor].Real += v
		e.cursor++
		return
	}
	el := e.sys.Element(i, j)
	el.Real += v
	e.elems = append(e.elems, el)
	e.cursor++
}

func (e *emitter) end() {
	e.primed = true
}

// incidence lists branches per node with orientation signs, rebuilt when
// the active set changes.
type incidence struct {
	branches [][]int32
	signs    [][]int8
}

func buildIncidence(act *pit.Active, fromCol, toCol int) *incidence {
	nn := act.NodeCount()
	in := &incidence{
		branches: make([][]int32, nn),
		signs:    make([][]int8, nn),
	}
	for b := 0; b < act.BranchCount(); b++ {
		from := int(act.Branch[fromCol][b])
		to := int(act.Branch[toCol][b])
		in.branches[from] = append(in.branches[from], int32(b))
		in.signs[from] = append(in.signs[from], -1) // outgoing
		in.branches[to] = append(in.branches[to], int32(b))
		in.signs[to] = append(in.signs[to], 1) // incoming
	}
	return in
}
