package assemble

import (
	"math"

	"github.com/e2nIEE/pipeflow/internal/consts"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/matrix"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

// Hydraulic assembles and solves the flow system. Unknown layout,
// 1-based: mass flow per branch, pressure per node, then per extra fluid
// one transported fraction per branch and one per node.
type Hydraulic struct {
	act *pit.Active
	sys *matrix.System
	em  emitter
	inc *incidence
	gen uint64

	nb, nn int
}

func NewHydraulic(act *pit.Active) (*Hydraulic, error) {
	nb, nn := act.BranchCount(), act.NodeCount()
	size := (nb + nn) * (1 + act.Schema.ExtraFluids())
	sys, err := matrix.NewSystem(size)
	if err != nil {
		return nil, err
	}
	h := &Hydraulic{act: act, sys: sys, nb: nb, nn: nn, gen: ^uint64(0)}
	h.em.sys = sys
	return h, nil
}

func (h *Hydraulic) mRow(b int) int { return b + 1 }
func (h *Hydraulic) pRow(n int) int { return h.nb + n + 1 }
func (h *Hydraulic) wBranchRow(f, b int) int {
	return (h.nb+h.nn)*(1+f) + b + 1
}
func (h *Hydraulic) wNodeRow(f, n int) int {
	return (h.nb+h.nn)*(1+f) + h.nb + n + 1
}

// Assemble fills the matrix and load vector at the current iterate. The
// cached sparsity pattern is reused while gen matches the last call;
// the caller bumps gen whenever activity or topology changed.
func (h *Hydraulic) Assemble(gen uint64) error {
	valid := gen == h.gen && h.inc != nil
	if !valid {
		h.inc = buildIncidence(h.act, idx.BranchFrom, idx.BranchTo)
		h.gen = gen
	}
	if err := h.em.begin(valid); err != nil {
		return err
	}

	h.assembleMomentum()
	h.assembleContinuity()
	for f := 0; f < h.act.Schema.ExtraFluids(); f++ {
		h.assembleTransport(f)
	}

	h.em.end()
	return nil
}

// assembleMomentum emits one pressure/flow equation per branch. All
// branches stay in the matrix; special kinds only change the row
// contents, never the pattern.
func (h *Hydraulic) assembleMomentum() {
	br := h.act.Branch
	no := h.act.Node
	for b := 0; b < h.nb; b++ {
		row := h.mRow(b)
		from := int(br[idx.BranchFrom][b])
		to := int(br[idx.BranchTo][b])
		pf := no[idx.NodePInit][from]
		ptn := no[idx.NodePInit][to]
		m := br[idx.BranchM][b]

		var load, dm, dpf, dpt float64
		switch int(br[idx.BranchKind][b]) {
		case idx.KindFlowControl:
			load = m - br[idx.BranchMSet][b]
			dm, dpf, dpt = 1, 0, 0

		case idx.KindPressControl:
			ctrl := int(br[idx.BranchCtrlNode][b])
			if ctrl >= 0 {
				// The branch equation pins the controlled node; the
				// branch flow adjusts through the continuity rows.
				pc := no[idx.NodePInit][ctrl]
				load = pc - br[idx.BranchPSet][b]
				h.em.add(row, h.mRow(b), 0)
				h.em.add(row, h.pRow(from), boolF(ctrl == from))
				h.em.add(row, h.pRow(to), boolF(ctrl == to))
				if ctrl != from && ctrl != to {
					h.em.add(row, h.pRow(ctrl), 1)
				}
				h.sys.AddRHS(row, -load)
				h.storeScratch(b, load, 0, 0, 0)
				continue
			}
			// Controlled node was reduced away; degrade to a
			// zero-drop connection.
			load = pf - ptn
			dm, dpf, dpt = 0, 1, -1

		default:
			lift, dLiftDM, dLiftDPF := pressureLift(br, b, m, pf)
			br[idx.BranchPL][b] = lift

			fr, dfr := frictionDrop(br, b, m)
			rho := br[idx.BranchRho][b]
			dh := rho * consts.GRAVITY * (no[idx.NodeHeight][to] - no[idx.NodeHeight][from]) / consts.BAR2PA

			load = pf - ptn + lift - dh - fr
			dm = dLiftDM - dfr
			dpf = 1 + dLiftDPF
			dpt = -1
		}

		h.em.add(row, h.mRow(b), dm)
		h.em.add(row, h.pRow(from), dpf)
		h.em.add(row, h.pRow(to), dpt)
		h.sys.AddRHS(row, -load)
		h.storeScratch(b, load, dm, dpf, dpt)
	}
}

func (h *Hydraulic) storeScratch(b int, load, dm, dpf, dpt float64) {
	br := h.act.Branch
	br[idx.BranchLoadVec][b] = load
	br[idx.BranchJacDM][b] = dm
	br[idx.BranchJacDP][b] = dpf
	br[idx.BranchJacDP1][b] = dpt
}

// assembleContinuity emits one mass balance per node; reference nodes
// get a fixing row instead. Pressure-controlled nodes keep their
// balance, their pressure is pinned by the controlling branch.
func (h *Hydraulic) assembleContinuity() {
	no := h.act.Node
	for n := 0; n < h.nn; n++ {
		row := h.pRow(n)
		if no[idx.NodeType][n] == idx.TypeP {
			// PInit carries the setpoint; the residual vanishes and the
			// unit diagonal keeps the unknown fixed.
			h.em.add(row, row, 1)
			h.sys.AddRHS(row, 0)
			continue
		}

		load := no[idx.NodeLoad][n]
		balance := -load
		for i, b := range h.inc.branches[n] {
			sign := float64(h.inc.signs[n][i])
			balance += sign * h.act.Branch[idx.BranchM][b]
			h.em.add(row, h.mRow(int(b)), sign)
		}
		h.sys.AddRHS(row, -balance)
	}
}

// assembleTransport emits the upwind mixture equations of one extra
// fluid. Both endpoint entries are always emitted so that a flow
// reversal changes coefficients, not the pattern.
func (h *Hydraulic) assembleTransport(f int) {
	s := h.act.Schema
	br := h.act.Branch
	no := h.act.Node

	wB := br[s.BranchW(f)]
	wN := no[s.NodeW(f)]

	for b := 0; b < h.nb; b++ {
		row := h.wBranchRow(f, b)
		from := int(br[idx.BranchFrom][b])
		to := int(br[idx.BranchTo][b])
		up := from
		if br[idx.BranchM][b] < 0 {
			up = to
		}

		load := wB[b] - wN[up]
		h.em.add(row, h.wBranchRow(f, b), 1)
		h.em.add(row, h.wNodeRow(f, from), boolF(up == from)*-1)
		h.em.add(row, h.wNodeRow(f, to), boolF(up == to)*-1)
		h.sys.AddRHS(row, -load)
	}

	for n := 0; n < h.nn; n++ {
		row := h.wNodeRow(f, n)
		if no[idx.NodeType][n] == idx.TypeP {
			// Reference nodes feed pure reference fluid.
			h.em.add(row, row, 1)
			h.sys.AddRHS(row, -wN[n])
			continue
		}

		// Outgoing composition equals the flow-weighted mix of the
		// incoming branches plus local injection.
		inflow := no[idx.NodeSrcM][n]
		load := no[s.NodeWLoad(f)][n] - inflow*wN[n]
		coeffs := make([]float64, len(h.inc.branches[n]))
		for i, b := range h.inc.branches[n] {
			m := h.act.Branch[idx.BranchM][int(b)]
			incoming := (h.inc.signs[n][i] > 0) == (m >= 0)
			if incoming && math.Abs(m) > FlowEps {
				am := math.Abs(m)
				inflow += am
				load += am*wB[b] - am*wN[n]
				coeffs[i] = am
			}
		}

		if inflow <= FlowEps {
			// Nothing mixes here; hold the current value.
			h.em.add(row, row, 1)
			for i := range h.inc.branches[n] {
				h.em.add(row, h.wBranchRow(f, int(h.inc.branches[n][i])), 0)
			}
			h.sys.AddRHS(row, 0)
			continue
		}

		h.em.add(row, row, -inflow)
		for i, b := range h.inc.branches[n] {
			h.em.add(row, h.wBranchRow(f, int(b)), coeffs[i])
		}
		h.sys.AddRHS(row, -load)
	}
}

// pressureLift evaluates the lift of pump-like branches. Reverse flow
// bypasses the element: zero lift, zero derivative, branch stays in the
// matrix.
func pressureLift(br [][]float64, b int, m, pf float64) (lift, dLiftDM, dLiftDPF float64) {
	switch int(br[idx.BranchKind][b]) {
	case idx.KindPump:
		if m <= 0 {
			return 0, 0, 0
		}
		a, bc, c := br[idx.BranchCoefA][b], br[idx.BranchCoefB][b], br[idx.BranchCoefC][b]
		return a + bc*m + c*m*m, bc + 2*c*m, 0
	case idx.KindCompressor:
		if m <= 0 {
			return 0, 0, 0
		}
		ratio := br[idx.BranchCoefA][b]
		return (ratio - 1) * pf, 0, ratio - 1
	}
	return 0, 0, 0
}

// frictionDrop evaluates the friction pressure drop (bar) and its mass
// flow derivative at the current iterate. Lambda is frozen within one
// Newton step and refreshed between steps.
func frictionDrop(br [][]float64, b int, m float64) (drop, dDropDM float64) {
	rho := br[idx.BranchRho][b]
	if rho <= 0 {
		rho = 1
	}
	area := br[idx.BranchArea][b]
	coeff := br[idx.BranchLambda][b]*br[idx.BranchLength][b]/br[idx.BranchD][b] + br[idx.BranchLoss][b]
	k := coeff / (2 * rho * area * area * consts.BAR2PA)
	return k * m * math.Abs(m), 2 * k * math.Abs(m)
}

// Solve factors and solves the assembled system.
func (h *Hydraulic) Solve() ([]float64, error) {
	return h.sys.Solve()
}

// Apply adds the damped Newton update to the iterate and reports the
// largest applied pressure, mass-flow and fraction changes.
func (h *Hydraulic) Apply(delta []float64, damping float64) (maxDP, maxDM, maxDW float64) {
	br := h.act.Branch
	no := h.act.Node
	s := h.act.Schema

	for b := 0; b < h.nb; b++ {
		d := damping * delta[h.mRow(b)]
		br[idx.BranchM][b] += d
		maxDM = math.Max(maxDM, math.Abs(d))
	}
	for n := 0; n < h.nn; n++ {
		d := damping * delta[h.pRow(n)]
		no[idx.NodePInit][n] += d
		maxDP = math.Max(maxDP, math.Abs(d))
	}
	for f := 0; f < s.ExtraFluids(); f++ {
		wB := br[s.BranchW(f)]
		wN := no[s.NodeW(f)]
		for b := 0; b < h.nb; b++ {
			d := damping * delta[h.wBranchRow(f, b)]
			wB[b] = clampFraction(wB[b] + d)
			maxDW = math.Max(maxDW, math.Abs(d))
		}
		for n := 0; n < h.nn; n++ {
			d := damping * delta[h.wNodeRow(f, n)]
			wN[n] = clampFraction(wN[n] + d)
			maxDW = math.Max(maxDW, math.Abs(d))
		}
	}
	return maxDP, maxDM, maxDW
}

// Residual is the max-norm of the assembled load vector.
func (h *Hydraulic) Residual() float64 { return h.sys.ResidualNorm() }

func (h *Hydraulic) Destroy() { h.sys.Destroy() }

func clampFraction(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

func boolF(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
