package assemble

import (
	"math"

	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/matrix"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

// Thermal assembles and solves the energy system over the heat-active
// subset. Unknown layout, 1-based: outlet temperature per branch, then
// temperature per node. The flow field is frozen; flow direction enters
// through the switched thermal from/to references set by the driver.
type Thermal struct {
	act *pit.Active
	sys *matrix.System
	em  emitter
	inc *incidence
	gen uint64

	nb, nn int
}

func NewThermal(act *pit.Active) (*Thermal, error) {
	nb, nn := act.BranchCount(), act.NodeCount()
	sys, err := matrix.NewSystem(nb + nn)
	if err != nil {
		return nil, err
	}
	t := &Thermal{act: act, sys: sys, nb: nb, nn: nn, gen: ^uint64(0)}
	t.em.sys = sys
	return t, nil
}

func (t *Thermal) toutRow(b int) int { return b + 1 }
func (t *Thermal) tRow(n int) int    { return t.nb + n + 1 }

// Assemble fills the energy system at the current iterate.
func (t *Thermal) Assemble(gen uint64) error {
	valid := gen == t.gen && t.inc != nil
	if !valid {
		t.inc = buildIncidence(t.act, idx.BranchFromT, idx.BranchToT)
		t.gen = gen
	}
	if err := t.em.begin(valid); err != nil {
		return err
	}

	t.assembleBranchEnergy()
	t.assembleNodeMixing()

	t.em.end()
	return nil
}

// assembleBranchEnergy emits one temperature-drop equation per branch:
// advected heat plus wall exchange against ambient equals the external
// duty.
func (t *Thermal) assembleBranchEnergy() {
	br := t.act.Branch
	no := t.act.Node
	for b := 0; b < t.nb; b++ {
		row := t.toutRow(b)
		fromT := int(br[idx.BranchFromT][b])
		tin := no[idx.NodeTInit][fromT]
		tout := br[idx.BranchTOut][b]

		mcp := math.Abs(br[idx.BranchM][b]) * br[idx.BranchCp][b]
		wall := br[idx.BranchAlpha][b] * math.Pi * br[idx.BranchD][b] * br[idx.BranchLength][b]

		load := mcp*(tout-tin) + wall*((tin+tout)/2-br[idx.BranchTAmb][b]) - br[idx.BranchQExt][b]
		dTout := mcp + wall/2
		dTin := -mcp + wall/2
		if dTout == 0 {
			// Stagnant adiabatic branch: hold its outlet temperature.
			load = 0
			dTout = 1
			dTin = 0
		}

		t.em.add(row, t.toutRow(b), dTout)
		t.em.add(row, t.tRow(fromT), dTin)
		t.sys.AddRHS(row, -load)

		br[idx.BranchLoadVecT][b] = load
		br[idx.BranchJacDTOut][b] = dTout
		br[idx.BranchJacDT][b] = dTin
	}
}

// assembleNodeMixing emits one flow-weighted mixing equation per node;
// temperature references get a fixing row.
func (t *Thermal) assembleNodeMixing() {
	br := t.act.Branch
	no := t.act.Node
	for n := 0; n < t.nn; n++ {
		row := t.tRow(n)
		if no[idx.NodeTypeT][n] == idx.TypeT {
			// TInit carries the setpoint.
			t.em.add(row, row, 1)
			t.sys.AddRHS(row, 0)
			continue
		}

		flowCp := 0.0
		load := 0.0
		if srcM := no[idx.NodeSrcM][n]; srcM > FlowEps {
			// Injected flow mixes in at its source temperature
			// (NodeSrcMT carries the mdot-weighted sum).
			mcp := srcM * no[idx.NodeCp][n]
			flowCp += mcp
			load += no[idx.NodeCp][n]*no[idx.NodeSrcMT][n] - mcp*no[idx.NodeTInit][n]
		}
		coeffs := make([]float64, len(t.inc.branches[n]))
		for i, b := range t.inc.branches[n] {
			if t.inc.signs[n][i] < 0 {
				continue // outgoing leaves at the node temperature
			}
			mcp := math.Abs(br[idx.BranchM][b]) * br[idx.BranchCp][b]
			if mcp <= FlowEps {
				continue
			}
			flowCp += mcp
			load += mcp * (br[idx.BranchTOut][b] - no[idx.NodeTInit][n])
			coeffs[i] = mcp
		}

		if flowCp <= FlowEps {
			// No inflow mixes here; hold the current temperature.
			t.em.add(row, row, 1)
			for _, b := range t.inc.branches[n] {
				t.em.add(row, t.toutRow(int(b)), 0)
			}
			t.sys.AddRHS(row, 0)
			continue
		}

		t.em.add(row, row, -flowCp)
		for i, b := range t.inc.branches[n] {
			t.em.add(row, t.toutRow(int(b)), coeffs[i])
		}
		t.sys.AddRHS(row, -load)
	}
}

// Solve factors and solves the assembled system.
func (t *Thermal) Solve() ([]float64, error) {
	return t.sys.Solve()
}

// Apply adds the damped update and reports the largest applied
// temperature change.
func (t *Thermal) Apply(delta []float64, damping float64) (maxDT float64) {
	br := t.act.Branch
	no := t.act.Node
	for b := 0; b < t.nb; b++ {
		d := damping * delta[t.toutRow(b)]
		br[idx.BranchTOut][b] += d
		maxDT = math.Max(maxDT, math.Abs(d))
	}
	for n := 0; n < t.nn; n++ {
		d := damping * delta[t.tRow(n)]
		no[idx.NodeTInit][n] += d
		maxDT = math.Max(maxDT, math.Abs(d))
	}
	return maxDT
}

// Residual is the max-norm of the assembled load vector.
func (t *Thermal) Residual() float64 { return t.sys.ResidualNorm() }

func (t *Thermal) Destroy() { t.sys.Destroy() }
