package solver

import (
	"math"

	"github.com/e2nIEE/pipeflow/pkg/assemble"
	"github.com/e2nIEE/pipeflow/pkg/fluid"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

// refreshProperties recomputes the flow-dependent physical quantities
// at the current iterate: per branch, density, viscosity and heat
// capacity from the fluid provider at the upstream node state, then
// Reynolds number and friction factor; per node, the mixture heat
// capacity used for source injection. Extra-fluid properties are mixed
// linearly by transported mass fraction.
func refreshProperties(act *pit.Active, fluids []fluid.Properties) {
	br := act.Branch
	no := act.Node
	s := act.Schema

	for b := 0; b < act.BranchCount(); b++ {
		up := int(br[idx.BranchFrom][b])
		if br[idx.BranchM][b] < 0 {
			up = int(br[idx.BranchTo][b])
		}
		p := no[idx.NodePInit][up] + no[idx.NodePAmb][up]
		if p <= 0 {
			p = no[idx.NodePAmb][up]
		}
		t := no[idx.NodeTInit][up]

		rho, eta, cp := mixProperties(fluids, br, s, b, p, t)
		br[idx.BranchRho][b] = rho
		br[idx.BranchEta][b] = eta
		br[idx.BranchCp][b] = cp

		re := assemble.Reynolds(br[idx.BranchM][b], br[idx.BranchD][b], br[idx.BranchArea][b], eta)
		br[idx.BranchRe][b] = re
		br[idx.BranchLambda][b] = assemble.FrictionFactor(re, br[idx.BranchK][b], br[idx.BranchD][b])
	}

	for r := 0; r < act.NodeCount(); r++ {
		t := no[idx.NodeTInit][r]
		cp := 0.0
		wRef := 1.0
		for f := 0; f < s.ExtraFluids(); f++ {
			w := no[s.NodeW(f)][r]
			wRef -= w
			cp += w * fluids[f+1].HeatCapacity(t)
		}
		if wRef < 0 {
			wRef = 0
		}
		cp += wRef * fluids[0].HeatCapacity(t)
		no[idx.NodeCp][r] = cp
	}
}

func mixProperties(fluids []fluid.Properties, br [][]float64, s idx.Schema, b int, p, t float64) (rho, eta, cp float64) {
	ref := fluids[0]
	wRef := 1.0
	for f := 0; f < s.ExtraFluids(); f++ {
		w := br[s.BranchW(f)][b]
		wRef -= w
		fl := fluids[f+1]
		rho += w * fl.Density(p, t) / fl.Compressibility(p)
		eta += w * fl.Viscosity(t)
		cp += w * fl.HeatCapacity(t)
	}
	if wRef < 0 {
		wRef = 0
	}
	rho += wRef * ref.Density(p, t) / ref.Compressibility(p)
	eta += wRef * ref.Viscosity(t)
	cp += wRef * ref.HeatCapacity(t)

	if rho <= 0 || math.IsNaN(rho) {
		rho = ref.Density(p, t)
	}
	return rho, eta, cp
}
