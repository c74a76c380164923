// Package result translates converged PIT values back into per-component
// result rows at user-facing units. Rows of inactive elements are
// NaN-filled rather than dropped, so result tables always align with the
// component tables.
package result

import (
	"math"

	"github.com/e2nIEE/pipeflow/pkg/component"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

type JunctionResult struct {
	ID        int       `yaml:"id"`
	P         float64   `yaml:"p"` // bar
	T         float64   `yaml:"t"` // K
	Fractions []float64 `yaml:"fractions,omitempty"`
}

type ExtGridResult struct {
	ID   int     `yaml:"id"`
	MDot float64 `yaml:"mdot"` // kg/s supplied into the network
}

type SectionResult struct {
	TOut float64 `yaml:"t_out"` // K
	P    float64 `yaml:"p"`     // bar at section outlet node
}

type PipeResult struct {
	ID       int             `yaml:"id"`
	MDot     float64         `yaml:"mdot"`   // kg/s
	V        float64         `yaml:"v"`      // m/s
	Re       float64         `yaml:"re"`
	Lambda   float64         `yaml:"lambda"`
	PFrom    float64         `yaml:"p_from"` // bar
	PTo      float64         `yaml:"p_to"`
	TFrom    float64         `yaml:"t_from"` // K
	TTo      float64         `yaml:"t_to"`
	Sections []SectionResult `yaml:"sections,omitempty"`
}

type BranchResult struct {
	ID    int     `yaml:"id"`
	MDot  float64 `yaml:"mdot"`
	PFrom float64 `yaml:"p_from"`
	PTo   float64 `yaml:"p_to"`
	TFrom float64 `yaml:"t_from"`
	TTo   float64 `yaml:"t_to"`
	PLift float64 `yaml:"p_lift,omitempty"`
}

type Tables struct {
	Junctions      []JunctionResult `yaml:"junctions"`
	ExtGrids       []ExtGridResult  `yaml:"ext_grids"`
	Pipes          []PipeResult     `yaml:"pipes"`
	Valves         []BranchResult   `yaml:"valves,omitempty"`
	Pumps          []BranchResult   `yaml:"pumps,omitempty"`
	Compressors    []BranchResult   `yaml:"compressors,omitempty"`
	HeatExchangers []BranchResult   `yaml:"heat_exchangers,omitempty"`
	PressControls  []BranchResult   `yaml:"press_controls,omitempty"`
	FlowControls   []BranchResult   `yaml:"flow_controls,omitempty"`
}

// Source collects the component tables the extractor resolves ids
// against.
type Source struct {
	Junctions      []component.Junction
	ExtGrids       []component.ExtGrid
	Pipes          []component.Pipe
	Valves         []component.Valve
	Pumps          []component.Pump
	Compressors    []component.Compressor
	HeatExchangers []component.HeatExchanger
	PressControls  []component.PressControl
	FlowControls   []component.FlowControl
}

// Extract maps the (converged or failed) PIT back to per-component rows.
func Extract(p *pit.PIT, l *pit.Lookup, src Source) *Tables {
	t := &Tables{}
	t.extractJunctions(p, l, src)
	t.extractExtGrids(p, l, src)
	t.extractPipes(p, l, src)

	t.Valves = extractBranches(p, l, component.TableValve, valveIDs(src.Valves))
	t.Pumps = extractBranches(p, l, component.TablePump, pumpIDs(src.Pumps))
	t.Compressors = extractBranches(p, l, component.TableCompressor, compressorIDs(src.Compressors))
	t.HeatExchangers = extractBranches(p, l, component.TableHeatExchanger, heIDs(src.HeatExchangers))
	t.PressControls = extractBranches(p, l, component.TablePressControl, pcIDs(src.PressControls))
	t.FlowControls = extractBranches(p, l, component.TableFlowControl, fcIDs(src.FlowControls))
	return t
}

func (t *Tables) extractJunctions(p *pit.PIT, l *pit.Lookup, src Source) {
	extras := p.Schema.ExtraFluids()
	for _, j := range src.Junctions {
		res := JunctionResult{ID: j.ID, P: math.NaN(), T: math.NaN()}
		r := l.NodeRow(component.TableJunction, j.ID)
		if r >= 0 && p.Node[idx.NodeActive][r] != 0 {
			res.P = p.Node[idx.NodePInit][r]
			if p.Node[idx.NodeActiveT][r] != 0 {
				res.T = p.Node[idx.NodeTInit][r]
			}
			if extras > 0 {
				res.Fractions = make([]float64, extras)
				for f := 0; f < extras; f++ {
					res.Fractions[f] = p.Node[p.Schema.NodeW(f)][r]
				}
			}
		}
		t.Junctions = append(t.Junctions, res)
	}
}

// extractExtGrids reports the slack supply of each reference node: the
// imbalance between the node's branch flows and its fixed load, split
// evenly over the grids sharing the node.
func (t *Tables) extractExtGrids(p *pit.PIT, l *pit.Lookup, src Source) {
	for _, g := range src.ExtGrids {
		res := ExtGridResult{ID: g.ID, MDot: math.NaN()}
		r := l.NodeRow(component.TableJunction, g.Junction)
		if r >= 0 && !g.OutOfService && p.Node[idx.NodeActive][r] != 0 {
			supply := p.Node[idx.NodeLoad][r]
			for b := 0; b < p.BranchCount(); b++ {
				if p.Branch[idx.BranchActive][b] == 0 {
					continue
				}
				if int(p.Branch[idx.BranchFrom][b]) == r {
					supply += p.Branch[idx.BranchM][b]
				}
				if int(p.Branch[idx.BranchTo][b]) == r {
					supply -= p.Branch[idx.BranchM][b]
				}
			}
			if occ := p.Node[idx.NodeRefCount][r]; occ > 1 {
				supply /= occ
			}
			res.MDot = supply
		}
		t.ExtGrids = append(t.ExtGrids, res)
	}
}

func (t *Tables) extractPipes(p *pit.PIT, l *pit.Lookup, src Source) {
	for _, pipe := range src.Pipes {
		res := PipeResult{
			ID:   pipe.ID,
			MDot: math.NaN(), V: math.NaN(), Re: math.NaN(), Lambda: math.NaN(),
			PFrom: math.NaN(), PTo: math.NaN(), TFrom: math.NaN(), TTo: math.NaN(),
		}
		first := l.BranchRow(component.TablePipe, pipe.ID)
		secs := pipe.Sections
		if secs < 1 {
			secs = 1
		}
		last := first + secs - 1
		if first >= 0 && p.Branch[idx.BranchActive][first] != 0 {
			from := int(p.Branch[idx.BranchFrom][first])
			to := int(p.Branch[idx.BranchTo][last])
			rho := p.Branch[idx.BranchRho][first]
			area := p.Branch[idx.BranchArea][first]

			res.MDot = p.Branch[idx.BranchM][first]
			if rho > 0 && area > 0 {
				res.V = res.MDot / (rho * area)
			}
			res.Re = p.Branch[idx.BranchRe][first]
			res.Lambda = p.Branch[idx.BranchLambda][first]
			res.PFrom = p.Node[idx.NodePInit][from]
			res.PTo = p.Node[idx.NodePInit][to]
			res.TFrom = p.Node[idx.NodeTInit][from]
			res.TTo = p.Node[idx.NodeTInit][to]

			for s := 0; s < secs; s++ {
				b := first + s
				out := int(p.Branch[idx.BranchTo][b])
				res.Sections = append(res.Sections, SectionResult{
					TOut: p.Branch[idx.BranchTOut][b],
					P:    p.Node[idx.NodePInit][out],
				})
			}
		}
		t.Pipes = append(t.Pipes, res)
	}
}

func extractBranches(p *pit.PIT, l *pit.Lookup, table string, ids []int) []BranchResult {
	var out []BranchResult
	for _, id := range ids {
		res := BranchResult{
			ID:   id,
			MDot: math.NaN(), PFrom: math.NaN(), PTo: math.NaN(),
			TFrom: math.NaN(), TTo: math.NaN(),
		}
		b := l.BranchRow(table, id)
		if b >= 0 && p.Branch[idx.BranchActive][b] != 0 {
			from := int(p.Branch[idx.BranchFrom][b])
			to := int(p.Branch[idx.BranchTo][b])
			res.MDot = p.Branch[idx.BranchM][b]
			res.PFrom = p.Node[idx.NodePInit][from]
			res.PTo = p.Node[idx.NodePInit][to]
			res.TFrom = p.Node[idx.NodeTInit][from]
			res.TTo = p.Node[idx.NodeTInit][to]
			res.PLift = p.Branch[idx.BranchPL][b]
		}
		out = append(out, res)
	}
	return out
}

func valveIDs(v []component.Valve) []int {
	ids := make([]int, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return ids
}

func pumpIDs(v []component.Pump) []int {
	ids := make([]int, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return ids
}

func compressorIDs(v []component.Compressor) []int {
	ids := make([]int, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return ids
}

func heIDs(v []component.HeatExchanger) []int {
	ids := make([]int, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return ids
}

func pcIDs(v []component.PressControl) []int {
	ids := make([]int, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return ids
}

func fcIDs(v []component.FlowControl) []int {
	ids := make([]int, len(v))
	for i := range v {
		ids[i] = v[i].ID
	}
	return ids
}
