package component

import (
	"math"

	"github.com/e2nIEE/pipeflow/internal/consts"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

// A zero initial mass flow makes the friction term and its derivative
// vanish, which can leave the first Jacobian singular. Every branch
// starts from a small nonzero guess instead.
const initialMassFlow = 0.1 // kg/s

const defaultT = 293.15 // K

// JunctionTable contributes one node row per junction.
type JunctionTable []Junction

func (t JunctionTable) Table() string     { return TableJunction }
func (t JunctionTable) Count() (int, int) { return len(t), 0 }
func (t JunctionTable) Populate(b *pit.Builder) error {
	n := b.PIT().Node
	for _, j := range t {
		r := b.NewNodeRow(j.ID)
		n[idx.NodeHeight][r] = j.Height
		n[idx.NodePAmb][r] = j.PAmb
		if j.PAmb == 0 {
			n[idx.NodePAmb][r] = consts.PNORMAL
		}
		n[idx.NodePInit][r] = j.PInit
		n[idx.NodeTInit][r] = j.TInit
		if j.TInit == 0 {
			n[idx.NodeTInit][r] = defaultT
		}
		if j.OutOfService {
			n[idx.NodeActive][r] = 0
			n[idx.NodeActiveT][r] = 0
		}
	}
	return nil
}

// ExtGridTable marks reference nodes and writes their setpoints.
type ExtGridTable []ExtGrid

func (t ExtGridTable) Table() string     { return TableExtGrid }
func (t ExtGridTable) Count() (int, int) { return 0, 0 }
func (t ExtGridTable) Populate(b *pit.Builder) error {
	n := b.PIT().Node
	for _, g := range t {
		r := b.NodeRow(TableJunction, g.Junction)
		if r < 0 || g.OutOfService {
			continue
		}
		switch g.Type {
		case "p", "pt", "":
			n[idx.NodeType][r] = idx.TypeP
			n[idx.NodePInit][r] = g.P
			n[idx.NodeRefCount][r]++
		}
		switch g.Type {
		case "t", "pt":
			n[idx.NodeTypeT][r] = idx.TypeT
			n[idx.NodeTInit][r] = g.T
		}
	}
	return nil
}

// SinkTable sums extractions onto their junction rows (group-sum by
// node key; several sinks may share one junction).
type SinkTable []Sink

func (t SinkTable) Table() string     { return TableSink }
func (t SinkTable) Count() (int, int) { return 0, 0 }
func (t SinkTable) Populate(b *pit.Builder) error {
	n := b.PIT().Node
	for _, s := range t {
		r := b.NodeRow(TableJunction, s.Junction)
		if r < 0 || s.OutOfService {
			continue
		}
		n[idx.NodeLoad][r] += s.MDot
	}
	return nil
}

// SourceTable sums injections, their heat and their extra-fluid
// fractions onto junction rows.
type SourceTable []Source

func (t SourceTable) Table() string     { return TableSource }
func (t SourceTable) Count() (int, int) { return 0, 0 }
func (t SourceTable) Populate(b *pit.Builder) error {
	p := b.PIT()
	n := p.Node
	for _, s := range t {
		r := b.NodeRow(TableJunction, s.Junction)
		if r < 0 || s.OutOfService {
			continue
		}
		n[idx.NodeLoad][r] -= s.MDot
		n[idx.NodeSrcM][r] += s.MDot
		srcT := s.T
		if srcT == 0 {
			srcT = n[idx.NodeTInit][r]
		}
		n[idx.NodeSrcMT][r] += s.MDot * srcT
		for f := 0; f < p.Schema.ExtraFluids(); f++ {
			w := 0.0
			if f < len(s.Fractions) {
				w = s.Fractions[f]
			}
			n[p.Schema.NodeWLoad(f)][r] += s.MDot * w
		}
	}
	return nil
}

// PipeTable contributes one branch row per section plus the internal
// nodes between sections.
type PipeTable []Pipe

func (t PipeTable) Table() string { return TablePipe }

func (t PipeTable) Count() (int, int) {
	nodes, branches := 0, 0
	for _, p := range t {
		s := p.sections()
		nodes += s - 1
		branches += s
	}
	return nodes, branches
}

func (p Pipe) sections() int {
	if p.Sections < 1 {
		return 1
	}
	return p.Sections
}

func (t PipeTable) Populate(b *pit.Builder) error {
	pt := b.PIT()
	n, br := pt.Node, pt.Branch
	for _, p := range t {
		from := b.NodeRow(TableJunction, p.FromJunction)
		to := b.NodeRow(TableJunction, p.ToJunction)
		if from < 0 || to < 0 {
			continue
		}

		secs := p.sections()
		prev := from
		for s := 0; s < secs; s++ {
			next := to
			if s < secs-1 {
				next = b.NewNodeRow(p.ID)
				frac := float64(s+1) / float64(secs)
				n[idx.NodeHeight][next] = n[idx.NodeHeight][from] +
					frac*(n[idx.NodeHeight][to]-n[idx.NodeHeight][from])
				n[idx.NodePAmb][next] = n[idx.NodePAmb][from]
				n[idx.NodePInit][next] = n[idx.NodePInit][from]
				n[idx.NodeTInit][next] = n[idx.NodeTInit][from]
				if p.OutOfService {
					n[idx.NodeActive][next] = 0
					n[idx.NodeActiveT][next] = 0
				}
			}

			r := b.NewBranchRow(p.ID, prev, next)
			br[idx.BranchKind][r] = idx.KindPipe
			br[idx.BranchLength][r] = p.Length / float64(secs)
			setDiameter(br, r, p.D)
			br[idx.BranchK][r] = p.K
			br[idx.BranchLoss][r] = p.Loss / float64(secs)
			br[idx.BranchM][r] = initialMassFlow
			br[idx.BranchAlpha][r] = p.Alpha
			br[idx.BranchTAmb][r] = ambientT(p.TAmb)
			br[idx.BranchQExt][r] = p.QExt / float64(secs)
			br[idx.BranchTOut][r] = n[idx.NodeTInit][from]
			if p.OutOfService {
				br[idx.BranchActive][r] = 0
				br[idx.BranchActiveT][r] = 0
			}
			prev = next
		}
	}
	return nil
}

// ValveTable contributes one zero-length lossy branch per valve; a
// closed valve is an inactive branch, not a removed one.
type ValveTable []Valve

func (t ValveTable) Table() string     { return TableValve }
func (t ValveTable) Count() (int, int) { return 0, len(t) }
func (t ValveTable) Populate(b *pit.Builder) error {
	br := b.PIT().Branch
	for _, v := range t {
		from := b.NodeRow(TableJunction, v.FromJunction)
		to := b.NodeRow(TableJunction, v.ToJunction)
		if from < 0 || to < 0 {
			continue
		}
		r := b.NewBranchRow(v.ID, from, to)
		br[idx.BranchKind][r] = idx.KindValve
		setDiameter(br, r, v.D)
		br[idx.BranchLoss][r] = v.Loss
		br[idx.BranchM][r] = initialMassFlow
		br[idx.BranchTOut][r] = defaultT
		if v.OutOfService || v.Closed {
			br[idx.BranchActive][r] = 0
			br[idx.BranchActiveT][r] = 0
		}
	}
	return nil
}

// PumpTable contributes lift branches.
type PumpTable []Pump

func (t PumpTable) Table() string     { return TablePump }
func (t PumpTable) Count() (int, int) { return 0, len(t) }
func (t PumpTable) Populate(b *pit.Builder) error {
	br := b.PIT().Branch
	for _, p := range t {
		from := b.NodeRow(TableJunction, p.FromJunction)
		to := b.NodeRow(TableJunction, p.ToJunction)
		if from < 0 || to < 0 {
			continue
		}
		r := b.NewBranchRow(p.ID, from, to)
		br[idx.BranchKind][r] = idx.KindPump
		setDiameter(br, r, 0)
		br[idx.BranchCoefA][r] = p.A
		br[idx.BranchCoefB][r] = p.B
		br[idx.BranchCoefC][r] = p.C
		br[idx.BranchM][r] = initialMassFlow
		br[idx.BranchTOut][r] = defaultT
		if p.OutOfService {
			br[idx.BranchActive][r] = 0
			br[idx.BranchActiveT][r] = 0
		}
	}
	return nil
}

// CompressorTable contributes pressure-ratio branches.
type CompressorTable []Compressor

func (t CompressorTable) Table() string     { return TableCompressor }
func (t CompressorTable) Count() (int, int) { return 0, len(t) }
func (t CompressorTable) Populate(b *pit.Builder) error {
	br := b.PIT().Branch
	for _, c := range t {
		from := b.NodeRow(TableJunction, c.FromJunction)
		to := b.NodeRow(TableJunction, c.ToJunction)
		if from < 0 || to < 0 {
			continue
		}
		r := b.NewBranchRow(c.ID, from, to)
		br[idx.BranchKind][r] = idx.KindCompressor
		setDiameter(br, r, 0)
		br[idx.BranchCoefA][r] = c.Ratio
		br[idx.BranchM][r] = initialMassFlow
		br[idx.BranchTOut][r] = defaultT
		if c.OutOfService {
			br[idx.BranchActive][r] = 0
			br[idx.BranchActiveT][r] = 0
		}
	}
	return nil
}

// HeatExchangerTable contributes fixed-duty branches.
type HeatExchangerTable []HeatExchanger

func (t HeatExchangerTable) Table() string     { return TableHeatExchanger }
func (t HeatExchangerTable) Count() (int, int) { return 0, len(t) }
func (t HeatExchangerTable) Populate(b *pit.Builder) error {
	br := b.PIT().Branch
	for _, h := range t {
		from := b.NodeRow(TableJunction, h.FromJunction)
		to := b.NodeRow(TableJunction, h.ToJunction)
		if from < 0 || to < 0 {
			continue
		}
		r := b.NewBranchRow(h.ID, from, to)
		br[idx.BranchKind][r] = idx.KindHeatExchanger
		setDiameter(br, r, h.D)
		br[idx.BranchLoss][r] = h.Loss
		br[idx.BranchM][r] = initialMassFlow
		br[idx.BranchQExt][r] = h.QExt
		br[idx.BranchTOut][r] = defaultT
		if h.OutOfService {
			br[idx.BranchActive][r] = 0
			br[idx.BranchActiveT][r] = 0
		}
	}
	return nil
}

// PressControlTable contributes controlling branches and retypes their
// controlled nodes to PC.
type PressControlTable []PressControl

func (t PressControlTable) Table() string     { return TablePressControl }
func (t PressControlTable) Count() (int, int) { return 0, len(t) }
func (t PressControlTable) Populate(b *pit.Builder) error {
	p := b.PIT()
	n, br := p.Node, p.Branch
	for _, pc := range t {
		from := b.NodeRow(TableJunction, pc.FromJunction)
		to := b.NodeRow(TableJunction, pc.ToJunction)
		ctrl := b.NodeRow(TableJunction, pc.ControlledJct)
		if from < 0 || to < 0 || ctrl < 0 {
			continue
		}
		r := b.NewBranchRow(pc.ID, from, to)
		br[idx.BranchKind][r] = idx.KindPressControl
		setDiameter(br, r, 0)
		br[idx.BranchPSet][r] = pc.PSet
		br[idx.BranchCtrlNode][r] = float64(ctrl)
		br[idx.BranchM][r] = initialMassFlow
		br[idx.BranchTOut][r] = defaultT
		if pc.OutOfService {
			br[idx.BranchActive][r] = 0
			br[idx.BranchActiveT][r] = 0
			continue
		}
		if n[idx.NodeType][ctrl] == idx.TypeNone {
			n[idx.NodeType][ctrl] = idx.TypePC
			n[idx.NodePInit][ctrl] = pc.PSet
		}
	}
	return nil
}

// FlowControlTable contributes fixed-flow branches.
type FlowControlTable []FlowControl

func (t FlowControlTable) Table() string     { return TableFlowControl }
func (t FlowControlTable) Count() (int, int) { return 0, len(t) }
func (t FlowControlTable) Populate(b *pit.Builder) error {
	br := b.PIT().Branch
	for _, fc := range t {
		from := b.NodeRow(TableJunction, fc.FromJunction)
		to := b.NodeRow(TableJunction, fc.ToJunction)
		if from < 0 || to < 0 {
			continue
		}
		r := b.NewBranchRow(fc.ID, from, to)
		br[idx.BranchKind][r] = idx.KindFlowControl
		setDiameter(br, r, 0)
		br[idx.BranchMSet][r] = fc.MSet
		br[idx.BranchM][r] = fc.MSet
		br[idx.BranchTOut][r] = defaultT
		if fc.OutOfService {
			br[idx.BranchActive][r] = 0
			br[idx.BranchActiveT][r] = 0
		}
	}
	return nil
}

func setDiameter(br [][]float64, r int, d float64) {
	if d == 0 {
		d = 0.1
	}
	br[idx.BranchD][r] = d
	br[idx.BranchArea][r] = 0.25 * math.Pi * d * d
}

func ambientT(t float64) float64 {
	if t == 0 {
		return consts.KELVIN + 20
	}
	return t
}
