// Package idx defines the column layout of the internal node and branch
// tables (the PIT). All downstream code resolves columns through these
// names or through a Schema, never through raw offsets, so that the
// per-fluid extra columns can shift the layout without breaking anything.
package idx

// Node table columns.
const (
	NodeTableIdx = iota // owning component table id
	NodeElement         // element id within the owning table
	NodeType            // hydraulic node type (TypeNone, TypeP, TypePC)
	NodeActive          // hydraulic active flag
	NodeHeight          // geodetic height (m)
	NodePAmb            // ambient pressure (bar)
	NodeLoad            // accumulated mass extraction (kg/s, sinks positive)
	NodeSrcM            // accumulated source inflow (kg/s)
	NodeRefCount        // pressure reference occurrences at this node
	NodePInit           // pressure iterate (bar)
	NodeTypeT           // thermal node type (TypeNone, TypeT)
	NodeActiveT         // thermal active flag
	NodeSrcMT           // accumulated source inflow times injected temperature (kg K/s)
	NodeCp              // mixture heat capacity (J/(kg K)) at the current iterate
	NodeTInit           // temperature iterate (K)

	nodeBaseCols
)

// Branch table columns.
const (
	BranchTableIdx = iota
	BranchElement
	BranchFrom   // from-node row in the node table
	BranchTo     // to-node row
	BranchActive // hydraulic active flag
	BranchKind   // element kind (KindPipe, KindValve, ...)
	BranchLength // m
	BranchD      // inner diameter (m)
	BranchArea   // flow area (m2)
	BranchK      // roughness (m)
	BranchLoss   // additional loss coefficient (zeta)
	BranchM      // mass flow iterate (kg/s), positive from->to
	BranchRe     // Reynolds number at the current iterate
	BranchLambda // friction factor at the current iterate
	BranchRho    // density (kg/m3)
	BranchEta    // dynamic viscosity (Pa s)
	BranchCp     // heat capacity (J/(kg K))
	BranchPL     // pressure lift (bar), pumps and compressors
	BranchCoefA  // lift coefficients: PL = a + b*m + c*m^2, or compressor ratio in a
	BranchCoefB
	BranchCoefC
	BranchMSet     // mass flow setpoint (flow control)
	BranchPSet     // pressure setpoint (pressure control)
	BranchCtrlNode // controlled node row (pressure control), -1 otherwise
	BranchTOut     // outlet temperature iterate (K)
	BranchTAmb     // ambient temperature (K)
	BranchAlpha    // heat transfer coefficient (W/(m2 K))
	BranchQExt     // external heat duty (W)
	BranchFromT    // thermal from-node (flow-direction switched)
	BranchToT      // thermal to-node
	BranchActiveT  // thermal active flag
	BranchJacDM    // scratch: d(momentum)/dm
	BranchJacDP    // scratch: d(momentum)/dpFrom
	BranchJacDP1   // scratch: d(momentum)/dpTo
	BranchLoadVec  // scratch: momentum residual
	BranchJacDT    // scratch: d(energy)/dtIn
	BranchJacDTOut // scratch: d(energy)/dtOut
	BranchLoadVecT // scratch: energy residual

	branchBaseCols
)

// Node type codes, hydraulic (NodeType) and thermal (NodeTypeT) columns.
const (
	TypeNone = 0.0
	TypeP    = 1.0 // fixed pressure reference
	TypeT    = 2.0 // fixed temperature reference
	TypePC   = 3.0 // pressure controlled by a branch element
)

// Branch kind codes.
const (
	KindPipe = iota + 1
	KindValve
	KindPump
	KindCompressor
	KindHeatExchanger
	KindPressControl
	KindFlowControl
)

// Mode selects which physics the solve covers.
type Mode int

const (
	Hydraulics Mode = iota
	Heat
	Sequential    // hydraulics, freeze the flow field, then heat
	Bidirectional // alternate hydraulics and heat until both agree
)

func (m Mode) String() string {
	switch m {
	case Hydraulics:
		return "hydraulics"
	case Heat:
		return "heat"
	case Sequential:
		return "sequential"
	case Bidirectional:
		return "bidirectional"
	}
	return "unknown"
}

// Schema is the column layout for one solve, computed once from the fluid
// count. Each extra fluid appends a mass-fraction and a boundary-load
// column on the node table and a transported-fraction column on the
// branch table.
type Schema struct {
	FluidCount int // total fluids; fluid 0 is the reference fluid
	NodeCols   int
	BranchCols int
}

func NewSchema(fluidCount int) Schema {
	if fluidCount < 1 {
		fluidCount = 1
	}
	extra := fluidCount - 1
	return Schema{
		FluidCount: fluidCount,
		NodeCols:   nodeBaseCols + 2*extra,
		BranchCols: branchBaseCols + extra,
	}
}

// ExtraFluids is the number of transported (non-reference) fluids.
func (s Schema) ExtraFluids() int { return s.FluidCount - 1 }

// NodeW is the mass-fraction column of extra fluid f (0-based).
func (s Schema) NodeW(f int) int { return nodeBaseCols + 2*f }

// NodeWLoad is the accumulated fraction-weighted source load of fluid f.
func (s Schema) NodeWLoad(f int) int { return nodeBaseCols + 2*f + 1 }

// BranchW is the transported mass-fraction column of extra fluid f.
func (s Schema) BranchW(f int) int { return branchBaseCols + f }
