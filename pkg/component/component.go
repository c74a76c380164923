// Package component defines the user-facing element tables and their
// contributions to the internal PIT tables. Each table type implements
// pit.Contributor; the network registers them in fixed dependency order
// (node-owning tables before branch tables).
package component

// Junction is a hydraulic/thermal node with engineering-unit state.
type Junction struct {
	ID           int     `yaml:"id"`
	Name         string  `yaml:"name"`
	PInit        float64 `yaml:"p_init"` // bar
	TInit        float64 `yaml:"t_init"` // K
	Height       float64 `yaml:"height"` // m
	PAmb         float64 `yaml:"p_amb"`  // bar, 0 = standard atmosphere
	OutOfService bool    `yaml:"out_of_service"`
}

// ExtGrid fixes pressure and/or temperature at a junction, anchoring the
// system. Type is "p", "t" or "pt".
type ExtGrid struct {
	ID           int     `yaml:"id"`
	Junction     int     `yaml:"junction"`
	Type         string  `yaml:"type"`
	P            float64 `yaml:"p"` // bar
	T            float64 `yaml:"t"` // K
	OutOfService bool    `yaml:"out_of_service"`
}

// Sink extracts a fixed mass flow at a junction.
type Sink struct {
	ID           int     `yaml:"id"`
	Junction     int     `yaml:"junction"`
	MDot         float64 `yaml:"mdot"` // kg/s
	OutOfService bool    `yaml:"out_of_service"`
}

// Source injects a fixed mass flow at a junction. Fractions carries the
// injected mass fraction of each extra (non-reference) fluid; nil means
// pure reference fluid.
type Source struct {
	ID           int       `yaml:"id"`
	Junction     int       `yaml:"junction"`
	MDot         float64   `yaml:"mdot"` // kg/s
	T            float64   `yaml:"t"`    // K, injected temperature (0 = junction init)
	Fractions    []float64 `yaml:"fractions"`
	OutOfService bool      `yaml:"out_of_service"`
}

// Pipe is a friction-carrying branch, optionally subdivided into
// sections. N sections produce N branch rows and N-1 internal node rows.
type Pipe struct {
	ID           int     `yaml:"id"`
	FromJunction int     `yaml:"from_junction"`
	ToJunction   int     `yaml:"to_junction"`
	Length       float64 `yaml:"length"` // m
	D            float64 `yaml:"d"`      // m
	K            float64 `yaml:"k"`      // roughness, m
	Loss         float64 `yaml:"loss"`   // additional zeta over the whole pipe
	Sections     int     `yaml:"sections"`
	Alpha        float64 `yaml:"alpha"` // W/(m2 K) to ambient
	TAmb         float64 `yaml:"t_amb"` // K
	QExt         float64 `yaml:"qext"`  // W over the whole pipe, positive heats
	OutOfService bool    `yaml:"out_of_service"`
}

// Valve is a lossy branch that can be fully closed.
type Valve struct {
	ID           int     `yaml:"id"`
	FromJunction int     `yaml:"from_junction"`
	ToJunction   int     `yaml:"to_junction"`
	D            float64 `yaml:"d"`
	Loss         float64 `yaml:"loss"`
	Closed       bool    `yaml:"closed"`
	OutOfService bool    `yaml:"out_of_service"`
}

// Pump lifts pressure by PL = A + B*m + C*m^2 (bar) in flow direction.
// Reverse flow bypasses the element with zero lift.
type Pump struct {
	ID           int     `yaml:"id"`
	FromJunction int     `yaml:"from_junction"`
	ToJunction   int     `yaml:"to_junction"`
	A            float64 `yaml:"a"`
	B            float64 `yaml:"b"`
	C            float64 `yaml:"c"`
	OutOfService bool    `yaml:"out_of_service"`
}

// Compressor scales inlet pressure by a fixed ratio; reverse flow
// bypasses it.
type Compressor struct {
	ID           int     `yaml:"id"`
	FromJunction int     `yaml:"from_junction"`
	ToJunction   int     `yaml:"to_junction"`
	Ratio        float64 `yaml:"ratio"`
	OutOfService bool    `yaml:"out_of_service"`
}

// HeatExchanger adds or removes a fixed heat duty on a branch.
type HeatExchanger struct {
	ID           int     `yaml:"id"`
	FromJunction int     `yaml:"from_junction"`
	ToJunction   int     `yaml:"to_junction"`
	D            float64 `yaml:"d"`
	Loss         float64 `yaml:"loss"`
	QExt         float64 `yaml:"qext"` // W, positive heats the fluid
	OutOfService bool    `yaml:"out_of_service"`
}

// PressControl holds the pressure of a controlled junction at a
// setpoint by adjusting its own mass flow.
type PressControl struct {
	ID            int     `yaml:"id"`
	FromJunction  int     `yaml:"from_junction"`
	ToJunction    int     `yaml:"to_junction"`
	ControlledJct int     `yaml:"controlled_junction"`
	PSet          float64 `yaml:"p_set"` // bar
	OutOfService  bool    `yaml:"out_of_service"`
}

// FlowControl forces a fixed mass flow through a branch.
type FlowControl struct {
	ID           int     `yaml:"id"`
	FromJunction int     `yaml:"from_junction"`
	ToJunction   int     `yaml:"to_junction"`
	MSet         float64 `yaml:"m_set"` // kg/s
	OutOfService bool    `yaml:"out_of_service"`
}

// Table names, also used as owning-table identifiers in lookups.
const (
	TableJunction      = "junction"
	TableExtGrid       = "ext_grid"
	TableSink          = "sink"
	TableSource        = "source"
	TablePipe          = "pipe"
	TableValve         = "valve"
	TablePump          = "pump"
	TableCompressor    = "compressor"
	TableHeatExchanger = "heat_exchanger"
	TablePressControl  = "press_control"
	TableFlowControl   = "flow_control"
)
