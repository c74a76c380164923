// Package solver owns the outer Newton-Raphson loop and the mode
// sequencing of a pipeflow run. The single entry point is Run: it
// mutates the network in place, attaches result tables on success and
// returns a typed error otherwise. Non-convergence, missing supply,
// configuration defects and singular systems are all distinguishable
// with errors.Is.
package solver

import (
	"math"

	"go.uber.org/zap"

	"github.com/e2nIEE/pipeflow/pkg/assemble"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/net"
	"github.com/e2nIEE/pipeflow/pkg/pit"
	"github.com/e2nIEE/pipeflow/pkg/result"
	"github.com/e2nIEE/pipeflow/pkg/topology"
)

type state int

const (
	stateInitialized state = iota
	stateIterating
	stateConverged
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateInitialized:
		return "initialized"
	case stateIterating:
		return "iterating"
	case stateConverged:
		return "converged"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Driver runs one pipeflow call. It is single-threaded and owns the
// network's solve context exclusively for the duration of Run.
type Driver struct {
	net   *net.Network
	opts  Options
	log   *zap.Logger
	state state
}

func New(n *net.Network, opts Options, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{net: n, opts: opts.withDefaults(), log: log}
}

// Run is the pipeflow entry point.
func Run(n *net.Network, opts Options, log *zap.Logger) error {
	return New(n, opts, log).Run()
}

func (d *Driver) Run() error {
	if err := d.net.BuildPIT(); err != nil {
		return err
	}

	var err error
	switch d.opts.Mode {
	case idx.Hydraulics:
		err = d.runHydraulics()
	case idx.Heat:
		err = d.runHeat()
	case idx.Sequential:
		if err = d.runHydraulics(); err == nil {
			err = d.runHeat()
		}
	case idx.Bidirectional:
		err = d.runBidirectional()
	}
	if err != nil {
		return err
	}

	d.net.Results = result.Extract(d.net.PIT, d.net.Lookup, d.net.ResultSource())
	return nil
}

// State reports the driver's lifecycle state.
func (d *Driver) State() string { return d.state.String() }

func (d *Driver) runHydraulics() error {
	conn, err := topology.NewAnalyzer(d.log, d.opts.QuitOnInconsistency).
		Check(d.net.PIT, d.net.Lookup, idx.Hydraulics)
	if err != nil {
		return err
	}
	act := pit.Reduce(d.net.PIT, d.net.Lookup, conn.NodesConnected, conn.BranchesConnected)
	d.net.Active = act
	d.net.Invalidate()

	hyd, err := assemble.NewHydraulic(act)
	if err != nil {
		return err
	}
	defer hyd.Destroy()

	damp := newDamper(d.opts)
	maxDP, maxDM, maxDW := math.Inf(1), math.Inf(1), math.Inf(1)
	residual := math.Inf(1)
	d.state = stateIterating

	for iter := 0; iter < d.opts.MaxIter; iter++ {
		refreshProperties(act, d.net.Fluids)
		if err := hyd.Assemble(d.patternToken(iter)); err != nil {
			d.state = stateFailed
			return err
		}
		residual = hyd.Residual()

		if iter > 0 && maxDP < d.opts.TolP && maxDM < d.opts.TolM &&
			maxDW < d.opts.TolW && residual < d.opts.TolRes {
			d.state = stateConverged
			act.WriteBack(d.net.PIT)
			d.switchThermalReferences()
			d.log.Debug("hydraulics converged",
				zap.Int("iterations", iter), zap.Float64("residual", residual))
			return nil
		}

		delta, err := hyd.Solve()
		if err != nil {
			d.state = stateFailed
			return err
		}
		factor := damp.next(residual)
		maxDP, maxDM, maxDW = hyd.Apply(delta, factor)
		d.log.Debug("hydraulics iteration",
			zap.Int("iter", iter), zap.Float64("residual", residual),
			zap.Float64("damping", factor),
			zap.Float64("dp", maxDP), zap.Float64("dm", maxDM))
	}

	d.state = stateFailed
	act.WriteBack(d.net.PIT)
	return &ConvergenceError{Mode: idx.Hydraulics, Iterations: d.opts.MaxIter, Residual: residual}
}

func (d *Driver) runHeat() error {
	d.switchThermalReferences()

	conn, err := topology.NewAnalyzer(d.log, d.opts.QuitOnInconsistency).
		Check(d.net.PIT, d.net.Lookup, idx.Heat)
	if err != nil {
		return err
	}
	act := pit.Reduce(d.net.PIT, d.net.Lookup, conn.NodesConnected, conn.BranchesConnected)
	d.net.ActiveHeat = act
	d.net.Invalidate()

	th, err := assemble.NewThermal(act)
	if err != nil {
		return err
	}
	defer th.Destroy()

	damp := newDamper(d.opts)
	maxDT := math.Inf(1)
	residual := math.Inf(1)
	d.state = stateIterating

	for iter := 0; iter < d.opts.MaxIterHeat; iter++ {
		refreshProperties(act, d.net.Fluids)
		if err := th.Assemble(d.patternToken(iter)); err != nil {
			d.state = stateFailed
			return err
		}
		residual = th.Residual()

		if iter > 0 && maxDT < d.opts.TolT && residual < d.opts.TolRes {
			d.state = stateConverged
			act.WriteBack(d.net.PIT)
			d.log.Debug("heat transfer converged",
				zap.Int("iterations", iter), zap.Float64("residual", residual))
			return nil
		}

		delta, err := th.Solve()
		if err != nil {
			d.state = stateFailed
			return err
		}
		factor := damp.next(residual)
		maxDT = th.Apply(delta, factor)
		d.log.Debug("heat iteration",
			zap.Int("iter", iter), zap.Float64("residual", residual),
			zap.Float64("dt", maxDT))
	}

	d.state = stateFailed
	act.WriteBack(d.net.PIT)
	return &ConvergenceError{Mode: idx.Heat, Iterations: d.opts.MaxIterHeat, Residual: residual}
}

// runBidirectional alternates full hydraulic and thermal solves until
// the sweeps stop moving each other, bounded by its own outer cap.
func (d *Driver) runBidirectional() error {
	nn := d.net.PIT.NodeCount()
	prevP := make([]float64, nn)
	prevT := make([]float64, nn)

	for sweep := 0; sweep < d.opts.MaxIterBidirectional; sweep++ {
		copy(prevP, d.net.PIT.Node[idx.NodePInit])
		copy(prevT, d.net.PIT.Node[idx.NodeTInit])

		if err := d.runHydraulics(); err != nil {
			return err
		}
		if err := d.runHeat(); err != nil {
			return err
		}

		maxDP, maxDT := 0.0, 0.0
		for r := 0; r < nn; r++ {
			maxDP = math.Max(maxDP, math.Abs(d.net.PIT.Node[idx.NodePInit][r]-prevP[r]))
			maxDT = math.Max(maxDT, math.Abs(d.net.PIT.Node[idx.NodeTInit][r]-prevT[r]))
		}
		d.log.Debug("bidirectional sweep",
			zap.Int("sweep", sweep), zap.Float64("dp", maxDP), zap.Float64("dt", maxDT))
		if sweep > 0 && maxDP < d.opts.TolP && maxDT < d.opts.TolT {
			d.state = stateConverged
			return nil
		}
	}

	d.state = stateFailed
	return &ConvergenceError{Mode: idx.Bidirectional, Iterations: d.opts.MaxIterBidirectional}
}

// switchThermalReferences points the thermal from/to references along
// the current flow direction on the full PIT; a reversal invalidates the
// pattern cache.
func (d *Driver) switchThermalReferences() {
	br := d.net.PIT.Branch
	changed := false
	for b := 0; b < d.net.PIT.BranchCount(); b++ {
		from, to := br[idx.BranchFrom][b], br[idx.BranchTo][b]
		if br[idx.BranchM][b] < 0 {
			from, to = to, from
		}
		if br[idx.BranchFromT][b] != from || br[idx.BranchToT][b] != to {
			br[idx.BranchFromT][b] = from
			br[idx.BranchToT][b] = to
			changed = true
		}
	}
	if changed {
		d.net.Invalidate()
	}
}

// patternToken keys the sparsity-pattern cache. With reuse disabled
// every iteration gets a fresh token.
func (d *Driver) patternToken(iter int) uint64 {
	if d.opts.DisablePatternReuse {
		return d.net.Generation + uint64(iter) + 1
	}
	return d.net.Generation
}
