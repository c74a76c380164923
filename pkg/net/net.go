// Package net holds the user-facing network object: the per-type
// component tables, the fluids, and the solve context (PIT, lookups,
// active subsets) attached to it by a pipeflow run. A Network is mutated
// in place by a solve; concurrent solves on the same Network must be
// serialized by the caller.
package net

import (
	"github.com/e2nIEE/pipeflow/pkg/component"
	"github.com/e2nIEE/pipeflow/pkg/fluid"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/pit"
	"github.com/e2nIEE/pipeflow/pkg/result"
)

type Network struct {
	Name   string             `yaml:"name"`
	Fluids []fluid.Properties `yaml:"-"`

	Junctions      []component.Junction      `yaml:"junctions"`
	ExtGrids       []component.ExtGrid       `yaml:"ext_grids"`
	Sinks          []component.Sink          `yaml:"sinks"`
	Sources        []component.Source        `yaml:"sources"`
	Pipes          []component.Pipe          `yaml:"pipes"`
	Valves         []component.Valve         `yaml:"valves"`
	Pumps          []component.Pump          `yaml:"pumps"`
	Compressors    []component.Compressor    `yaml:"compressors"`
	HeatExchangers []component.HeatExchanger `yaml:"heat_exchangers"`
	PressControls  []component.PressControl  `yaml:"press_controls"`
	FlowControls   []component.FlowControl   `yaml:"flow_controls"`

	// Solve context, rebuilt once per pipeflow call. Generation is the
	// invalidation token for the Jacobian sparsity-pattern cache; it is
	// bumped whenever activity or topology may have changed.
	PIT        *pit.PIT    `yaml:"-"`
	Lookup     *pit.Lookup `yaml:"-"`
	Active     *pit.Active `yaml:"-"`
	ActiveHeat *pit.Active `yaml:"-"`
	Generation uint64      `yaml:"-"`

	Results *result.Tables `yaml:"-"`
}

// New creates an empty network. The first fluid is the reference fluid;
// every further one is transported as an extra mass-fraction unknown.
func New(name string, fluids ...fluid.Properties) *Network {
	if len(fluids) == 0 {
		fluids = []fluid.Properties{fluid.Water()}
	}
	return &Network{Name: name, Fluids: fluids}
}

// Schema is the PIT column layout of this network.
func (n *Network) Schema() idx.Schema {
	return idx.NewSchema(len(n.Fluids))
}

// Contributors lists the component tables in fixed dependency order:
// node-owning tables first, node-bound elements next, branch elements
// last, so branch tables can resolve their endpoints while populating.
func (n *Network) Contributors() []pit.Contributor {
	return []pit.Contributor{
		component.JunctionTable(n.Junctions),
		component.ExtGridTable(n.ExtGrids),
		component.SinkTable(n.Sinks),
		component.SourceTable(n.Sources),
		component.PipeTable(n.Pipes),
		component.ValveTable(n.Valves),
		component.PumpTable(n.Pumps),
		component.CompressorTable(n.Compressors),
		component.HeatExchangerTable(n.HeatExchangers),
		component.PressControlTable(n.PressControls),
		component.FlowControlTable(n.FlowControls),
	}
}

// BuildPIT rebuilds the internal tables from the component tables. The
// previous solve context is discarded; lookups are never maintained
// incrementally.
func (n *Network) BuildPIT() error {
	p, l, err := pit.Build(n.Schema(), n.Contributors())
	if err != nil {
		return err
	}
	n.PIT = p
	n.Lookup = l
	n.Active = nil
	n.ActiveHeat = nil
	n.Generation++
	return nil
}

// Invalidate bumps the pattern-cache token. Any change to active flags
// or topology outside BuildPIT must call this.
func (n *Network) Invalidate() {
	n.Generation++
}

// ResultSource collects what the result extractor needs from the
// component tables.
func (n *Network) ResultSource() result.Source {
	return result.Source{
		Junctions:      n.Junctions,
		ExtGrids:       n.ExtGrids,
		Pipes:          n.Pipes,
		Valves:         n.Valves,
		Pumps:          n.Pumps,
		Compressors:    n.Compressors,
		HeatExchangers: n.HeatExchangers,
		PressControls:  n.PressControls,
		FlowControls:   n.FlowControls,
	}
}
