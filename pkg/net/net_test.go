package net_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/e2nIEE/pipeflow/pkg/net"
)

const networkYAML = `
name: test net
junctions:
  - {id: 0, p_init: 5.0, t_init: 293.15}
  - {id: 1, p_init: 5.0, height: 12.5}
  - {id: 2, p_init: 5.0, out_of_service: true}
ext_grids:
  - {id: 0, junction: 0, type: pt, p: 5.0, t: 330.0}
sinks:
  - {id: 0, junction: 1, mdot: 2.5}
sources:
  - {id: 0, junction: 1, mdot: 0.5, fractions: [1.0]}
pipes:
  - {id: 0, from_junction: 0, to_junction: 1, length: 250.0, d: 0.15, k: 0.0001, sections: 3}
valves:
  - {id: 0, from_junction: 1, to_junction: 2, closed: true}
`

func TestNetworkFromYAML(t *testing.T) {
	var n net.Network
	require.NoError(t, yaml.Unmarshal([]byte(networkYAML), &n))

	assert.Equal(t, "test net", n.Name)
	require.Len(t, n.Junctions, 3)
	assert.Equal(t, 12.5, n.Junctions[1].Height)
	assert.True(t, n.Junctions[2].OutOfService)

	require.Len(t, n.ExtGrids, 1)
	assert.Equal(t, "pt", n.ExtGrids[0].Type)
	assert.Equal(t, 330.0, n.ExtGrids[0].T)

	require.Len(t, n.Pipes, 1)
	assert.Equal(t, 3, n.Pipes[0].Sections)
	assert.Equal(t, 0.0001, n.Pipes[0].K)

	require.Len(t, n.Sources, 1)
	assert.Equal(t, []float64{1.0}, n.Sources[0].Fractions)

	require.Len(t, n.Valves, 1)
	assert.True(t, n.Valves[0].Closed)
}

func TestNetworkYAMLRoundTrip(t *testing.T) {
	var n net.Network
	require.NoError(t, yaml.Unmarshal([]byte(networkYAML), &n))

	out, err := yaml.Marshal(&n)
	require.NoError(t, err)

	var again net.Network
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, n, again)
}

func TestNewDefaultsToWater(t *testing.T) {
	n := net.New("plain")
	require.Len(t, n.Fluids, 1)
	assert.Equal(t, "water", n.Fluids[0].Name())
	assert.Equal(t, 1, n.Schema().FluidCount)
}

func TestBuildPITBumpsGeneration(t *testing.T) {
	var n net.Network
	require.NoError(t, yaml.Unmarshal([]byte(networkYAML), &n))
	n.Fluids = net.New("").Fluids

	require.NoError(t, n.BuildPIT())
	gen := n.Generation
	require.NotNil(t, n.PIT)
	require.NotNil(t, n.Lookup)

	n.Invalidate()
	assert.Equal(t, gen+1, n.Generation)

	require.NoError(t, n.BuildPIT())
	assert.Greater(t, n.Generation, gen+1)
}
