package pit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e2nIEE/pipeflow/pkg/component"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

func buildSmall(t *testing.T) (*pit.PIT, *pit.Lookup) {
	t.Helper()
	p, l, err := pit.Build(idx.NewSchema(1), []pit.Contributor{
		component.JunctionTable{
			{ID: 0, PInit: 5},
			{ID: 1, PInit: 5},
			{ID: 3, PInit: 5}, // ids need not be contiguous
		},
		component.ExtGridTable{{ID: 0, Junction: 0, Type: "p", P: 5}},
		component.SinkTable{
			{ID: 0, Junction: 1, MDot: 1.5},
			{ID: 1, Junction: 1, MDot: 0.5},
		},
		component.PipeTable{
			{ID: 0, FromJunction: 0, ToJunction: 1, Length: 100, D: 0.1, Sections: 3},
			{ID: 1, FromJunction: 1, ToJunction: 3, Length: 50, D: 0.1},
		},
	})
	require.NoError(t, err)
	return p, l
}

func TestBuildRowCountsAndRanges(t *testing.T) {
	p, l := buildSmall(t)

	// 3 junctions + 2 internal pipe nodes; 3 + 1 pipe sections.
	assert.Equal(t, 5, p.NodeCount())
	assert.Equal(t, 4, p.BranchCount())

	assert.Equal(t, pit.Range{Start: 0, End: 3}, l.NodeRanges[component.TableJunction])
	assert.Equal(t, pit.Range{Start: 3, End: 5}, l.NodeRanges[component.TablePipe])
	assert.Equal(t, pit.Range{Start: 0, End: 4}, l.BranchRanges[component.TablePipe])
}

func TestLookupMembership(t *testing.T) {
	_, l := buildSmall(t)

	assert.Equal(t, 0, l.NodeRow(component.TableJunction, 0))
	assert.Equal(t, 2, l.NodeRow(component.TableJunction, 3))
	// id 2 was never created; id 99 is out of range.
	assert.Equal(t, -1, l.NodeRow(component.TableJunction, 2))
	assert.Equal(t, -1, l.NodeRow(component.TableJunction, 99))

	// Subdivided pipe: first section row is indexed.
	assert.Equal(t, 0, l.BranchRow(component.TablePipe, 0))
	assert.Equal(t, 3, l.BranchRow(component.TablePipe, 1))
}

func TestSinkLoadsGroupSummed(t *testing.T) {
	p, l := buildSmall(t)
	r := l.NodeRow(component.TableJunction, 1)
	assert.InDelta(t, 2.0, p.Node[idx.NodeLoad][r], 1e-12)
}

func TestReferenceTypeFromExtGrid(t *testing.T) {
	p, l := buildSmall(t)
	r := l.NodeRow(component.TableJunction, 0)
	assert.Equal(t, idx.TypeP, p.Node[idx.NodeType][r])
	assert.Equal(t, 1.0, p.Node[idx.NodeRefCount][r])
}

func TestBranchDefaults(t *testing.T) {
	p, _ := buildSmall(t)
	for b := 0; b < p.BranchCount(); b++ {
		assert.NotZero(t, p.Branch[idx.BranchM][b], "zero initial flow would break friction linearization")
		assert.Equal(t, 1.0, p.Branch[idx.BranchActive][b])
	}
	// Section length is the element length over its section count.
	assert.InDelta(t, 100.0/3, p.Branch[idx.BranchLength][0], 1e-12)
}

func TestConfigErrorsAggregated(t *testing.T) {
	_, _, err := pit.Build(idx.NewSchema(1), []pit.Contributor{
		component.JunctionTable{{ID: 0, PInit: 5}},
		component.PipeTable{
			{ID: 0, FromJunction: 0, ToJunction: 7, Length: 10, D: 0.1},
			{ID: 1, FromJunction: 8, ToJunction: 0, Length: 10, D: 0.1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pit.ErrConfiguration))

	var cfg *pit.ConfigError
	require.True(t, errors.As(err, &cfg))
	total := 0
	for _, p := range cfg.Problems {
		assert.Equal(t, component.TablePipe, p.Table)
		total += len(p.IDs)
	}
	assert.Equal(t, 2, total, "both broken pipes reported in one error")
}

func TestExtraFluidColumns(t *testing.T) {
	s := idx.NewSchema(3)
	p, l, err := pit.Build(s, []pit.Contributor{
		component.JunctionTable{{ID: 0, PInit: 5}},
		component.SourceTable{{ID: 0, Junction: 0, MDot: 1, Fractions: []float64{0.25, 0.75}}},
	})
	require.NoError(t, err)

	r := l.NodeRow(component.TableJunction, 0)
	assert.InDelta(t, 0.25, p.Node[s.NodeWLoad(0)][r], 1e-12)
	assert.InDelta(t, 0.75, p.Node[s.NodeWLoad(1)][r], 1e-12)
	assert.InDelta(t, 1.0, p.Node[idx.NodeSrcM][r], 1e-12)
}

func TestSourceInjectionHeat(t *testing.T) {
	p, l, err := pit.Build(idx.NewSchema(1), []pit.Contributor{
		component.JunctionTable{
			{ID: 0, PInit: 5, TInit: 300},
			{ID: 1, PInit: 5, TInit: 310},
		},
		component.SourceTable{
			{ID: 0, Junction: 0, MDot: 2, T: 350},
			// No injection temperature: joins at the junction level.
			{ID: 1, Junction: 1, MDot: 0.5},
		},
	})
	require.NoError(t, err)

	r0 := l.NodeRow(component.TableJunction, 0)
	r1 := l.NodeRow(component.TableJunction, 1)
	assert.InDelta(t, 2*350.0, p.Node[idx.NodeSrcMT][r0], 1e-12)
	assert.InDelta(t, 0.5*310.0, p.Node[idx.NodeSrcMT][r1], 1e-12)
}
