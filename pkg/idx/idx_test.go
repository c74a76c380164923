package idx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/e2nIEE/pipeflow/pkg/idx"
)

func TestSchemaSingleFluid(t *testing.T) {
	s := idx.NewSchema(1)
	assert.Equal(t, 0, s.ExtraFluids())
	// No mixture columns: the tables end at the fixed layout.
	assert.Equal(t, s.NodeCols, idx.NewSchema(0).NodeCols)
}

func TestSchemaExtraFluidColumns(t *testing.T) {
	one := idx.NewSchema(1)
	three := idx.NewSchema(3)
	require.Equal(t, 2, three.ExtraFluids())

	// Each extra fluid appends one state and one load column per node
	// and one transported-fraction column per branch.
	assert.Equal(t, one.NodeCols+4, three.NodeCols)
	assert.Equal(t, one.BranchCols+2, three.BranchCols)

	assert.Equal(t, one.NodeCols, three.NodeW(0))
	assert.Equal(t, one.NodeCols+2, three.NodeW(1))
	assert.NotEqual(t, three.NodeW(0), three.NodeWLoad(0))
	assert.Equal(t, one.BranchCols, three.BranchW(0))
	assert.Equal(t, one.BranchCols+1, three.BranchW(1))
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want idx.Mode
	}{
		{"hydraulics", idx.Hydraulics},
		{"heat", idx.Heat},
		{"sequential", idx.Sequential},
		{"bidirectional", idx.Bidirectional},
	} {
		got, err := idx.ParseMode(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.in, got.String())
	}

	_, err := idx.ParseMode("adiabatic")
	assert.Error(t, err)
}

func TestModeYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(idx.Sequential)
	require.NoError(t, err)
	assert.Equal(t, "sequential\n", string(out))

	var m idx.Mode
	require.NoError(t, yaml.Unmarshal([]byte("bidirectional"), &m))
	assert.Equal(t, idx.Bidirectional, m)

	assert.Error(t, yaml.Unmarshal([]byte("isothermal"), &m))
}
