package assemble_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/e2nIEE/pipeflow/pkg/assemble"
)

func TestReynolds(t *testing.T) {
	d := 0.1
	area := 0.25 * math.Pi * d * d
	eta := 1e-3
	// Re = |m| d / (A eta); sign of the flow must not matter.
	want := 1.0 * d / (area * eta)
	assert.InDelta(t, want, assemble.Reynolds(1, d, area, eta), 1e-9)
	assert.InDelta(t, want, assemble.Reynolds(-1, d, area, eta), 1e-9)
}

func TestFrictionFactorLaminar(t *testing.T) {
	assert.InDelta(t, 64.0/1000, assemble.FrictionFactor(1000, 1e-4, 0.1), 1e-12)
	assert.InDelta(t, 64.0/2300, assemble.FrictionFactor(2300, 1e-4, 0.1), 1e-12)
}

func TestFrictionFactorStagnantClamp(t *testing.T) {
	// Near-zero Reynolds numbers are clamped so the factor stays finite.
	got := assemble.FrictionFactor(0, 1e-4, 0.1)
	assert.False(t, math.IsInf(got, 0))
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, assemble.FrictionFactor(64, 1e-4, 0.1), got)
}

func TestFrictionFactorTurbulent(t *testing.T) {
	re, k, d := 1e5, 1e-4, 0.1
	want := 0.25 / math.Pow(math.Log10(k/(3.7*d)+5.74/math.Pow(re, 0.9)), 2)
	assert.InDelta(t, want, assemble.FrictionFactor(re, k, d), 1e-12)

	// Rougher walls mean more friction, faster flow means less.
	assert.Greater(t, assemble.FrictionFactor(re, 1e-3, d), assemble.FrictionFactor(re, 1e-5, d))
	assert.Greater(t, assemble.FrictionFactor(1e4, k, d), assemble.FrictionFactor(1e6, k, d))
}

func TestFrictionFactorTransitionIsContinuous(t *testing.T) {
	k, d := 1e-4, 0.1
	atLam := assemble.FrictionFactor(2300, k, d)
	justAbove := assemble.FrictionFactor(2300+1e-6, k, d)
	assert.InDelta(t, atLam, justAbove, 1e-6)

	atTurb := assemble.FrictionFactor(4000, k, d)
	justBelow := assemble.FrictionFactor(4000-1e-6, k, d)
	assert.InDelta(t, atTurb, justBelow, 1e-6)

	// Inside the blend the factor stays between the endpoint values.
	mid := assemble.FrictionFactor(3150, k, d)
	lo, hi := math.Min(atLam, atTurb), math.Max(atLam, atTurb)
	assert.GreaterOrEqual(t, mid, lo)
	assert.LessOrEqual(t, mid, hi)
}
