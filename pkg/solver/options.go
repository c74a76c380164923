package solver

import "github.com/e2nIEE/pipeflow/pkg/idx"

// Options configure one pipeflow run. Zero values fall back to the
// defaults below, so a literal with only Mode set is fine.
type Options struct {
	Mode idx.Mode `yaml:"mode"`

	MaxIter              int `yaml:"max_iter"`
	MaxIterHeat          int `yaml:"max_iter_heat"`
	MaxIterBidirectional int `yaml:"max_iter_bidirectional"`

	// Independent convergence tolerances: pressure (bar), mass flow
	// (kg/s), temperature (K), mass fraction, aggregate residual.
	TolP   float64 `yaml:"tol_p"`
	TolM   float64 `yaml:"tol_m"`
	TolT   float64 `yaml:"tol_t"`
	TolW   float64 `yaml:"tol_w"`
	TolRes float64 `yaml:"tol_res"`

	// Damping < 1 scales every Newton update; with AdaptiveDamping the
	// factor is halved on residual growth or oscillation and recovers
	// toward the configured value while the residual falls.
	Damping         float64 `yaml:"damping"`
	AdaptiveDamping bool    `yaml:"adaptive_damping"`

	// QuitOnInconsistency makes a user-deactivated node that is still
	// reachable from a reference a fatal error instead of auto-fixing it.
	QuitOnInconsistency bool `yaml:"quit_on_inconsistency"`

	// DisablePatternReuse forces a fresh Jacobian sparsity pattern on
	// every iteration instead of refilling the cached one while the
	// network's generation token is unchanged. Debugging aid; reuse is
	// the default so a zero-value Options behaves like DefaultOptions.
	DisablePatternReuse bool `yaml:"disable_pattern_reuse"`
}

func DefaultOptions() Options {
	return Options{
		Mode:                 idx.Hydraulics,
		MaxIter:              100,
		MaxIterHeat:          100,
		MaxIterBidirectional: 10,
		TolP:                 1e-5,
		TolM:                 1e-5,
		TolT:                 1e-4,
		TolW:                 1e-6,
		TolRes:               1e-4,
		Damping:              1.0,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.MaxIterHeat <= 0 {
		o.MaxIterHeat = d.MaxIterHeat
	}
	if o.MaxIterBidirectional <= 0 {
		o.MaxIterBidirectional = d.MaxIterBidirectional
	}
	if o.TolP <= 0 {
		o.TolP = d.TolP
	}
	if o.TolM <= 0 {
		o.TolM = d.TolM
	}
	if o.TolT <= 0 {
		o.TolT = d.TolT
	}
	if o.TolW <= 0 {
		o.TolW = d.TolW
	}
	if o.TolRes <= 0 {
		o.TolRes = d.TolRes
	}
	if o.Damping <= 0 || o.Damping > 1 {
		o.Damping = d.Damping
	}
	return o
}

// damper applies the damping policy between iterations.
type damper struct {
	base     float64
	factor   float64
	adaptive bool
	prev     float64
	prev2    float64
}

func newDamper(o Options) *damper {
	return &damper{base: o.Damping, factor: o.Damping, adaptive: o.AdaptiveDamping, prev: -1, prev2: -1}
}

// next picks the factor for the coming update from the residual history:
// growth or oscillation halves it, steady improvement recovers it.
func (d *damper) next(residual float64) float64 {
	if !d.adaptive {
		return d.factor
	}
	if d.prev >= 0 {
		growing := residual > d.prev
		oscillating := d.prev2 >= 0 && residual > d.prev2 && d.prev < d.prev2
		if growing || oscillating {
			d.factor /= 2
			if d.factor < 0.05 {
				d.factor = 0.05
			}
		} else {
			d.factor *= 1.5
			if d.factor > d.base {
				d.factor = d.base
			}
		}
	}
	d.prev2 = d.prev
	d.prev = residual
	return d.factor
}
