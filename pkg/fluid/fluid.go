// Package fluid provides the property lookups consumed by the solver.
// Implementations must be pure; they are called many times per iteration.
package fluid

import "github.com/e2nIEE/pipeflow/internal/consts"

type Properties interface {
	Name() string
	Density(p, t float64) float64      // kg/m3, p in bar absolute, t in K
	Viscosity(t float64) float64       // Pa s
	HeatCapacity(t float64) float64    // J/(kg K)
	Compressibility(p float64) float64 // dimensionless
	// CalorificValue is the lower heating value (MJ/kg), zero for
	// non-combustible fluids. Only reported, never used by the solver.
	CalorificValue() float64
}

// Incompressible is a constant-property liquid.
type Incompressible struct {
	FluidName string
	Rho       float64
	Eta       float64
	Cp        float64
}

func (f *Incompressible) Name() string                    { return f.FluidName }
func (f *Incompressible) Density(p, t float64) float64    { return f.Rho }
func (f *Incompressible) Viscosity(t float64) float64     { return f.Eta }
func (f *Incompressible) HeatCapacity(t float64) float64  { return f.Cp }
func (f *Incompressible) Compressibility(float64) float64 { return 1.0 }
func (f *Incompressible) CalorificValue() float64         { return 0 }

// Water at roughly 10 degC.
func Water() *Incompressible {
	return &Incompressible{FluidName: "water", Rho: 998.2, Eta: 1.3e-3, Cp: 4182.0}
}

// IdealGas evaluates density from the ideal gas law with a constant
// molar mass, viscosity and heat capacity.
type IdealGas struct {
	FluidName string
	MolarMass float64 // kg/mol
	Eta       float64
	Cp        float64
	LHV       float64 // MJ/kg
}

func (f *IdealGas) Density(p, t float64) float64 {
	return p * consts.BAR2PA * f.MolarMass / (consts.RGAS * t)
}

func (f *IdealGas) Name() string                    { return f.FluidName }
func (f *IdealGas) Viscosity(t float64) float64     { return f.Eta }
func (f *IdealGas) HeatCapacity(t float64) float64  { return f.Cp }
func (f *IdealGas) Compressibility(float64) float64 { return 1.0 }
func (f *IdealGas) CalorificValue() float64         { return f.LHV }

// Methane as a low-pressure ideal gas.
func Methane() *IdealGas {
	return &IdealGas{FluidName: "methane", MolarMass: 16.04e-3, Eta: 1.1e-5, Cp: 2190.0, LHV: 50.0}
}

// Hydrogen as a low-pressure ideal gas.
func Hydrogen() *IdealGas {
	return &IdealGas{FluidName: "hydrogen", MolarMass: 2.016e-3, Eta: 8.8e-6, Cp: 14300.0, LHV: 120.0}
}

// ByName resolves the built-in fluids used by network files.
func ByName(name string) (Properties, bool) {
	switch name {
	case "water":
		return Water(), true
	case "methane":
		return Methane(), true
	case "hydrogen":
		return Hydrogen(), true
	}
	return nil, false
}
