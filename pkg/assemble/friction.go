package assemble

import "math"

// Reynolds computes the Reynolds number of a branch from its mass flow.
func Reynolds(m, d, area, eta float64) float64 {
	if area <= 0 || eta <= 0 {
		return 0
	}
	return math.Abs(m) * d / (area * eta)
}

// FrictionFactor evaluates the Darcy friction factor: 64/Re laminar,
// Swamee-Jain turbulent, with a linear blend across the transition
// region. The Reynolds number is clamped away from zero so stagnant
// branches keep a finite factor.
func FrictionFactor(re, k, d float64) float64 {
	const (
		reLaminarEnd   = 2300.0
		reTurbulentBeg = 4000.0
	)
	if re < 64 {
		re = 64
	}

	laminar := 64 / re
	if re <= reLaminarEnd {
		return laminar
	}

	turbulent := swameeJain(math.Max(re, reTurbulentBeg), k, d)
	if re >= reTurbulentBeg {
		return turbulent
	}

	// Transition: interpolate between the laminar value at 2300 and the
	// turbulent value at 4000.
	w := (re - reLaminarEnd) / (reTurbulentBeg - reLaminarEnd)
	return (1-w)*(64/reLaminarEnd) + w*turbulent
}

func swameeJain(re, k, d float64) float64 {
	arg := k/(3.7*d) + 5.74/math.Pow(re, 0.9)
	lg := math.Log10(arg)
	return 0.25 / (lg * lg)
}
