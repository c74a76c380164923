package consts

const (
	GRAVITY = 9.81    // Standard gravity (m/s2)
	RGAS    = 8.31446 // Universal gas constant (J/(mol K))
	KELVIN  = 273.15  // 0 degC (K)
	PNORMAL = 1.01325 // Normal pressure (bar)
	BAR2PA  = 1e5     // Pascal per bar
)
