package systems

import "math/rand"

// MonthlyHazard converts an annual mortality rate into the per-step death
// probability. This is the linear annual/12 form, not a compounding hazard.
func MonthlyHazard(annualRate float64) float64 {
	return annualRate / 12
}

// Dies draws once against the monthly hazard.
// No draw is taken when the hazard is zero.
func Dies(hazard float64, rng *rand.Rand) bool {
	if hazard <= 0 {
		return false
	}
	return rng.Float64() < hazard
}
