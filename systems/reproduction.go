package systems

import (
	"math"

	"github.com/pthm-cable/dogpop/components"
)

// CanReproduce reports whether an agent in this stage may litter.
// In the sexed model only reproductive females qualify; the flat model
// ignores sex.
func CanReproduce(sex components.Sex, stage components.Stage, sexed bool) bool {
	if stage != components.StageReproductive {
		return false
	}
	return !sexed || sex == components.Female
}

// ShouldReproduce reports whether a reproductive agent litters this month.
// Timing follows the agent's own birth-month phase, so litters are staggered
// across cohorts. An agent never litters in the month it was born or seeded.
func ShouldReproduce(month, birthMonth, interval int) bool {
	if interval <= 0 {
		return false
	}
	elapsed := month - birthMonth
	return elapsed > 0 && elapsed%interval == 0
}

// LitterSplit divides a litter by the expected males-per-female ratio.
// males = floor(size * ratio / (1 + ratio)); the remainder are female.
func LitterSplit(size int, sexRatio float64) (males, females int) {
	if size <= 0 {
		return 0, 0
	}
	// Nudge by a tiny epsilon so exact products like 3.0 don't floor to 2.
	males = int(math.Floor(float64(size)*sexRatio/(1+sexRatio) + 1e-9))
	if males > size {
		males = size
	}
	if males < 0 {
		males = 0
	}
	return males, size - males
}
