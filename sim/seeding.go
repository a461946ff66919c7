package sim

import (
	"math"

	"github.com/pthm-cable/dogpop/components"
)

// seedStages maps each Seeding fraction to the stage it is seeded as.
var seedStages = [...]components.Stage{
	components.StageNewborn,
	components.StageEarlyAge,
	components.StageReproductive,
	components.StageReproductive, // pregnant
	components.StageSpayed,       // non-reproductive
}

// seed creates the initial population at month 0.
// Females take the odd agent when the population is odd.
func (m *Model) seed() {
	n := m.params.InitialPopulation
	females := (n + 1) / 2
	males := n / 2

	if !m.params.Sexed {
		for i := 0; i < females; i++ {
			m.AddAgent(components.Female, components.StageNewborn, 0, 0)
		}
		for i := 0; i < males; i++ {
			m.AddAgent(components.Male, components.StageNewborn, 0, 0)
		}
		return
	}

	m.seedSex(components.Female, females)
	m.seedSex(components.Male, males)
}

func (m *Model) seedSex(sex components.Sex, n int) {
	counts := SplitCounts(n, m.params.Seeding.fractions())
	for i, c := range counts {
		stage := seedStages[i]
		age := m.th.EntryAge(sex, stage)
		for j := 0; j < c; j++ {
			m.AddAgent(sex, stage, age, 0)
		}
	}
}

// SplitCounts divides n across the given fractions using cumulative
// rounding, so the counts always sum to n when the fractions sum to 1.
func SplitCounts(n int, fractions []float64) []int {
	counts := make([]int, len(fractions))
	cum := 0.0
	assigned := 0
	for i, f := range fractions {
		cum += f
		target := int(math.Round(cum * float64(n)))
		if i == len(fractions)-1 {
			target = n
		}
		if target < assigned {
			target = assigned
		}
		counts[i] = target - assigned
		assigned = target
	}
	return counts
}
