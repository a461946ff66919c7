// Package systems holds the per-agent rules of the simulation.
// Functions here are pure apart from the random source they are handed.
package systems

import (
	"math/rand"

	"github.com/pthm-cable/dogpop/components"
)

// Thresholds holds the age gates (in months) of the life-stage machine.
type Thresholds struct {
	FemalePuberty int
	MalePuberty   int
	Maturity      int
}

// Puberty returns the Newborn -> EarlyAge gate for the given sex.
func (t Thresholds) Puberty(sex components.Sex) int {
	if sex == components.Male {
		return t.MalePuberty
	}
	return t.FemalePuberty
}

// EntryAge returns the age an agent has on entering the given stage.
// Used when seeding a population with an existing age structure.
func (t Thresholds) EntryAge(sex components.Sex, stage components.Stage) int {
	switch stage {
	case components.StageNewborn:
		return 0
	case components.StageEarlyAge:
		return t.Puberty(sex)
	default:
		return t.Maturity
	}
}

// NextStage evaluates the transition guards for one step and returns the
// resulting stage. At most one transition fires, checked in stage order:
//
//	Newborn      -> EarlyAge      when age >= puberty(sex)
//	EarlyAge     -> Reproductive  when age >= maturity
//	Reproductive -> Spayed        females only, with probability spayProb
//
// A spay draw is taken from rng only for reproductive females with spayProb > 0.
func NextStage(sex components.Sex, lc components.LifeCycle, th Thresholds, spayProb float64, rng *rand.Rand) components.Stage {
	switch lc.Stage {
	case components.StageNewborn:
		if lc.Age >= th.Puberty(sex) {
			return components.StageEarlyAge
		}
	case components.StageEarlyAge:
		if lc.Age >= th.Maturity {
			return components.StageReproductive
		}
	case components.StageReproductive:
		if sex == components.Female && spayProb > 0 && rng.Float64() < spayProb {
			return components.StageSpayed
		}
	}
	return lc.Stage
}
