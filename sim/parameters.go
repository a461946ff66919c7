// Package sim runs the agent-based dog population model.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/dogpop/systems"
)

// ErrInvalidParameter is returned for any parameter outside its domain.
var ErrInvalidParameter = errors.New("invalid parameter")

// Seeding is the initial stage distribution for each sex, as fractions of
// that sex's share of the initial population.
type Seeding struct {
	Newborn         float64
	EarlyAge        float64
	Reproductive    float64
	Pregnant        float64 // Seeded as Reproductive
	NonReproductive float64 // Seeded as Spayed
}

// DefaultSeeding returns the 10/10/10/10/60 split.
func DefaultSeeding() Seeding {
	return Seeding{
		Newborn:         0.1,
		EarlyAge:        0.1,
		Reproductive:    0.1,
		Pregnant:        0.1,
		NonReproductive: 0.6,
	}
}

func (s Seeding) fractions() []float64 {
	return []float64{s.Newborn, s.EarlyAge, s.Reproductive, s.Pregnant, s.NonReproductive}
}

// Parameters configures one model run. Treat as immutable once passed to New.
type Parameters struct {
	InitialPopulation int
	BirthInterval     int // Months between litters
	LitterSize        int
	FemalePuberty     int // Months
	MalePuberty       int // Months
	MaturityAge       int // Months
	SpayProbability   float64
	SexRatio          float64 // Expected males per female at birth
	AnnualMortality   float64
	MaxMonths         int

	// Sexed selects the staged male/female model. When false every agent
	// can reproduce and puberty, spay and mortality are ignored.
	Sexed   bool
	Seeding Seeding
}

// DefaultParameters returns the canonical sexed model.
func DefaultParameters() Parameters {
	return Parameters{
		InitialPopulation: 40,
		BirthInterval:     6,
		LitterSize:        6,
		FemalePuberty:     6,
		MalePuberty:       7,
		MaturityAge:       12,
		SpayProbability:   0.05,
		SexRatio:          1.0,
		AnnualMortality:   0.2,
		MaxMonths:         60,
		Sexed:             true,
		Seeding:           DefaultSeeding(),
	}
}

// FlatParameters returns the unisex variant: every agent starts newborn,
// matures at MaturityAge and littering is the only dynamic.
func FlatParameters() Parameters {
	return Parameters{
		InitialPopulation: 40,
		BirthInterval:     6,
		LitterSize:        6,
		MaturityAge:       12,
		SexRatio:          1.0,
		MaxMonths:         60,
		Sexed:             false,
		Seeding:           Seeding{Newborn: 1},
	}
}

// Validate reports the first out-of-domain field, wrapping ErrInvalidParameter.
func (p Parameters) Validate() error {
	puberty := 0
	if p.Sexed {
		puberty = 1
	}
	ints := []struct {
		name string
		v    int
		min  int
	}{
		{"initial_population", p.InitialPopulation, 0},
		{"birth_interval", p.BirthInterval, 1},
		{"litter_size", p.LitterSize, 1},
		{"female_puberty", p.FemalePuberty, puberty},
		{"male_puberty", p.MalePuberty, puberty},
		{"maturity_age", p.MaturityAge, 1},
		{"max_months", p.MaxMonths, 1},
	}
	for _, f := range ints {
		if f.v < f.min {
			return fmt.Errorf("%w: %s = %d, must be >= %d", ErrInvalidParameter, f.name, f.v, f.min)
		}
	}

	probs := []struct {
		name string
		v    float64
	}{
		{"spay_probability", p.SpayProbability},
		{"annual_mortality", p.AnnualMortality},
	}
	for _, f := range probs {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s = %v, must be in [0,1]", ErrInvalidParameter, f.name, f.v)
		}
	}

	if math.IsNaN(p.SexRatio) || math.IsInf(p.SexRatio, 0) || p.SexRatio < 0 {
		return fmt.Errorf("%w: sex_ratio = %v, must be finite and >= 0", ErrInvalidParameter, p.SexRatio)
	}

	if p.Sexed {
		return p.Seeding.validate()
	}
	return nil
}

func (s Seeding) validate() error {
	sum := 0.0
	for _, f := range s.fractions() {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("%w: seeding fraction %v, must be in [0,1]", ErrInvalidParameter, f)
		}
		sum += f
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: seeding fractions sum to %v, must sum to 1", ErrInvalidParameter, sum)
	}
	return nil
}

// thresholds returns the stage thresholds for the configured variant.
func (p Parameters) thresholds() systems.Thresholds {
	if !p.Sexed {
		return systems.Thresholds{Maturity: p.MaturityAge}
	}
	return systems.Thresholds{
		FemalePuberty: p.FemalePuberty,
		MalePuberty:   p.MalePuberty,
		Maturity:      p.MaturityAge,
	}
}
