// Package components defines the ECS components that make up one agent.
package components

// Identity holds the immutable facts about an agent.
type Identity struct {
	ID         uint64 // Model-assigned, monotonically increasing, never reused
	BirthMonth int    // Simulated month of birth (0 for seeded agents)
	Sex        Sex
}

// LifeCycle holds the mutable per-step state of an agent.
type LifeCycle struct {
	Age   int   // Months since birth
	Stage Stage // Current life stage
}

// Sex of an agent.
type Sex uint8

const (
	Female Sex = iota
	Male
)

// String returns the lowercase name of the sex.
func (s Sex) String() string {
	switch s {
	case Female:
		return "female"
	case Male:
		return "male"
	}
	return "unknown"
}

// Stage is a life stage. Stages are ordered: an agent only ever moves forward.
type Stage uint8

const (
	StageNewborn Stage = iota
	StageEarlyAge
	StageReproductive
	StageSpayed // Females after the spay transition; seeded non-reproductive males also use it
)

// StageCount is the number of life stages.
const StageCount = 4

// String returns the snake_case name of the stage.
func (s Stage) String() string {
	names := StageNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// StageNames returns the names of all stages.
// The order matches the Stage constants.
func StageNames() []string {
	return []string{"newborn", "early_age", "reproductive", "spayed"}
}

// ParseStage converts a stage name back to a Stage.
func ParseStage(name string) (Stage, bool) {
	for i, n := range StageNames() {
		if n == name {
			return Stage(i), true
		}
	}
	return 0, false
}
