package telemetry

import "github.com/pthm-cable/dogpop/components"

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	BirthMonth int
	Sex        components.Sex
	Seeded     bool // Part of the initial population

	Matured   bool // Reached the reproductive stage during the run
	Litters   int
	Offspring int
}

// LifetimeSummary aggregates lifetime stats across a run.
type LifetimeSummary struct {
	Tracked              int     `json:"tracked"`
	Deaths               int     `json:"deaths"`
	MeanAgeAtDeath       float64 `json:"mean_age_at_death"`
	MaturedFemales       int     `json:"matured_females"`
	MeanLittersPerFemale float64 `json:"mean_litters_per_female"`
	MaxLitters           int     `json:"max_litters"`
}

// LifetimeTracker manages per-agent lifetime statistics.
// Dead agents are folded into running totals and dropped.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats

	tracked        int
	deaths         int
	deathAgeSum    int
	maturedFemales int
	littersSum     int
	maxLitters     int
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new agent.
func (lt *LifetimeTracker) Register(id uint64, birthMonth int, sex components.Sex, seeded bool) {
	lt.stats[id] = &LifetimeStats{
		BirthMonth: birthMonth,
		Sex:        sex,
		Seeded:     seeded,
	}
	lt.tracked++
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// RecordMatured marks an agent as having reached the reproductive stage.
func (lt *LifetimeTracker) RecordMatured(id uint64) {
	s := lt.stats[id]
	if s == nil || s.Matured {
		return
	}
	s.Matured = true
	if s.Sex == components.Female {
		lt.maturedFemales++
	}
}

// RecordLitter credits a litter of the given size to the parent.
func (lt *LifetimeTracker) RecordLitter(parentID uint64, size int) {
	s := lt.stats[parentID]
	if s == nil {
		return
	}
	s.Litters++
	s.Offspring += size
	lt.littersSum++
	if s.Litters > lt.maxLitters {
		lt.maxLitters = s.Litters
	}
}

// RecordDeath removes an agent and folds its age at death into the totals.
func (lt *LifetimeTracker) RecordDeath(id uint64, age int) *LifetimeStats {
	s := lt.stats[id]
	if s == nil {
		return nil
	}
	delete(lt.stats, id)
	lt.deaths++
	lt.deathAgeSum += age
	return s
}

// Count returns the number of live agents being tracked.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Summary returns the aggregated lifetime statistics.
func (lt *LifetimeTracker) Summary() LifetimeSummary {
	sum := LifetimeSummary{
		Tracked:        lt.tracked,
		Deaths:         lt.deaths,
		MaturedFemales: lt.maturedFemales,
		MaxLitters:     lt.maxLitters,
	}
	if lt.deaths > 0 {
		sum.MeanAgeAtDeath = float64(lt.deathAgeSum) / float64(lt.deaths)
	}
	if lt.maturedFemales > 0 {
		sum.MeanLittersPerFemale = float64(lt.littersSum) / float64(lt.maturedFemales)
	}
	return sum
}
