package sim

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/pthm-cable/dogpop/components"
	"github.com/pthm-cable/dogpop/systems"
	"github.com/pthm-cable/dogpop/telemetry"
)

// Options configures a model run beyond its parameters.
type Options struct {
	Seed int64

	// Logger receives month summaries, milestones and debug-level agent
	// events. Nil uses slog.Default().
	Logger *slog.Logger

	// LogEvery logs a month summary every N months (0 = off).
	LogEvery int

	// Output receives metrics and milestone rows (nil = disabled).
	Output *telemetry.OutputManager

	// StatsCallback is called with every recorded row.
	StatsCallback func(telemetry.MonthStats)

	// Milestones enables milestone detection.
	Milestones bool

	// PerfWindow is the number of steps averaged by Perf (0 = MaxMonths).
	PerfWindow int
}

// AgentView is a read-only copy of one agent's state.
type AgentView struct {
	ID         uint64
	BirthMonth int
	Sex        components.Sex
	Age        int
	Stage      components.Stage
}

// Model drives the population month by month and records its trajectory.
type Model struct {
	params Parameters
	opts   Options
	logger *slog.Logger

	th     systems.Thresholds
	hazard float64
	spay   float64

	rng    *rand.Rand
	sched  *Scheduler
	month  int
	lastID uint64

	collector  *telemetry.Collector
	lifetime   *telemetry.LifetimeTracker
	milestones *telemetry.MilestoneDetector
	reached    []telemetry.Milestone
	perf       *telemetry.PerfCollector
}

// New validates the parameters and returns a seeded model at month 0.
func New(params Parameters, opts Options) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	m := &Model{
		params:    params,
		opts:      opts,
		logger:    logger,
		th:        params.thresholds(),
		rng:       rng,
		sched:     NewScheduler(rng),
		collector: telemetry.NewCollector(params.MaxMonths),
		lifetime:  telemetry.NewLifetimeTracker(),
	}
	if opts.PerfWindow > 0 {
		m.perf = telemetry.NewPerfCollector(opts.PerfWindow)
	} else {
		m.perf = telemetry.NewPerfCollector(params.MaxMonths)
	}
	if params.Sexed {
		m.hazard = systems.MonthlyHazard(params.AnnualMortality)
		m.spay = params.SpayProbability
	}
	if opts.Milestones {
		m.milestones = telemetry.NewMilestoneDetector(telemetry.DefaultMilestoneThresholds())
	}

	m.seed()
	return m, nil
}

// AddAgent places an agent directly into the population and returns its id.
// Intended for seeding before or between steps.
func (m *Model) AddAgent(sex components.Sex, stage components.Stage, age, birthMonth int) uint64 {
	id := m.nextID()
	m.sched.Spawn(
		components.Identity{ID: id, BirthMonth: birthMonth, Sex: sex},
		components.LifeCycle{Age: age, Stage: stage},
	)
	m.lifetime.Register(id, birthMonth, sex, true)
	if stage >= components.StageReproductive {
		m.lifetime.RecordMatured(id)
	}
	return id
}

func (m *Model) nextID() uint64 {
	m.lastID++
	return m.lastID
}

// Step records the current aggregates, advances every live agent by one
// month and then moves the clock forward.
func (m *Model) Step() {
	m.perf.StartStep()

	m.perf.StartPhase(telemetry.PhaseRecord)
	m.record()

	m.perf.StartPhase(telemetry.PhaseActivate)
	m.sched.Activate(m.activate)

	m.perf.StartPhase(telemetry.PhaseApply)
	m.sched.Apply()

	m.perf.EndStep()
	m.month++
}

// Run performs MaxMonths steps and returns the recorded series.
// Row 0 is the seeded population.
func (m *Model) Run() telemetry.Series {
	for m.month < m.params.MaxMonths {
		m.Step()
	}

	summary := m.Summary()
	m.logger.Info("run_complete",
		"months", summary.Months,
		"population", summary.Final.Total,
		"peak", summary.Peak,
		"milestones", summary.Milestones,
		"lifetime", summary.Lifetime,
		"perf", m.perf.Stats(),
	)
	return m.collector.Series()
}

// activate applies mortality, aging, stage transition and reproduction to a
// single agent, in that order.
func (m *Model) activate(a Agent) {
	id, lc := a.Identity, a.LifeCycle

	if systems.Dies(m.hazard, m.rng) {
		m.sched.Kill(a.Entity)
		m.emit(telemetry.NewDeathEvent(m.month, id.ID, id.Sex, lc.Age))
		return
	}

	lc.Age++

	if next := systems.NextStage(id.Sex, *lc, m.th, m.spay, m.rng); next != lc.Stage {
		lc.Stage = next
		if ev, ok := telemetry.NewStageEvent(m.month, id.ID, id.Sex, next); ok {
			m.emit(ev)
		}
	}

	if systems.CanReproduce(id.Sex, lc.Stage, m.params.Sexed) &&
		systems.ShouldReproduce(m.month, id.BirthMonth, m.params.BirthInterval) {
		m.litter(id.ID, id.Sex)
	}
}

// litter queues one litter of newborns, females first.
func (m *Model) litter(parentID uint64, parentSex components.Sex) {
	size := m.params.LitterSize
	_, females := systems.LitterSplit(size, m.params.SexRatio)

	m.emit(telemetry.NewLitterEvent(m.month, parentID, parentSex, size))
	for i := 0; i < size; i++ {
		sex := components.Male
		if i < females {
			sex = components.Female
		}
		id := m.nextID()
		m.sched.Spawn(
			components.Identity{ID: id, BirthMonth: m.month, Sex: sex},
			components.LifeCycle{Age: 0, Stage: components.StageNewborn},
		)
		m.emit(telemetry.NewBirthEvent(m.month, id, parentID, sex))
	}
}

// emit routes an agent event to the collector and lifetime tracker.
func (m *Model) emit(ev telemetry.Event) {
	m.collector.RecordEvent(ev)

	switch ev.Type {
	case telemetry.EventBirth:
		m.lifetime.Register(ev.AgentID, ev.Month, ev.Sex, false)
	case telemetry.EventDeath:
		m.lifetime.RecordDeath(ev.AgentID, ev.Age)
	case telemetry.EventLitter:
		m.lifetime.RecordLitter(ev.AgentID, ev.Size)
	case telemetry.EventMatured:
		m.lifetime.RecordMatured(ev.AgentID)
	}

	m.logger.Debug("agent_event", "event", ev)
}

// record appends the current census to the series and runs the hooks.
func (m *Model) record() {
	row := m.collector.Record(m.month, m.census())

	if m.opts.StatsCallback != nil {
		m.opts.StatsCallback(row)
	}
	if m.opts.LogEvery > 0 && m.month%m.opts.LogEvery == 0 {
		m.logger.Info("month", "stats", row)
	}
	if err := m.opts.Output.WriteMonth(row); err != nil {
		m.logger.Error("output_write_failed", "error", err)
	}

	if m.milestones == nil {
		return
	}
	for _, ms := range m.milestones.Check(row) {
		m.reached = append(m.reached, ms)
		m.logger.Info("milestone", "milestone", ms)
		if err := m.opts.Output.WriteMilestone(ms); err != nil {
			m.logger.Error("output_write_failed", "error", err)
		}
	}
}

func (m *Model) census() telemetry.Census {
	var census telemetry.Census
	m.sched.Each(func(id *components.Identity, lc *components.LifeCycle) {
		census.Add(id.Sex, lc.Stage)
	})
	return census
}

// End returns the census after the most recent step, with the event counts
// of that step. It is not part of the series.
func (m *Model) End() telemetry.MonthStats {
	return m.collector.Peek(m.month, m.census())
}

// Summary builds the end-of-run record for the output manager.
func (m *Model) Summary() telemetry.RunSummary {
	series := m.collector.Series()
	end := m.End()
	peak := series.Peak()
	if end.Total > peak {
		peak = end.Total
	}
	return telemetry.RunSummary{
		Seed:       m.opts.Seed,
		Months:     m.month,
		Final:      end,
		Peak:       peak,
		Milestones: len(m.reached),
		Lifetime:   m.lifetime.Summary(),
	}
}

// Agents returns a snapshot of the live population sorted by id.
func (m *Model) Agents() []AgentView {
	views := make([]AgentView, 0, m.sched.Len())
	m.sched.Each(func(id *components.Identity, lc *components.LifeCycle) {
		views = append(views, AgentView{
			ID:         id.ID,
			BirthMonth: id.BirthMonth,
			Sex:        id.Sex,
			Age:        lc.Age,
			Stage:      lc.Stage,
		})
	})
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

// Month returns the index of the next month to be stepped.
func (m *Model) Month() int { return m.month }

// Population returns the number of live agents.
func (m *Model) Population() int { return m.sched.Len() }

// Params returns the parameters the model was built with.
func (m *Model) Params() Parameters { return m.params }

// Series returns a copy of the rows recorded so far.
func (m *Model) Series() telemetry.Series { return m.collector.Series() }

// Milestones returns the milestones reached so far.
func (m *Model) Milestones() []telemetry.Milestone {
	out := make([]telemetry.Milestone, len(m.reached))
	copy(out, m.reached)
	return out
}

// Perf returns step timing statistics.
func (m *Model) Perf() telemetry.PerfStats { return m.perf.Stats() }
