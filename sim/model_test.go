package sim

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/dogpop/components"
	"github.com/pthm-cable/dogpop/telemetry"
)

func quietOptions(seed int64) Options {
	return Options{
		Seed:   seed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func mustModel(t *testing.T, p Parameters, opts Options) *Model {
	t.Helper()
	m, err := New(p, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// ---------- seeding ----------

func TestNew_SeedsStageStructure(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 40
	m := mustModel(t, p, quietOptions(1))

	if m.Population() != 40 {
		t.Fatalf("expected 40 agents, got %d", m.Population())
	}

	var females, males int
	byStage := map[components.Stage]int{}
	for _, a := range m.Agents() {
		if a.Sex == components.Female {
			females++
		} else {
			males++
		}
		byStage[a.Stage]++
		if a.BirthMonth != 0 {
			t.Errorf("agent %d: seeded birth month %d, want 0", a.ID, a.BirthMonth)
		}
		if want := p.thresholds().EntryAge(a.Sex, a.Stage); a.Age != want {
			t.Errorf("agent %d (%s %s): age %d, want %d", a.ID, a.Sex, a.Stage, a.Age, want)
		}
	}
	if females != 20 || males != 20 {
		t.Errorf("expected 20/20 split, got %d/%d", females, males)
	}

	// 2 newborn, 2 early, 2+2 reproductive, 12 spayed per sex
	want := map[components.Stage]int{
		components.StageNewborn:      4,
		components.StageEarlyAge:     4,
		components.StageReproductive: 8,
		components.StageSpayed:       24,
	}
	for stage, n := range want {
		if byStage[stage] != n {
			t.Errorf("stage %s: got %d, want %d", stage, byStage[stage], n)
		}
	}
}

func TestNew_OddPopulationFavoursFemales(t *testing.T) {
	p := FlatParameters()
	p.InitialPopulation = 5
	m := mustModel(t, p, quietOptions(1))

	females := 0
	for _, a := range m.Agents() {
		if a.Sex == components.Female {
			females++
		}
	}
	if females != 3 || m.Population() != 5 {
		t.Errorf("expected 3 females of 5, got %d of %d", females, m.Population())
	}
}

func TestAgents_SortedUniqueIDs(t *testing.T) {
	m := mustModel(t, DefaultParameters(), quietOptions(3))
	for i := 0; i < 24; i++ {
		m.Step()
	}
	agents := m.Agents()
	for i := 1; i < len(agents); i++ {
		if agents[i].ID <= agents[i-1].ID {
			t.Fatalf("ids not strictly increasing at %d: %d <= %d", i, agents[i].ID, agents[i-1].ID)
		}
	}
}

// ---------- step invariants ----------

func TestStep_AgingAndStageMonotonic(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 200
	p.SpayProbability = 0.2
	m := mustModel(t, p, quietOptions(42))

	for step := 0; step < 36; step++ {
		before := map[uint64]AgentView{}
		for _, a := range m.Agents() {
			before[a.ID] = a
		}

		m.Step()

		for _, a := range m.Agents() {
			prev, existed := before[a.ID]
			if !existed {
				if a.Age != 0 || a.Stage != components.StageNewborn || a.BirthMonth != step {
					t.Fatalf("step %d: new agent %d not a fresh newborn: %+v", step, a.ID, a)
				}
				continue
			}
			if a.Age != prev.Age+1 {
				t.Fatalf("step %d: agent %d aged %d -> %d", step, a.ID, prev.Age, a.Age)
			}
			if a.Stage < prev.Stage {
				t.Fatalf("step %d: agent %d regressed %s -> %s", step, a.ID, prev.Stage, a.Stage)
			}
			if a.Stage > prev.Stage+1 {
				t.Fatalf("step %d: agent %d skipped %s -> %s", step, a.ID, prev.Stage, a.Stage)
			}
			if a.Sex == components.Male && a.Stage == components.StageSpayed && prev.Stage != components.StageSpayed {
				t.Fatalf("step %d: male %d was spayed", step, a.ID)
			}
		}
	}
}

func TestRun_NonNegativeAndConsistent(t *testing.T) {
	p := DefaultParameters()
	p.AnnualMortality = 0.9
	m := mustModel(t, p, quietOptions(5))
	series := m.Run()

	if series.Len() != p.MaxMonths {
		t.Fatalf("expected %d rows, got %d", p.MaxMonths, series.Len())
	}
	for i, row := range series.Rows() {
		if row.Month != i {
			t.Errorf("row %d has month %d", i, row.Month)
		}
		if row.Total < 0 || row.Females < 0 || row.Males < 0 {
			t.Errorf("row %d negative: %+v", i, row)
		}
		if row.Females+row.Males != row.Total {
			t.Errorf("row %d sex counts do not sum: %+v", i, row)
		}
		if row.Newborn+row.EarlyAge+row.Reproductive+row.Spayed != row.Total {
			t.Errorf("row %d stage counts do not sum: %+v", i, row)
		}
	}
	rows := series.Rows()
	for i := 1; i < len(rows); i++ {
		if rows[i].Total != rows[i-1].Total+rows[i].Births-rows[i].Deaths {
			t.Errorf("row %d: %d != %d + %d - %d", i, rows[i].Total, rows[i-1].Total, rows[i].Births, rows[i].Deaths)
		}
	}
}

// ---------- reproduction ----------

func TestStep_SingleFemaleLittersAtMonthOne(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 0
	p.BirthInterval = 1
	p.LitterSize = 5
	p.SexRatio = 1.5
	p.AnnualMortality = 0
	p.SpayProbability = 0
	m := mustModel(t, p, quietOptions(1))
	mother := m.AddAgent(components.Female, components.StageReproductive, p.MaturityAge, 0)

	m.Step() // month 0: elapsed 0, no litter
	if m.Population() != 1 {
		t.Fatalf("month 0 should not reproduce, population %d", m.Population())
	}

	m.Step() // month 1
	if m.Population() != 1+p.LitterSize {
		t.Fatalf("expected %d agents after month 1, got %d", 1+p.LitterSize, m.Population())
	}

	var males, females int
	for _, a := range m.Agents() {
		if a.ID == mother {
			continue
		}
		if a.Age != 0 || a.Stage != components.StageNewborn || a.BirthMonth != 1 {
			t.Errorf("offspring %d: %+v", a.ID, a)
		}
		if a.Sex == components.Male {
			males++
		} else {
			females++
		}
	}
	// floor(5 * 1.5 / 2.5) = 3
	if males != 3 || females != 2 {
		t.Errorf("expected 3 males / 2 females, got %d/%d", males, females)
	}

	row := m.Series().Rows()[1]
	if row.Births != 0 {
		t.Errorf("row 1 is recorded before the litter, got births %d", row.Births)
	}
}

func TestRun_LitterConservation(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 100
	p.AnnualMortality = 0
	m := mustModel(t, p, quietOptions(9))
	series := m.Run()

	for _, row := range series.Rows() {
		if row.Births != row.Litters*p.LitterSize {
			t.Errorf("month %d: %d births from %d litters of %d", row.Month, row.Births, row.Litters, p.LitterSize)
		}
		if row.Deaths != 0 {
			t.Errorf("month %d: deaths %d with zero mortality", row.Month, row.Deaths)
		}
	}
}

func TestRun_MalesNeverLitter(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 0
	p.BirthInterval = 1
	p.MaxMonths = 12
	m := mustModel(t, p, quietOptions(1))
	for i := 0; i < 10; i++ {
		m.AddAgent(components.Male, components.StageReproductive, p.MaturityAge, 0)
	}
	m.Run()
	if got := m.Summary().Lifetime.MaxLitters; got != 0 {
		t.Errorf("males littered: max litters %d", got)
	}
}

func TestSummary_FinalIsEndOfRunCensus(t *testing.T) {
	p := DefaultParameters()
	p.MaxMonths = 18
	m := mustModel(t, p, quietOptions(9))
	series := m.Run()

	sum := m.Summary()
	if sum.Months != p.MaxMonths || sum.Final.Month != p.MaxMonths {
		t.Errorf("summary months %d, final month %d, want %d", sum.Months, sum.Final.Month, p.MaxMonths)
	}
	if sum.Final.Total != m.Population() {
		t.Errorf("final total %d, live population %d", sum.Final.Total, m.Population())
	}
	if sum.Final.Females+sum.Final.Males != sum.Final.Total {
		t.Errorf("final sexes don't sum: %+v", sum.Final)
	}
	if series.Len() != p.MaxMonths {
		t.Errorf("end census leaked into the series: %d rows", series.Len())
	}
	if sum.Peak < sum.Final.Total {
		t.Errorf("peak %d below final %d", sum.Peak, sum.Final.Total)
	}
}

// ---------- scenarios ----------

func TestRun_ZeroMortalityNoReproductionConstant(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 57
	p.AnnualMortality = 0
	p.MaxMonths = 24
	p.BirthInterval = p.MaxMonths + 1
	m := mustModel(t, p, quietOptions(11))

	for _, row := range m.Run().Rows() {
		if row.Total != p.InitialPopulation {
			t.Fatalf("month %d: total %d, want %d", row.Month, row.Total, p.InitialPopulation)
		}
	}
}

func TestRun_FlatNoPrematureReproduction(t *testing.T) {
	p := FlatParameters()
	p.MaxMonths = 1
	m := mustModel(t, p, quietOptions(1))
	series := m.Run()

	if series.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", series.Len())
	}
	if row, _ := series.Row(0); row.Total != 40 || row.Females != 20 || row.Males != 20 {
		t.Errorf("month 0: %+v", row)
	}
	if m.Population() != 40 {
		t.Errorf("population after one month: %d", m.Population())
	}
}

func TestRun_FlatFirstLitterAtMaturity(t *testing.T) {
	p := FlatParameters()
	p.MaxMonths = 14
	m := mustModel(t, p, Options{Seed: 1, Logger: quietOptions(1).Logger, Milestones: true})
	series := m.Run()

	for month := 0; month <= 12; month++ {
		if row, _ := series.Row(month); row.Total != 40 {
			t.Fatalf("month %d: total %d, want 40", month, row.Total)
		}
	}
	row, _ := series.Row(13)
	if row.Total != 40+40*p.LitterSize || row.Litters != 40 {
		t.Errorf("month 13: %+v", row)
	}

	var doubled bool
	for _, ms := range m.Milestones() {
		if ms.Type == telemetry.MilestoneDoubled && ms.Month == 13 {
			doubled = true
		}
	}
	if !doubled {
		t.Errorf("expected doubling milestone at month 13, got %+v", m.Milestones())
	}
}

// ---------- determinism & hooks ----------

func TestRun_DeterministicReplay(t *testing.T) {
	p := DefaultParameters()
	p.InitialPopulation = 120
	p.SpayProbability = 0.1

	run := func(seed int64) []byte {
		rows := mustModel(t, p, quietOptions(seed)).Run().Rows()
		out, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return out
	}

	a, b := run(77), run(77)
	if !bytes.Equal(a, b) {
		t.Error("same seed produced different series")
	}
	if c := run(78); bytes.Equal(a, c) {
		t.Error("different seeds produced identical series")
	}
}

func TestRun_Hooks(t *testing.T) {
	var buf bytes.Buffer
	var seen []int
	p := DefaultParameters()
	p.MaxMonths = 12

	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	defer out.Close()

	m := mustModel(t, p, Options{
		Seed:          1,
		Logger:        slog.New(slog.NewJSONHandler(&buf, nil)),
		LogEvery:      6,
		Output:        out,
		StatsCallback: func(row telemetry.MonthStats) { seen = append(seen, row.Month) },
	})
	m.Run()

	if len(seen) != p.MaxMonths || seen[0] != 0 || seen[len(seen)-1] != p.MaxMonths-1 {
		t.Errorf("callback months: %v", seen)
	}
	if n := bytes.Count(buf.Bytes(), []byte(`"msg":"month"`)); n != 2 {
		t.Errorf("expected 2 month log lines, got %d", n)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"run_complete"`)) {
		t.Error("missing run_complete log line")
	}
	if m.Perf().Steps != p.MaxMonths {
		t.Errorf("perf recorded %d steps", m.Perf().Steps)
	}
}
