package telemetry

import (
	"strings"
	"testing"
)

func hasMilestone(ms []Milestone, typ MilestoneType) bool {
	for _, m := range ms {
		if m.Type == typ {
			return true
		}
	}
	return false
}

func TestMilestoneDetector_Doubled(t *testing.T) {
	md := NewMilestoneDetector(DefaultMilestoneThresholds())

	totals := []int{40, 50, 70, 80, 120, 160}
	var doubledAt []int
	for i, total := range totals {
		for _, m := range md.Check(MonthStats{Month: i, Total: total}) {
			if m.Type == MilestoneDoubled {
				doubledAt = append(doubledAt, m.Month)
			}
		}
	}

	// 40 -> 80 at month 3, then 80 -> 160 at month 5
	if len(doubledAt) != 2 || doubledAt[0] != 3 || doubledAt[1] != 5 {
		t.Errorf("doubled at %v, want [3 5]", doubledAt)
	}
}

func TestMilestoneDetector_Crash(t *testing.T) {
	md := NewMilestoneDetector(DefaultMilestoneThresholds())

	for i := 0; i < 5; i++ {
		md.Check(MonthStats{Month: i, Total: 100})
	}
	ms := md.Check(MonthStats{Month: 5, Total: 50})
	if !hasMilestone(ms, MilestoneCrash) {
		t.Error("expected population_crash milestone")
	}

	// Peak reset: a small further dip is not another crash
	ms = md.Check(MonthStats{Month: 6, Total: 45})
	if hasMilestone(ms, MilestoneCrash) {
		t.Error("unexpected second crash right after reset")
	}
}

func TestMilestoneDetector_CrashNeedsMinimumDrop(t *testing.T) {
	md := NewMilestoneDetector(DefaultMilestoneThresholds())
	md.Check(MonthStats{Month: 0, Total: 6})
	ms := md.Check(MonthStats{Month: 1, Total: 3}) // 50% but only 3 animals
	if hasMilestone(ms, MilestoneCrash) {
		t.Error("crash should require the minimum absolute drop")
	}
}

func TestMilestoneDetector_ExtinctionOnce(t *testing.T) {
	md := NewMilestoneDetector(DefaultMilestoneThresholds())
	md.Check(MonthStats{Month: 0, Total: 3})

	count := 0
	for i := 1; i < 5; i++ {
		for _, m := range md.Check(MonthStats{Month: i, Total: 0}) {
			if m.Type == MilestoneExtinction {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("extinction reported %d times, want 1", count)
	}
}

func TestMilestoneDetector_Plateau(t *testing.T) {
	th := DefaultMilestoneThresholds()
	md := NewMilestoneDetector(th)

	fired := 0
	for i := 0; i < 3*th.PlateauWindow; i++ {
		for _, m := range md.Check(MonthStats{Month: i, Total: 200 + i%2}) {
			if m.Type == MilestonePlateau {
				fired++
			}
		}
	}
	if fired != 1 {
		t.Errorf("plateau fired %d times over one flat stretch, want 1", fired)
	}
}

func TestMilestoneDetector_CrashToExtinction(t *testing.T) {
	md := NewMilestoneDetector(DefaultMilestoneThresholds())
	md.Check(MonthStats{Month: 0, Total: 10})

	var got []Milestone
	for i := 1; i < 4; i++ {
		got = append(got, md.Check(MonthStats{Month: i, Total: 0})...)
	}
	if !hasMilestone(got, MilestoneCrash) {
		t.Errorf("expected crash, got %+v", got)
	}
	if !hasMilestone(got, MilestoneExtinction) {
		t.Fatalf("expected extinction, got %+v", got)
	}
	for _, m := range got {
		if m.Type == MilestoneExtinction {
			if m.Month != 1 {
				t.Errorf("extinction at month %d, want 1", m.Month)
			}
			if !strings.Contains(m.Description, "peaking at 10") {
				t.Errorf("extinction should report the all-time peak: %q", m.Description)
			}
		}
	}
}
