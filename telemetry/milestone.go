package telemetry

import (
	"fmt"
	"log/slog"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneDoubled    MilestoneType = "population_doubled"
	MilestoneCrash      MilestoneType = "population_crash"
	MilestoneExtinction MilestoneType = "extinction"
	MilestonePlateau    MilestoneType = "plateau"
)

// Milestone is a notable moment in a population trajectory.
type Milestone struct {
	Type        MilestoneType `csv:"type" json:"type"`
	Month       int           `csv:"month" json:"month"`
	Total       int           `csv:"total" json:"total"`
	Description string        `csv:"description" json:"description"`
}

// LogValue implements slog.LogValuer for structured logging.
func (m Milestone) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(m.Type)),
		slog.Int("month", m.Month),
		slog.Int("total", m.Total),
		slog.String("description", m.Description),
	)
}

// MilestoneThresholds tunes the detector.
type MilestoneThresholds struct {
	CrashDrop     float64 // Fractional drop from peak that counts as a crash (e.g. 0.3)
	CrashMinDrop  int     // Minimum absolute drop for a crash
	PlateauWindow int     // Months of history used for plateau detection
	PlateauCV     float64 // Coefficient of variation below which the window is flat
}

// DefaultMilestoneThresholds returns the thresholds used when none are configured.
func DefaultMilestoneThresholds() MilestoneThresholds {
	return MilestoneThresholds{
		CrashDrop:     0.30,
		CrashMinDrop:  5,
		PlateauWindow: 6,
		PlateauCV:     0.2,
	}
}

// MilestoneDetector watches the monthly rows and reports milestones.
type MilestoneDetector struct {
	th MilestoneThresholds

	// Rolling history of totals (circular buffer)
	history     []int
	historyIdx  int
	historyFull bool

	started      bool
	baseline     int  // total at the last doubling or crash (or the first row)
	peak         int  // peak total since the last crash
	highest      int  // all-time peak total
	extinct      bool // extinction already reported
	plateauFired bool // plateau reported for the current flat stretch
}

// NewMilestoneDetector creates a detector.
func NewMilestoneDetector(th MilestoneThresholds) *MilestoneDetector {
	if th.PlateauWindow < 2 {
		th.PlateauWindow = 2
	}
	return &MilestoneDetector{
		th:      th,
		history: make([]int, th.PlateauWindow),
	}
}

// Check analyzes the latest row and returns any triggered milestones.
func (md *MilestoneDetector) Check(row MonthStats) []Milestone {
	var out []Milestone

	if !md.started {
		md.started = true
		md.baseline = row.Total
	}

	if m := md.checkDoubled(row); m != nil {
		out = append(out, *m)
	}
	if m := md.checkCrash(row); m != nil {
		out = append(out, *m)
	}
	if m := md.checkExtinction(row); m != nil {
		out = append(out, *m)
	}
	if row.Total > md.highest {
		md.highest = row.Total
	}

	md.addToHistory(row.Total)

	if m := md.checkPlateau(row); m != nil {
		out = append(out, *m)
	}

	if row.Total > md.peak {
		md.peak = row.Total
	}

	return out
}

func (md *MilestoneDetector) addToHistory(total int) {
	md.history[md.historyIdx] = total
	md.historyIdx = (md.historyIdx + 1) % len(md.history)
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) checkDoubled(row MonthStats) *Milestone {
	if md.baseline <= 0 || row.Total < 2*md.baseline {
		return nil
	}
	old := md.baseline
	md.baseline = row.Total
	return &Milestone{
		Type:        MilestoneDoubled,
		Month:       row.Month,
		Total:       row.Total,
		Description: fmt.Sprintf("Population grew from %d to %d", old, row.Total),
	}
}

func (md *MilestoneDetector) checkCrash(row MonthStats) *Milestone {
	if md.peak == 0 {
		return nil
	}
	drop := 1.0 - float64(row.Total)/float64(md.peak)
	if drop <= md.th.CrashDrop || md.peak-row.Total < md.th.CrashMinDrop {
		return nil
	}
	oldPeak := md.peak
	md.peak = row.Total
	// A crash resets the doubling baseline so recovery is reported again.
	md.baseline = row.Total
	return &Milestone{
		Type:        MilestoneCrash,
		Month:       row.Month,
		Total:       row.Total,
		Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, row.Total),
	}
}

func (md *MilestoneDetector) checkExtinction(row MonthStats) *Milestone {
	if md.extinct || row.Total > 0 || md.highest == 0 {
		return nil
	}
	md.extinct = true
	return &Milestone{
		Type:        MilestoneExtinction,
		Month:       row.Month,
		Total:       0,
		Description: fmt.Sprintf("Population went extinct after peaking at %d", md.highest),
	}
}

func (md *MilestoneDetector) checkPlateau(row MonthStats) *Milestone {
	if !md.historyFull || row.Total == 0 {
		return nil
	}

	n := float64(len(md.history))
	var sum float64
	for _, v := range md.history {
		sum += float64(v)
	}
	mean := sum / n

	var variance float64
	for _, v := range md.history {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= n

	// Compare squared CV to avoid a sqrt
	flat := mean > 0 && variance/(mean*mean) < md.th.PlateauCV*md.th.PlateauCV
	if !flat {
		md.plateauFired = false
		return nil
	}
	if md.plateauFired {
		return nil
	}
	md.plateauFired = true
	return &Milestone{
		Type:        MilestonePlateau,
		Month:       row.Month,
		Total:       row.Total,
		Description: fmt.Sprintf("Population steady around %.0f over %d months", mean, len(md.history)),
	}
}
