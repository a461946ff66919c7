package telemetry

import (
	"fmt"
	"log/slog"
)

// MonthStats is one row of the metrics series: the population as it stood at
// the start of Month, before that month's transitions.
type MonthStats struct {
	Month        int `csv:"month" json:"month"`
	Total        int `csv:"total" json:"total"`
	Females      int `csv:"females" json:"females"`
	Males        int `csv:"males" json:"males"`
	Newborn      int `csv:"newborn" json:"newborn"`
	EarlyAge     int `csv:"early_age" json:"early_age"`
	Reproductive int `csv:"reproductive" json:"reproductive"`
	Spayed       int `csv:"spayed" json:"spayed"`

	// Events of the previous month's step (zero on row 0)
	Births  int `csv:"births" json:"births"`
	Deaths  int `csv:"deaths" json:"deaths"`
	Litters int `csv:"litters" json:"litters"`
}

// Metric names accepted by Series.Metric.
const (
	MetricTotal        = "total"
	MetricFemales      = "females"
	MetricMales        = "males"
	MetricNewborn      = "newborn"
	MetricEarlyAge     = "early_age"
	MetricReproductive = "reproductive"
	MetricSpayed       = "spayed"
	MetricBirths       = "births"
	MetricDeaths       = "deaths"
	MetricLitters      = "litters"
)

// MetricNames returns every metric name in column order.
func MetricNames() []string {
	return []string{
		MetricTotal, MetricFemales, MetricMales,
		MetricNewborn, MetricEarlyAge, MetricReproductive, MetricSpayed,
		MetricBirths, MetricDeaths, MetricLitters,
	}
}

// Value returns the named metric of the row.
func (s MonthStats) Value(name string) (int, error) {
	switch name {
	case MetricTotal:
		return s.Total, nil
	case MetricFemales:
		return s.Females, nil
	case MetricMales:
		return s.Males, nil
	case MetricNewborn:
		return s.Newborn, nil
	case MetricEarlyAge:
		return s.EarlyAge, nil
	case MetricReproductive:
		return s.Reproductive, nil
	case MetricSpayed:
		return s.Spayed, nil
	case MetricBirths:
		return s.Births, nil
	case MetricDeaths:
		return s.Deaths, nil
	case MetricLitters:
		return s.Litters, nil
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// LogValue implements slog.LogValuer for structured logging.
func (s MonthStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("month", s.Month),
		slog.Int("total", s.Total),
		slog.Int("females", s.Females),
		slog.Int("males", s.Males),
		slog.Int("newborn", s.Newborn),
		slog.Int("early_age", s.EarlyAge),
		slog.Int("reproductive", s.Reproductive),
		slog.Int("spayed", s.Spayed),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("litters", s.Litters),
	)
}

// Series is the recorded population trajectory, indexed by month from 0.
// It is immutable: accessors hand out copies.
type Series struct {
	rows []MonthStats
}

// NewSeries builds a series from rows, e.g. rows read back from CSV.
func NewSeries(rows []MonthStats) Series {
	cp := make([]MonthStats, len(rows))
	copy(cp, rows)
	return Series{rows: cp}
}

// Len returns the number of months recorded.
func (s Series) Len() int {
	return len(s.rows)
}

// Row returns the row for a month.
func (s Series) Row(month int) (MonthStats, bool) {
	if month < 0 || month >= len(s.rows) {
		return MonthStats{}, false
	}
	return s.rows[month], true
}

// Rows returns a copy of all rows.
func (s Series) Rows() []MonthStats {
	rows := make([]MonthStats, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// Last returns the final recorded row.
func (s Series) Last() (MonthStats, bool) {
	if len(s.rows) == 0 {
		return MonthStats{}, false
	}
	return s.rows[len(s.rows)-1], true
}

// Metric extracts one column as float64 values, ready for charting.
func (s Series) Metric(name string) ([]float64, error) {
	if _, err := (MonthStats{}).Value(name); err != nil {
		return nil, err
	}
	out := make([]float64, len(s.rows))
	for i, r := range s.rows {
		v, _ := r.Value(name)
		out[i] = float64(v)
	}
	return out, nil
}

// Peak returns the largest total population in the series.
func (s Series) Peak() int {
	peak := 0
	for _, r := range s.rows {
		if r.Total > peak {
			peak = r.Total
		}
	}
	return peak
}
