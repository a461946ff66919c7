package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// YAMLWriter is anything that can persist itself as YAML, such as a run config.
type YAMLWriter interface {
	WriteYAML(path string) error
}

// RunSummary is the end-of-run record written to summary.json. Final is the
// census after the last step, one month past the last metrics row; Peak
// covers both.
type RunSummary struct {
	RunID      string          `json:"run_id"`
	Seed       int64           `json:"seed"`
	Months     int             `json:"months"`
	Final      MonthStats      `json:"final"`
	Peak       int             `json:"peak"`
	Milestones int             `json:"milestones"`
	Lifetime   LifetimeSummary `json:"lifetime"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir           string
	runID         string
	metricsFile   *os.File
	milestoneFile *os.File

	// Track if headers have been written
	metricsHeaderWritten   bool
	milestoneHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	f, err := os.Create(filepath.Join(dir, "metrics.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating metrics.csv: %w", err)
	}
	om.metricsFile = f

	f, err = os.Create(filepath.Join(dir, "milestones.csv"))
	if err != nil {
		om.metricsFile.Close()
		return nil, fmt.Errorf("creating milestones.csv: %w", err)
	}
	om.milestoneFile = f

	return om, nil
}

// WriteConfig saves the run configuration as config.yaml.
func (om *OutputManager) WriteConfig(cfg YAMLWriter) error {
	if om == nil || cfg == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteMonth appends one row to metrics.csv.
func (om *OutputManager) WriteMonth(row MonthStats) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.metricsFile, []MonthStats{row}, &om.metricsHeaderWritten); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// WriteMilestone appends one record to milestones.csv.
func (om *OutputManager) WriteMilestone(m Milestone) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.milestoneFile, []Milestone{m}, &om.milestoneHeaderWritten); err != nil {
		return fmt.Errorf("writing milestone: %w", err)
	}
	return nil
}

// writeCSV emits the header on the first write only.
func writeCSV(f *os.File, records interface{}, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteSummary saves the run summary as summary.json, stamping the run id.
func (om *OutputManager) WriteSummary(s RunSummary) error {
	if om == nil {
		return nil
	}
	s.RunID = om.runID

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// RunID returns the unique identifier of this run's output.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.metricsFile, om.milestoneFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadMetricsCSV loads a metrics.csv written by WriteMonth.
func ReadMetricsCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("opening metrics: %w", err)
	}
	defer f.Close()

	var rows []MonthStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return Series{}, fmt.Errorf("reading metrics: %w", err)
	}
	return Series{rows: rows}, nil
}
