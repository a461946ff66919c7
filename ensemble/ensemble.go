// Package ensemble runs replicate simulations over many seeds and
// summarises the spread of their trajectories.
package ensemble

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/dogpop/sim"
	"github.com/pthm-cable/dogpop/telemetry"
)

// Options configures an ensemble.
type Options struct {
	Replicates int
	Workers    int   // Concurrent replicates (0 = NumCPU)
	Seed       int64 // Seeds for the replicates are drawn from this

	// Logger receives one line per ensemble; replicate models log to a
	// discarding logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// Result holds every replicate trajectory in seed order.
type Result struct {
	Seeds []int64
	Runs  []telemetry.Series
	Ends  []telemetry.MonthStats // census after each replicate's last step
}

// Band summarises one metric across replicates for one month.
type Band struct {
	Month int     `csv:"month" json:"month"`
	Mean  float64 `csv:"mean" json:"mean"`
	Std   float64 `csv:"std" json:"std"`
	Min   float64 `csv:"min" json:"min"`
	P10   float64 `csv:"p10" json:"p10"`
	P50   float64 `csv:"p50" json:"p50"`
	P90   float64 `csv:"p90" json:"p90"`
	Max   float64 `csv:"max" json:"max"`
}

// Seeds derives n replicate seeds from a base seed.
func Seeds(base int64, n int) []int64 {
	rng := rand.New(rand.NewSource(base))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}

// Run executes the replicates on a bounded worker pool. Each replicate owns
// its model and random source, and results are stored by replicate index,
// so the output does not depend on scheduling.
func Run(params sim.Parameters, opts Options) (*Result, error) {
	if opts.Replicates < 1 {
		return nil, fmt.Errorf("%w: replicates = %d, must be >= 1", sim.ErrInvalidParameter, opts.Replicates)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	res := &Result{
		Seeds: Seeds(opts.Seed, opts.Replicates),
		Runs:  make([]telemetry.Series, opts.Replicates),
		Ends:  make([]telemetry.MonthStats, opts.Replicates),
	}
	errs := make([]error, opts.Replicates)

	start := time.Now()
	swg := sizedwaitgroup.New(workers)
	for i := range res.Seeds {
		swg.Add()
		go func(i int) {
			defer swg.Done()
			m, err := sim.New(params, sim.Options{Seed: res.Seeds[i], Logger: quiet})
			if err != nil {
				errs[i] = err
				return
			}
			res.Runs[i] = m.Run()
			res.Ends[i] = m.End()
		}(i)
	}
	swg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
	}

	final := summarise(params.MaxMonths, res.Finals(telemetry.MetricTotal))
	logger.Info("ensemble_complete",
		"replicates", opts.Replicates,
		"workers", workers,
		"final_mean", final.Mean,
		"final_std", final.Std,
		"final_p50", final.P50,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// Finals returns a metric from each replicate's end-of-run census.
func (r *Result) Finals(metric string) []float64 {
	out := make([]float64, 0, len(r.Ends))
	for _, end := range r.Ends {
		v, err := end.Value(metric)
		if err != nil {
			continue
		}
		out = append(out, float64(v))
	}
	return out
}

// Bands computes per-month summary statistics of a metric across replicates.
func (r *Result) Bands(metric string) ([]Band, error) {
	if len(r.Runs) == 0 {
		return nil, nil
	}

	columns := make([][]float64, len(r.Runs))
	months := math.MaxInt
	for i, s := range r.Runs {
		vals, err := s.Metric(metric)
		if err != nil {
			return nil, err
		}
		columns[i] = vals
		if len(vals) < months {
			months = len(vals)
		}
	}

	bands := make([]Band, months)
	sample := make([]float64, len(columns))
	for month := range bands {
		for i, col := range columns {
			sample[i] = col[month]
		}
		bands[month] = summarise(month, sample)
	}
	return bands, nil
}

// summarise sorts x in place.
func summarise(month int, x []float64) Band {
	sort.Float64s(x)
	b := Band{
		Month: month,
		Min:   x[0],
		Max:   x[len(x)-1],
		P10:   stat.Quantile(0.1, stat.Empirical, x, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, x, nil),
		P90:   stat.Quantile(0.9, stat.Empirical, x, nil),
	}
	if len(x) > 1 {
		b.Mean, b.Std = stat.MeanStdDev(x, nil)
	} else {
		b.Mean = x[0]
	}
	return b
}
