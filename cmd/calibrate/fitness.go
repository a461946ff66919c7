package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/dogpop/config"
	"github.com/pthm-cable/dogpop/ensemble"
	"github.com/pthm-cable/dogpop/telemetry"
)

// FitnessEvaluator scores a parameter vector by how close replicate runs
// end to the target population.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	target     float64
	replicates int
	seed       int64
	workers    int
	logger     *slog.Logger

	mu       sync.Mutex
	lastMean float64 // mean final population from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every evaluation uses the
// same replicate seeds so candidates are compared on common noise.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, target float64, replicates, workers int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		target:     target,
		replicates: replicates,
		seed:       baseCfg.Simulation.Seed,
		workers:    workers,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastMean returns the mean final population of the most recent evaluation.
func (fe *FitnessEvaluator) LastMean() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMean
}

// Evaluate computes fitness for raw parameter values (lower = better):
// the mean squared relative error of the final population across replicates.
// Invalid configurations score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)

	p, err := cfg.Parameters()
	if err != nil {
		return math.Inf(1)
	}
	res, err := ensemble.Run(p, ensemble.Options{
		Replicates: fe.replicates,
		Workers:    fe.workers,
		Seed:       fe.seed,
		Logger:     fe.logger,
	})
	if err != nil {
		return math.Inf(1)
	}

	finals := res.Finals(telemetry.MetricTotal)
	fitness, mean := fe.score(finals)

	fe.mu.Lock()
	fe.lastMean = mean
	fe.mu.Unlock()

	return fitness
}

// score returns the mean squared relative error and the mean final value.
func (fe *FitnessEvaluator) score(finals []float64) (fitness, mean float64) {
	if len(finals) == 0 {
		return math.Inf(1), 0
	}
	scale := math.Max(fe.target, 1)
	for _, f := range finals {
		d := (f - fe.target) / scale
		fitness += d * d
		mean += f
	}
	n := float64(len(finals))
	return fitness / n, mean / n
}
