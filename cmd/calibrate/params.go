package main

import (
	"github.com/pthm-cable/dogpop/config"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	get func(cfg *config.Config) float64
	set func(cfg *config.Config, v float64)
}

// ParamVector holds the set of parameters being searched.
type ParamVector struct {
	Specs []ParamSpec
}

var spaySpec = ParamSpec{
	Name: "spay_probability", Path: "reproduction.spay_probability", Min: 0, Max: 0.5,
	get: func(cfg *config.Config) float64 { return cfg.Reproduction.SpayProbability },
	set: func(cfg *config.Config, v float64) { cfg.Reproduction.SpayProbability = v },
}

var mortalitySpec = ParamSpec{
	Name: "annual_mortality", Path: "mortality.annual_rate", Min: 0, Max: 0.8,
	get: func(cfg *config.Config) float64 { return cfg.Mortality.AnnualRate },
	set: func(cfg *config.Config, v float64) { cfg.Mortality.AnnualRate = v },
}

// NewParamVector creates the search space: the spay probability, plus the
// annual mortality rate when withMortality is set.
func NewParamVector(withMortality bool) *ParamVector {
	specs := []ParamSpec{spaySpec}
	if withMortality {
		specs = append(specs, mortalitySpec)
	}
	return &ParamVector{Specs: specs}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// FromConfig extracts the current values from a config, clamped to bounds.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return pv.Clamp(v)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into a config.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}
