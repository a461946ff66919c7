// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/dogpop/sim"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Population   PopulationConfig   `yaml:"population" json:"population"`
	Seeding      SeedingConfig      `yaml:"seeding" json:"seeding"`
	Reproduction ReproductionConfig `yaml:"reproduction" json:"reproduction"`
	Mortality    MortalityConfig    `yaml:"mortality" json:"mortality"`
	Simulation   SimulationConfig   `yaml:"simulation" json:"simulation"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" json:"telemetry"`
	Ensemble     EnsembleConfig     `yaml:"ensemble" json:"ensemble"`
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	Initial  int     `yaml:"initial" json:"initial"`
	Sexed    bool    `yaml:"sexed" json:"sexed"`
	SexRatio float64 `yaml:"sex_ratio" json:"sex_ratio"`
}

// SeedingConfig holds the initial stage fractions per sex.
type SeedingConfig struct {
	Newborn         float64 `yaml:"newborn" json:"newborn"`
	EarlyAge        float64 `yaml:"early_age" json:"early_age"`
	Reproductive    float64 `yaml:"reproductive" json:"reproductive"`
	Pregnant        float64 `yaml:"pregnant" json:"pregnant"`
	NonReproductive float64 `yaml:"non_reproductive" json:"non_reproductive"`
}

// ReproductionConfig holds life-stage and litter parameters.
type ReproductionConfig struct {
	BirthInterval   int     `yaml:"birth_interval" json:"birth_interval"`
	LitterSize      int     `yaml:"litter_size" json:"litter_size"`
	FemalePuberty   int     `yaml:"female_puberty" json:"female_puberty"`
	MalePuberty     int     `yaml:"male_puberty" json:"male_puberty"`
	MaturityAge     int     `yaml:"maturity_age" json:"maturity_age"`
	SpayProbability float64 `yaml:"spay_probability" json:"spay_probability"`
}

// MortalityConfig holds mortality parameters.
type MortalityConfig struct {
	AnnualRate float64 `yaml:"annual_rate" json:"annual_rate"`
}

// SimulationConfig holds run control parameters.
type SimulationConfig struct {
	MaxMonths int   `yaml:"max_months" json:"max_months"`
	Seed      int64 `yaml:"seed" json:"seed"`
}

// TelemetryConfig holds logging and output parameters.
type TelemetryConfig struct {
	LogEvery   int    `yaml:"log_every" json:"log_every"`
	Milestones bool   `yaml:"milestones" json:"milestones"`
	PerfWindow int    `yaml:"perf_window" json:"perf_window"`
	OutputDir  string `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
}

// EnsembleConfig holds replicate run parameters.
type EnsembleConfig struct {
	Replicates int `yaml:"replicates" json:"replicates"`
	Workers    int `yaml:"workers" json:"workers"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load loads configuration from a YAML or HJSON file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := cfg.Overlay(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// FlatPreset returns the unisex model: 40 newborns, maturity at 12 months,
// a litter of 6 every 6 months, no puberty, spay or mortality.
func FlatPreset() *Config {
	cfg := MustLoad("")
	cfg.Population = PopulationConfig{Initial: 40, Sexed: false, SexRatio: 1.0}
	cfg.Seeding = SeedingConfig{Newborn: 1}
	cfg.Reproduction = ReproductionConfig{BirthInterval: 6, LitterSize: 6, MaturityAge: 12}
	cfg.Mortality = MortalityConfig{}
	cfg.Simulation.MaxMonths = 60
	return cfg
}

// Overlay merges a user file into the config. Only fields present in the
// file are overwritten. The format is chosen by extension: .hjson and .json
// are read as HJSON, everything else as YAML.
func (c *Config) Overlay(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hjson", ".json":
		err = c.overlayHJSON(data)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// overlayHJSON decodes into a generic map and re-encodes as JSON so the
// struct's json tags drive the merge.
func (c *Config) overlayHJSON(data []byte) error {
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return err
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(js, c)
}

// Parameters converts the config into validated model parameters.
func (c *Config) Parameters() (sim.Parameters, error) {
	p := sim.Parameters{
		InitialPopulation: c.Population.Initial,
		BirthInterval:     c.Reproduction.BirthInterval,
		LitterSize:        c.Reproduction.LitterSize,
		FemalePuberty:     c.Reproduction.FemalePuberty,
		MalePuberty:       c.Reproduction.MalePuberty,
		MaturityAge:       c.Reproduction.MaturityAge,
		SpayProbability:   c.Reproduction.SpayProbability,
		SexRatio:          c.Population.SexRatio,
		AnnualMortality:   c.Mortality.AnnualRate,
		MaxMonths:         c.Simulation.MaxMonths,
		Sexed:             c.Population.Sexed,
		Seeding: sim.Seeding{
			Newborn:         c.Seeding.Newborn,
			EarlyAge:        c.Seeding.EarlyAge,
			Reproductive:    c.Seeding.Reproductive,
			Pregnant:        c.Seeding.Pregnant,
			NonReproductive: c.Seeding.NonReproductive,
		},
	}
	if err := p.Validate(); err != nil {
		return sim.Parameters{}, err
	}
	return p, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
