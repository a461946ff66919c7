package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/dogpop/render"
	"github.com/pthm-cable/dogpop/sim"
	"github.com/pthm-cable/dogpop/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single simulation",
		Long: `Run a single simulation and report the population trajectory.

With --output-dir the run writes metrics.csv, milestones.csv, the effective
config.yaml and summary.json into that directory.

Examples:
  dogpop run                                  # defaults, JSON logs
  dogpop run --flat --months 60 --chart pop.png
  dogpop run --config herd.hjson --seed 7 --output-dir out/run7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if cmd.Flags().Changed("output-dir") {
				cfg.Telemetry.OutputDir, _ = cmd.Flags().GetString("output-dir")
			}
			if cmd.Flags().Changed("log-every") {
				cfg.Telemetry.LogEvery, _ = cmd.Flags().GetInt("log-every")
			}
			chartPath, _ := cmd.Flags().GetString("chart")
			metrics, _ := cmd.Flags().GetStringSlice("metrics")

			params, err := cfg.Parameters()
			if err != nil {
				return err
			}

			out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := out.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config snapshot", "error", err)
			}

			slog.Info("run_started",
				"run_id", out.RunID(),
				"seed", cfg.Simulation.Seed,
				"months", params.MaxMonths,
				"initial_population", params.InitialPopulation,
				"sexed", params.Sexed,
			)

			m, err := sim.New(params, sim.Options{
				Seed:       cfg.Simulation.Seed,
				Logger:     slog.Default(),
				LogEvery:   cfg.Telemetry.LogEvery,
				Output:     out,
				Milestones: cfg.Telemetry.Milestones,
				PerfWindow: cfg.Telemetry.PerfWindow,
			})
			if err != nil {
				return err
			}
			series := m.Run()

			if err := out.WriteSummary(m.Summary()); err != nil {
				slog.Error("failed to write summary", "error", err)
			}

			if chartPath != "" {
				p, err := render.SeriesChart(series, metrics, "Dog Population Growth Over Time")
				if err != nil {
					return fmt.Errorf("building chart: %w", err)
				}
				if err := render.Save(p, chartPath); err != nil {
					return err
				}
				slog.Info("chart_written", "path", chartPath)
			}
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().String("output-dir", "", "Output directory for CSV logs, config snapshot and summary")
	cmd.Flags().Int("log-every", 0, "Log a month summary every N months (default from config)")
	cmd.Flags().String("chart", "", "Write a chart of the run to this path (.png, .svg, .pdf)")
	cmd.Flags().StringSlice("metrics", []string{telemetry.MetricTotal}, "Metrics to chart")
	return cmd
}
