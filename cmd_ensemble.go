package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/dogpop/ensemble"
	"github.com/pthm-cable/dogpop/render"
	"github.com/pthm-cable/dogpop/telemetry"
)

func newEnsembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Run replicate simulations and summarise their spread",
		Long: `Run many replicates of the same configuration with different seeds
and compute per-month mean, standard deviation and p10/p50/p90 bands.

Examples:
  dogpop ensemble --replicates 100 --bands bands.csv
  dogpop ensemble --config herd.yaml --chart bands.png --metric females`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if cmd.Flags().Changed("replicates") {
				cfg.Ensemble.Replicates, _ = cmd.Flags().GetInt("replicates")
			}
			if cmd.Flags().Changed("workers") {
				cfg.Ensemble.Workers, _ = cmd.Flags().GetInt("workers")
			}
			metric, _ := cmd.Flags().GetString("metric")
			bandsPath, _ := cmd.Flags().GetString("bands")
			chartPath, _ := cmd.Flags().GetString("chart")

			params, err := cfg.Parameters()
			if err != nil {
				return err
			}

			res, err := ensemble.Run(params, ensemble.Options{
				Replicates: cfg.Ensemble.Replicates,
				Workers:    cfg.Ensemble.Workers,
				Seed:       cfg.Simulation.Seed,
				Logger:     slog.Default(),
			})
			if err != nil {
				return err
			}

			bands, err := res.Bands(metric)
			if err != nil {
				return err
			}

			if bandsPath != "" {
				if err := writeBands(bandsPath, bands); err != nil {
					return err
				}
				slog.Info("bands_written", "path", bandsPath, "months", len(bands))
			}

			if chartPath != "" {
				p, err := render.BandsChart(bands, fmt.Sprintf("Dog Population (%s, %d replicates)", metric, cfg.Ensemble.Replicates))
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
	cmd.Flags().Int("replicates", 0, "Number of replicates (default from config)")
	cmd.Flags().Int("workers", 0, "Concurrent replicates (default from config, 0 = NumCPU)")
	cmd.Flags().String("metric", telemetry.MetricTotal, "Metric to summarise")
	cmd.Flags().String("bands", "", "Write per-month bands to this CSV path")
	cmd.Flags().String("chart", "", "Write a band chart to this path")
	return cmd
}

func writeBands(path string, bands []ensemble.Band) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bands file: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&bands, f); err != nil {
		return fmt.Errorf("writing bands: %w", err)
	}
	return nil
}
