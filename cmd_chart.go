package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/dogpop/render"
	"github.com/pthm-cable/dogpop/telemetry"
)

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart <metrics.csv>",
		Short: "Chart a metrics.csv written by a previous run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			metrics, _ := cmd.Flags().GetStringSlice("metrics")
			title, _ := cmd.Flags().GetString("title")

			series, err := telemetry.ReadMetricsCSV(args[0])
			if err != nil {
				return err
			}
			p, err := render.SeriesChart(series, metrics, title)
			if err != nil {
				return err
			}
			if err := render.Save(p, outPath); err != nil {
				return err
			}
			slog.Info("chart_written", "path", outPath, "months", series.Len())
			return nil
		},
	}

	cmd.Flags().String("out", "population.png", "Output path (.png, .svg, .pdf)")
	cmd.Flags().StringSlice("metrics", []string{telemetry.MetricTotal}, "Metrics to chart")
	cmd.Flags().String("title", "Dog Population Growth Over Time", "Chart title")
	return cmd
}
