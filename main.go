package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/dogpop/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dogpop",
		Short: "Agent-based dog population simulator",
		Long: `dogpop simulates a dog population month by month.

Each dog ages through newborn, early-age, reproductive and spayed stages,
faces a monthly mortality draw and, if female and reproductive, produces
litters on its own birth-month cycle. Runs are reproducible from a seed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml or .hjson (empty = use defaults)")
	rootCmd.PersistentFlags().Bool("flat", false, "Start from the flat unisex preset instead of the defaults")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log per-agent events at debug level")

	rootCmd.AddCommand(
		newRunCmd(),
		newEnsembleCmd(),
		newChartCmd(),
	)
	return rootCmd
}

// setupLogging installs the default slog logger on the command's output.
func setupLogging(cmd *cobra.Command) error {
	format, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var w io.Writer = cmd.OutOrStdout()
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig resolves --flat and --config into the effective configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	flat, _ := cmd.Flags().GetBool("flat")

	if !flat {
		return config.Load(path)
	}
	cfg := config.FlatPreset()
	if err := cfg.Overlay(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyRunFlags overrides config fields with any run flags the user set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("months") {
		cfg.Simulation.MaxMonths, _ = flags.GetInt("months")
	}
	if flags.Changed("population") {
		cfg.Population.Initial, _ = flags.GetInt("population")
	}
	if flags.Changed("spay") {
		cfg.Reproduction.SpayProbability, _ = flags.GetFloat64("spay")
	}
	if flags.Changed("mortality") {
		cfg.Mortality.AnnualRate, _ = flags.GetFloat64("mortality")
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("seed", 0, "RNG seed (default from config)")
	cmd.Flags().Int("months", 0, "Months to simulate (default from config)")
	cmd.Flags().Int("population", 0, "Initial population (default from config)")
	cmd.Flags().Float64("spay", 0, "Monthly spay probability per reproductive female (default from config)")
	cmd.Flags().Float64("mortality", 0, "Annual mortality rate (default from config)")
}
