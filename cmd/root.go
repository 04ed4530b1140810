package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jobshop-sim/jobshop-sim/sim"
	"github.com/jobshop-sim/jobshop-sim/sim/scenario"
	"github.com/jobshop-sim/jobshop-sim/sim/trace"
)

var (
	seed        int64   // Seed for configuration, batch and every stochastic plant decision
	configPath  string  // Plant configuration YAML; empty derives a stochastic plant from the seed
	policyName  string  // Scheduling policy for run
	variantName string  // What-if plant variant
	logLevel    string  // Log verbosity level
	horizonDays float64 // Stop a batch that is still running after this many days
	resultsPath string  // File to save results JSON to
	traceLevel  string  // Decision trace level
	epochFlag   string  // Wall-clock date of minute 0
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "jobshop-sim",
	Short: "Discrete-event digital twin of a job-shop plant",
}

// runCmd executes one batch under one scheduling policy
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a production batch under one scheduling policy",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		opts := resolveOptions()
		opts.Policy = policyName

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		startTime := time.Now()
		res, err := scenario.Run(ctx, opts)
		if err != nil {
			logrus.Fatalf("run failed: %v", err)
		}
		printRunReport(os.Stdout, res)
		logrus.Infof("simulation complete in %s", time.Since(startTime).Round(time.Millisecond))

		if resultsPath != "" {
			if err := res.Save(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

// benchmarkCmd compares every scheduling policy on the same batch
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Compare FIFO, SPT and EDD on the same plant and batch",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		opts := resolveOptions()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		bench, err := scenario.Benchmark(ctx, opts)
		if err != nil {
			logrus.Fatalf("benchmark failed: %v", err)
		}
		printBenchmark(os.Stdout, bench)

		if resultsPath != "" {
			if err := bench.Save(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveOptions turns the shared flags into scenario options, exiting on
// invalid input.
func resolveOptions() scenario.Options {
	if !sim.IsValidSchedulingPolicy(policyName) {
		logrus.Fatalf("Unknown policy %q. Valid: %v", policyName, sim.SchedulingPolicyNames())
	}
	if !trace.IsValidTraceLevel(traceLevel) {
		logrus.Fatalf("Unknown trace level %q. Valid: none, decisions", traceLevel)
	}
	opts := scenario.Options{
		Seed:        seed,
		Variant:     variantName,
		HorizonDays: horizonDays,
		TraceLevel:  trace.TraceLevel(traceLevel),
	}
	if configPath != "" {
		cfg, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts.Config = cfg
		logrus.Infof("loaded plant configuration from %s", configPath)
	}

	opts, err := scenario.Prepare(opts)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	if epochFlag != "" {
		epoch, err := parseEpoch(epochFlag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts.Config.Epoch = epoch
	}
	logrus.Infof("seed %d, variant %s, batch of %d orders", opts.Seed, opts.Variant, opts.Batch.Total())
	return opts
}

// parseEpoch accepts an RFC 3339 timestamp or a YYYY-MM-DD date (midnight UTC).
func parseEpoch(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --epoch %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerSharedFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for plant configuration, batch and stochastic events")
	cmd.Flags().StringVar(&configPath, "config", "", "Plant configuration YAML (default: stochastic plant derived from --seed)")
	cmd.Flags().StringVar(&variantName, "variant", "base", "Plant variant (base, extra-mill, no-specialist)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().Float64Var(&horizonDays, "horizon-days", scenario.DefaultHorizonDays, "Stop an unfinished batch after this many simulated days")
	cmd.Flags().StringVar(&resultsPath, "results", "", "File to save results JSON to")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	cmd.Flags().StringVar(&epochFlag, "epoch", "", "Wall-clock time of minute 0 (RFC 3339 or YYYY-MM-DD)")
}

// init sets up CLI flags and subcommands
func init() {
	registerSharedFlags(runCmd)
	runCmd.Flags().StringVar(&policyName, "policy", "fifo", "Scheduling policy (fifo, spt, edd)")
	registerSharedFlags(benchmarkCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchmarkCmd)
}
