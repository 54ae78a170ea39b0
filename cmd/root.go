package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/portsim/portsim/sim"
	"github.com/portsim/portsim/sim/scenario"
	"github.com/portsim/portsim/sim/store"
	"github.com/portsim/portsim/sim/trace"
)

var (
	scenarioPath      string // Path to the scenario YAML
	simulationHorizon int64  // Last simulated minute (overrides the scenario)
	seed              int64  // Seed for generated arrivals (overrides the scenario)
	logLevel          string // Log verbosity level
	traceLevel        string // Decision trace level
	movementLogPath   string // SQLite file for the movement log; empty disables it
	retryDelay        int64  // Minutes before an unservable ship is retried (overrides the scenario)
	maxRetries        int    // Retries before an unservable ship is abandoned (overrides the scenario)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "portsim",
	Short: "Discrete-event simulator for sea port operations",
}

// runCmd loads a scenario and runs it to the horizon
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a port scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatalf("Scenario not provided. Exiting simulation.")
		}
		spec, err := scenario.LoadScenarioSpec(scenarioPath)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		cfg := applyOverrides(cmd, spec)

		runID, err := uuid.NewV7()
		if err != nil {
			logrus.Fatalf("Unable to create run ID: %v", err)
		}
		if err := runScenario(spec, cfg, runID, movementLogPath, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// applyOverrides lets explicitly set flags win over the scenario file and
// returns the resulting port configuration.
func applyOverrides(cmd *cobra.Command, spec *scenario.ScenarioSpec) sim.PortConfig {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		spec.Seed = seed
	}
	if flags.Changed("horizon") {
		spec.Horizon = simulationHorizon
	}
	cfg := spec.PortConfig(sim.DefaultPortConfig())
	if flags.Changed("retry-delay") {
		cfg.RetryDelay = retryDelay
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = maxRetries
	}
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevel(traceLevel)}
	return cfg
}

// runScenario builds and runs the port, then writes the report to w.
// Movements the port reports along the way are logged, not returned: they
// are part of the simulated outcome and show up in the metrics.
func runScenario(spec *scenario.ScenarioSpec, cfg sim.PortConfig, runID uuid.UUID, logPath string, w io.Writer) error {
	port, err := scenario.Build(spec, cfg)
	if err != nil {
		return fmt.Errorf("building port: %w", err)
	}

	if logPath != "" {
		movementLog, err := store.Open(logPath, runID, port)
		if err != nil {
			return fmt.Errorf("opening movement log: %w", err)
		}
		defer movementLog.Close()
		port.RegisterEvaluator(movementLog)
	}

	logrus.Infof("Starting run %s: horizon=%d, seed=%d, retry delay=%d, max retries=%d",
		runID, spec.Horizon, spec.Seed, cfg.RetryDelay, cfg.MaxRetries)
	start := time.Now()
	if err := port.Run(spec.Horizon); err != nil {
		logrus.Warnf("Run reported unresolved movements:\n%v", err)
	}
	logrus.Infof("Run %s finished in %s", runID, time.Since(start))

	fmt.Fprintf(w, "Run ID: %s\n", runID)
	port.Metrics().Print(w)
	printEvaluatorReports(w, port.Evaluators())
	if port.Trace() != nil {
		printTraceSummary(w, trace.Summarize(port.Trace()))
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	c.Flags().Int64Var(&simulationHorizon, "horizon", 0, "Last simulated minute (default: the scenario's horizon)")
	c.Flags().Int64Var(&seed, "seed", 0, "Seed for generated arrivals (default: the scenario's seed)")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	c.Flags().StringVar(&movementLogPath, "movement-log", "", "SQLite file to append resolved movements to")
	c.Flags().Int64Var(&retryDelay, "retry-delay", sim.DefaultRetryDelay, "Minutes before an unservable ship is retried")
	c.Flags().IntVar(&maxRetries, "max-retries", 0, "Retries before an unservable ship is abandoned (0 = never)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
