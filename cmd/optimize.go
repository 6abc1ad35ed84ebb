package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/strategy"
	"github.com/pitwall-sim/pitwall/sim/trace"
)

var (
	compoundNames   []string      // Available compounds
	topK            int           // Ranked results to print
	workers         int           // Parallel plan evaluations
	optimizeTimeout time.Duration // Deadline for the whole run
	traceLevel      string        // Optimization trace verbosity
	summarizeTrace  bool          // Print trace summary
	respectTyreLife bool          // Reject stints beyond the track's tyre life
)

// optimizeCmd ranks the generated candidate strategies for one race
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rank candidate pit-stop strategies by simulated race time",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid --trace-level %q. Valid: none, evaluations", traceLevel)
		}
		if summarizeTrace && traceLevel == string(trace.TraceLevelNone) {
			logrus.Warnf("--summarize-trace has no effect without --trace-level evaluations")
		}
		if topK < 1 {
			logrus.Fatalf("--top-k must be >= 1, got %d", topK)
		}

		cfg, err := loadDefaultsConfig(defaultsFilePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		race, laps, trackDisplay := resolveRace(cmd, cfg)

		compounds, err := sim.ParseCompounds(compoundNames)
		if err != nil {
			logrus.Fatalf("Invalid --compounds: %v", err)
		}

		enumerator := strategy.DefaultEnumerator()
		if respectTyreLife {
			limits := tyreLifeLimits(cfg, trackDisplay)
			if limits == nil {
				logrus.Warnf("--respect-tyre-life set but no tyre life is configured for this track")
			}
			enumerator = enumerator.WithStintLimits(limits)
		}

		s, cleanup := buildSimulator(cfg)
		defer cleanup()

		opt := strategy.NewOptimizer(s, enumerator, strategy.OptimizerConfig{
			Workers: workers,
			Seed:    seed,
			Trace:   trace.TraceConfig{Level: trace.TraceLevel(traceLevel)},
		})

		ctx := context.Background()
		if optimizeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, optimizeTimeout)
			defer cancel()
		}

		req := strategy.OptimizeRequest{RaceLaps: laps, Compounds: compounds, Race: race, TopK: topK}
		report, err := opt.EvaluatePlans(ctx, req)
		if errors.Is(err, context.DeadlineExceeded) {
			logrus.Fatalf("Optimization exceeded --timeout %v", optimizeTimeout)
		}
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}

		var summary *trace.TraceSummary
		if summarizeTrace && report.Trace != nil {
			summary = trace.Summarize(report.Trace)
		}
		if err := writeJSON(os.Stdout, newOptimizeOutput(trackDisplay, req, report, summary)); err != nil {
			logrus.Fatalf("Failed to write output: %v", err)
		}
	},
}

// tyreLifeLimits returns the registry's tyre life for the resolved track, or nil.
func tyreLifeLimits(cfg Config, trackDisplay string) map[sim.Compound]int {
	if trackDisplay == "" {
		return nil
	}
	registry, err := cfg.TrackRegistry()
	if err != nil {
		return nil
	}
	_, params, err := registry.Get(trackDisplay)
	if err != nil || len(params.TyreLife) == 0 {
		return nil
	}
	return params.TyreLife
}

func init() {
	registerRaceFlags(optimizeCmd)
	optimizeCmd.Flags().StringSliceVar(&compoundNames, "compounds", []string{"SOFT", "MEDIUM", "HARD"}, "Available compounds")
	optimizeCmd.Flags().IntVar(&topK, "top-k", strategy.DefaultTopK, "Number of ranked strategies to print")
	optimizeCmd.Flags().IntVar(&workers, "workers", 0, "Parallel plan evaluations (0 = number of CPUs)")
	optimizeCmd.Flags().DurationVar(&optimizeTimeout, "timeout", 0, "Abort the optimization after this duration (0 = no limit)")
	optimizeCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Optimization trace level (none, evaluations)")
	optimizeCmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Include a trace summary in the output (requires --trace-level evaluations)")
	optimizeCmd.Flags().BoolVar(&respectTyreLife, "respect-tyre-life", false, "Reject plans with stints beyond the track's tyre life")

	rootCmd.AddCommand(optimizeCmd)
}
