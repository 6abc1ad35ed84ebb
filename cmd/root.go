package cmd

import (
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/degradation"
	"github.com/pitwall-sim/pitwall/sim/pace"
)

var (
	// CLI flags shared by run and optimize
	seed             int64   // Seed for environment noise
	logLevel         string  // Log verbosity level
	defaultsFilePath string  // Path to defaults.yaml
	trackName        string  // Track name in the registry
	baseLapTime      float64 // Fresh-tyre reference lap (s)
	pitLoss          float64 // Time lost per pit stop (s)
	raceLaps         int     // Race distance in laps
	trackTemp        float64 // Track temperature (°C)
	airTemp          float64 // Air temperature (°C)
	windSpeed        float64 // Wind speed
	degModelPath     string  // LSTM degradation model weights (JSON)
	paceDBPath       string  // SQLite pace reference database
	paceModelPath    string  // Finishing-rank regressor (YAML)
	driverID         int     // Driver identifier for pace scaling
	constructorID    int     // Constructor identifier for pace scaling
	circuitID        int     // Circuit identifier for pace scaling

	// run-only
	strategyText string // Strategy as COMPOUND:LAPS,...
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pitwall",
	Short: "Lap-time simulator and pit-stop strategy optimizer",
}

// runCmd simulates one strategy using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a race under one tyre strategy",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := loadDefaultsConfig(defaultsFilePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		race, laps, trackDisplay := resolveRace(cmd, cfg)

		strategy, err := sim.ParseStrategy(strategyText)
		if err != nil {
			logrus.Fatalf("Invalid --strategy: %v", err)
		}
		if !cmd.Flags().Changed("race-laps") && trackDisplay == "" {
			laps = strategy.TotalLaps()
		}
		if err := strategy.Validate(laps); err != nil {
			logrus.Fatalf("Rejected strategy: %v", err)
		}

		s, cleanup := buildSimulator(cfg)
		defer cleanup()

		logrus.Infof("Simulating %s over %d laps (base=%.3fs, pit loss=%.3fs)", strategy, laps, race.BaseLapTime, race.PitLoss)
		noise := sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemEnvironment)
		result := s.SimulateRace(strategy, race, noise)

		if err := writeJSON(os.Stdout, newRaceOutput(trackDisplay, race, strategy, result)); err != nil {
			logrus.Fatalf("Failed to write output: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveRace combines registry values for --track with explicitly set flags.
// Returns the race context, the race distance and the track display name
// ("" when no track was given).
func resolveRace(cmd *cobra.Command, cfg Config) (sim.RaceContext, int, string) {
	flags := cmd.Flags()
	race := sim.RaceContext{BaseLapTime: baseLapTime, PitLoss: pitLoss}
	laps := raceLaps
	display := ""

	if trackName != "" {
		registry, err := cfg.TrackRegistry()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		name, params, err := registry.Get(trackName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		display = name
		if !flags.Changed("base-lap-time") {
			race.BaseLapTime = params.AvgLap
		}
		if !flags.Changed("pit-loss") {
			race.PitLoss = params.PitLoss
		}
		if !flags.Changed("race-laps") {
			laps = params.Laps
		}
	} else if !flags.Changed("base-lap-time") || !flags.Changed("pit-loss") {
		logrus.Fatalf("Either --track or both --base-lap-time and --pit-loss are required")
	}
	if race.BaseLapTime <= 0 || math.IsNaN(race.BaseLapTime) || math.IsInf(race.BaseLapTime, 0) {
		logrus.Fatalf("--base-lap-time must be a positive finite number, got %v", race.BaseLapTime)
	}
	if race.PitLoss < 0 || math.IsNaN(race.PitLoss) || math.IsInf(race.PitLoss, 0) {
		logrus.Fatalf("--pit-loss must be a non-negative finite number, got %v", race.PitLoss)
	}

	race.Env = environmentFromFlags(cmd)
	if flags.Changed("driver-id") {
		race.Pace = &sim.PaceKey{DriverID: driverID, ConstructorID: constructorID, CircuitID: circuitID}
	}
	return race, laps, display
}

// environmentFromFlags includes only the conditions the user actually set.
func environmentFromFlags(cmd *cobra.Command) sim.Environment {
	env := sim.Environment{}
	if cmd.Flags().Changed("track-temp") {
		env[sim.EnvTrackTemp] = trackTemp
	}
	if cmd.Flags().Changed("air-temp") {
		env[sim.EnvAirTemp] = airTemp
	}
	if cmd.Flags().Changed("wind-speed") {
		env[sim.EnvWindSpeed] = windSpeed
	}
	if len(env) == 0 {
		return nil
	}
	return env
}

// buildSimulator wires the optional models. A model that fails to load is
// logged and left out; the simulator then uses its neutral fallback.
func buildSimulator(cfg Config) (*sim.Simulator, func()) {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		logrus.Fatalf("Invalid defaults: %v", err)
	}
	cleanup := func() {}

	var model sim.DegradationModel
	if degModelPath != "" {
		lstm, err := degradation.Load(degModelPath)
		if err != nil {
			logrus.Warnf("Degradation model unavailable, predicted delta falls back to 0: %v", err)
		} else {
			model = lstm
			logrus.Infof("Loaded degradation model %s (input_dim=%d)", degModelPath, lstm.InputDim())
		}
	}

	var reference sim.PaceReference
	if paceDBPath != "" {
		store, err := pace.OpenStore(paceDBPath)
		if err != nil {
			logrus.Warnf("Pace reference unavailable: %v", err)
		} else {
			table, err := store.LoadTable()
			if err != nil {
				logrus.Warnf("Pace reference unavailable: %v", err)
			} else {
				reference = table
				logrus.Infof("Loaded %d pace reference rows from %s", table.Len(), paceDBPath)
			}
			cleanup = func() { _ = store.Close() }
		}
	}

	var regressor sim.RankRegressor
	if paceModelPath != "" {
		rm, err := pace.LoadLinearRankModel(paceModelPath)
		if err != nil {
			logrus.Warnf("Rank regressor unavailable: %v", err)
		} else {
			regressor = rm
		}
	}

	s, err := sim.NewSimulator(simCfg, model, sim.NewPaceFactorProvider(reference, regressor, cfg.Pace.Slope))
	if err != nil {
		cleanup()
		logrus.Fatalf("Failed to build simulator: %v", err)
	}
	if !s.HasDegradationModel() {
		logrus.Info("No degradation model in use; predicted delta falls back to 0")
	}
	return s, cleanup
}

// registerRaceFlags attaches the flags shared by run and optimize.
func registerRaceFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for environment noise")
	cmd.Flags().StringVar(&defaultsFilePath, "defaults-filepath", "defaults.yaml", "Path to defaults.yaml (compounds, tracks, coefficients)")

	// Race parameters
	cmd.Flags().StringVar(&trackName, "track", "", "Track name (registry supplies base lap, pit loss and race laps)")
	cmd.Flags().Float64Var(&baseLapTime, "base-lap-time", 0, "Fresh-tyre reference lap time in seconds (overrides --track)")
	cmd.Flags().Float64Var(&pitLoss, "pit-loss", 0, "Seconds lost per pit stop (overrides --track)")
	cmd.Flags().IntVar(&raceLaps, "race-laps", 57, "Race distance in laps (overrides --track)")

	// Environment (only applied when set)
	cmd.Flags().Float64Var(&trackTemp, "track-temp", 30, "Track temperature in °C")
	cmd.Flags().Float64Var(&airTemp, "air-temp", 25, "Air temperature in °C")
	cmd.Flags().Float64Var(&windSpeed, "wind-speed", 0, "Wind speed (adds seeded lap-time noise)")

	// Models
	cmd.Flags().StringVar(&degModelPath, "deg-model", "", "Path to LSTM degradation model weights (JSON)")
	cmd.Flags().StringVar(&paceDBPath, "pace-db", "", "Path to SQLite pace reference database")
	cmd.Flags().StringVar(&paceModelPath, "pace-model", "", "Path to finishing-rank regressor (YAML)")
	cmd.Flags().IntVar(&driverID, "driver-id", 0, "Driver id for pace scaling")
	cmd.Flags().IntVar(&constructorID, "constructor-id", 0, "Constructor id for pace scaling")
	cmd.Flags().IntVar(&circuitID, "circuit-id", 0, "Circuit id for pace scaling")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerRaceFlags(runCmd)
	runCmd.Flags().StringVar(&strategyText, "strategy", "", "Strategy as COMPOUND:LAPS,... (e.g. SOFT:18,MEDIUM:20,HARD:19)")
	_ = runCmd.MarkFlagRequired("strategy")

	rootCmd.AddCommand(runCmd)
}
