package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/pitwall/sim/pace"
)

var gridPath string // YAML grid to predict

// predictRaceOutput is the JSON document printed by predict-race.
type predictRaceOutput struct {
	CircuitID      int                    `json:"circuit_id"`
	PredictedOrder []pace.PredictedFinish `json:"predicted_order"`
}

func newPredictRaceOutput(circuit int, order []pace.PredictedFinish) predictRaceOutput {
	out := predictRaceOutput{CircuitID: circuit, PredictedOrder: make([]pace.PredictedFinish, len(order))}
	for i, p := range order {
		p.PredictedFinish = round3(p.PredictedFinish)
		out.PredictedOrder[i] = p
	}
	return out
}

// predictRaceCmd predicts a finishing order from a starting grid
var predictRaceCmd = &cobra.Command{
	Use:   "predict-race",
	Short: "Predict the finishing order of a starting grid",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		grid, err := pace.LoadGrid(gridPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cmd.Flags().Changed("circuit-id") {
			grid.CircuitID = circuitID
		}

		store, err := pace.OpenStore(paceDBPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() { _ = store.Close() }()

		model, err := pace.LoadLinearRankModel(paceModelPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		order, err := pace.PredictOrder(store, model, grid.CircuitID, grid.Entries)
		if err != nil {
			logrus.Fatalf("Prediction failed: %v", err)
		}
		imputed := 0
		for _, p := range order {
			if p.Imputed {
				imputed++
			}
		}
		if imputed > 0 {
			logrus.Warnf("%d of %d grid entries have no pace reference row at circuit %d; grid means were used", imputed, len(order), grid.CircuitID)
		}

		if err := writeJSON(os.Stdout, newPredictRaceOutput(grid.CircuitID, order)); err != nil {
			logrus.Fatalf("Failed to write output: %v", err)
		}
	},
}

func init() {
	predictRaceCmd.Flags().StringVar(&gridPath, "grid", "", "YAML starting grid (circuit_id and drivers)")
	predictRaceCmd.Flags().StringVar(&paceDBPath, "pace-db", "", "Path to SQLite pace reference database")
	predictRaceCmd.Flags().StringVar(&paceModelPath, "pace-model", "", "Path to finishing-rank regressor (YAML)")
	predictRaceCmd.Flags().IntVar(&circuitID, "circuit-id", 0, "Circuit id (overrides the grid file)")
	_ = predictRaceCmd.MarkFlagRequired("grid")
	_ = predictRaceCmd.MarkFlagRequired("pace-db")
	_ = predictRaceCmd.MarkFlagRequired("pace-model")

	rootCmd.AddCommand(predictRaceCmd)
}
