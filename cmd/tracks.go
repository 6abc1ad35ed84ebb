package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/track"
)

// tracksCmd lists the tracks registered in defaults.yaml
var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List registered tracks and their race parameters",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg, err := loadDefaultsConfig(defaultsFilePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		registry, err := cfg.TrackRegistry()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := printTracks(os.Stdout, registry); err != nil {
			logrus.Fatalf("Failed to write output: %v", err)
		}
	},
}

// printTracks writes one line per track in name order.
func printTracks(w io.Writer, registry *track.Registry) error {
	for _, name := range registry.Names() {
		_, p, err := registry.Get(name)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%-20s laps=%-3d avg_lap=%.3fs pit_loss=%.3fs", name, p.Laps, p.AvgLap, p.PitLoss)
		if life := formatTyreLife(p.TyreLife); life != "" {
			line += " tyre_life=" + life
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTyreLife(life map[sim.Compound]int) string {
	if len(life) == 0 {
		return ""
	}
	keys := make([]string, 0, len(life))
	for c := range life {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s:%d", k, life[sim.Compound(k)])
	}
	return out
}

func init() {
	tracksCmd.Flags().StringVar(&defaultsFilePath, "defaults-filepath", "defaults.yaml", "Path to defaults.yaml")
	rootCmd.AddCommand(tracksCmd)
}
