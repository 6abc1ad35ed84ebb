package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/strategy"
	"github.com/pitwall-sim/pitwall/sim/trace"
)

// raceOutput is the JSON document printed by the run command.
type raceOutput struct {
	Track         string                  `json:"track,omitempty"`
	BaseLapUsed   float64                 `json:"base_lap_used"`
	PitLossUsed   float64                 `json:"pit_loss_used"`
	Strategy      sim.Strategy            `json:"strategy"`
	PitStops      int                     `json:"pit_stops"`
	TotalRaceTime float64                 `json:"total_race_time"`
	LapTimes      []float64               `json:"lap_times"`
	LapStats      sim.LapTimeDistribution `json:"lap_stats"`
	PaceFactor    float64                 `json:"pace_factor"`
	PaceSource    string                  `json:"pace_source"`
}

// planOutput is one ranked entry of the optimize output.
type planOutput struct {
	Key           string                  `json:"key"`
	Plan          strategy.Plan           `json:"plan"`
	Strategy      sim.Strategy            `json:"strategy"`
	TotalRaceTime float64                 `json:"total_race_time"`
	LapTimes      []float64               `json:"lap_times,omitempty"`
	LapStats      sim.LapTimeDistribution `json:"lap_stats"`
}

// optimizeOutput is the JSON document printed by the optimize command.
type optimizeOutput struct {
	RunID        string              `json:"run_id"`
	Track        string              `json:"track,omitempty"`
	BaseLapUsed  float64             `json:"base_lap_used"`
	PitLossUsed  float64             `json:"pit_loss_used"`
	RaceLaps     int                 `json:"race_laps"`
	Evaluated    int                 `json:"evaluated"`
	Rejected     int                 `json:"rejected"`
	Best         planOutput          `json:"best"`
	Top          []planOutput        `json:"top"`
	TraceSummary *trace.TraceSummary `json:"trace_summary,omitempty"`
}

func newRaceOutput(trackDisplay string, race sim.RaceContext, s sim.Strategy, r sim.RaceResult) raceOutput {
	return raceOutput{
		Track:         trackDisplay,
		BaseLapUsed:   race.BaseLapTime,
		PitLossUsed:   race.PitLoss,
		Strategy:      s,
		PitStops:      r.PitStops,
		TotalRaceTime: round3(r.TotalTime),
		LapTimes:      roundAll(r.LapTimes),
		LapStats:      roundStats(sim.NewLapTimeDistribution(r.LapTimes)),
		PaceFactor:    r.PaceFactor.Value,
		PaceSource:    r.PaceFactor.Outcome.String(),
	}
}

// newPlanOutput renders one evaluation; lap times are included only when withLaps is set.
func newPlanOutput(r strategy.EvaluationResult, withLaps bool) planOutput {
	out := planOutput{
		Key:           r.Plan.Key(),
		Plan:          r.Plan,
		Strategy:      r.Strategy,
		TotalRaceTime: round3(r.TotalRaceTime),
		LapStats:      roundStats(r.LapStats),
	}
	if withLaps {
		out.LapTimes = roundAll(r.LapTimes)
	}
	return out
}

func newOptimizeOutput(trackDisplay string, req strategy.OptimizeRequest, rep *strategy.Report, summary *trace.TraceSummary) optimizeOutput {
	out := optimizeOutput{
		RunID:        rep.RunID,
		Track:        trackDisplay,
		BaseLapUsed:  req.Race.BaseLapTime,
		PitLossUsed:  req.Race.PitLoss,
		RaceLaps:     req.RaceLaps,
		Evaluated:    rep.Evaluated,
		Rejected:     rep.Rejected,
		Best:         newPlanOutput(rep.Best, true),
		TraceSummary: summary,
	}
	for _, r := range rep.Top {
		out.Top = append(out.Top, newPlanOutput(r, false))
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// round3 rounds to millisecond precision for display.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = round3(x)
	}
	return out
}

func roundStats(d sim.LapTimeDistribution) sim.LapTimeDistribution {
	d.Mean = round3(d.Mean)
	d.P50 = round3(d.P50)
	d.P95 = round3(d.P95)
	d.Min = round3(d.Min)
	d.Max = round3(d.Max)
	return d
}
