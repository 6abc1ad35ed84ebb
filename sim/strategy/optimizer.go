package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/trace"
)

// ErrNoCandidates is returned when enumeration yields no usable plan.
var ErrNoCandidates = errors.New("no candidate plans")

// DefaultTopK is the number of ranked results returned when TopK is unset.
const DefaultTopK = 5

// EvaluationResult is one simulated candidate plan.
type EvaluationResult struct {
	Plan          Plan                    `json:"plan"`
	Strategy      sim.Strategy            `json:"strategy"`
	TotalRaceTime float64                 `json:"total_race_time"`
	LapTimes      []float64               `json:"lap_times"`
	LapStats      sim.LapTimeDistribution `json:"lap_stats"`
}

// Report is the outcome of EvaluatePlans.
type Report struct {
	RunID     string                   `json:"run_id"`
	Best      EvaluationResult         `json:"best"`
	Top       []EvaluationResult       `json:"top"`
	Evaluated int                      `json:"evaluated"`
	Rejected  int                      `json:"rejected"`
	WallTime  time.Duration            `json:"wall_time_ns"`
	Trace     *trace.OptimizationTrace `json:"-"` // nil unless tracing is enabled
}

// OptimizeRequest describes one optimization run.
type OptimizeRequest struct {
	RaceLaps  int
	Compounds []sim.Compound
	Race      sim.RaceContext
	TopK      int // <= 0 means DefaultTopK
}

// Validate rejects requests that cannot produce a meaningful ranking.
func (r OptimizeRequest) Validate() error {
	if r.RaceLaps <= 0 {
		return fmt.Errorf("race_laps must be positive, got %d", r.RaceLaps)
	}
	if len(r.Compounds) == 0 {
		return fmt.Errorf("at least one compound is required")
	}
	if math.IsNaN(r.Race.BaseLapTime) || math.IsInf(r.Race.BaseLapTime, 0) || r.Race.BaseLapTime <= 0 {
		return fmt.Errorf("base lap time must be a positive finite number, got %f", r.Race.BaseLapTime)
	}
	if math.IsNaN(r.Race.PitLoss) || math.IsInf(r.Race.PitLoss, 0) || r.Race.PitLoss < 0 {
		return fmt.Errorf("pit loss must be a non-negative finite number, got %f", r.Race.PitLoss)
	}
	return nil
}

// OptimizerConfig groups optimizer parameters.
type OptimizerConfig struct {
	Workers int   // parallel evaluations; <= 0 means runtime.NumCPU()
	Seed    int64 // master seed for per-plan environment noise
	Trace   trace.TraceConfig
}

// Optimizer evaluates every enumerated plan and ranks them by total race time.
// The ranking covers the generated candidates only.
type Optimizer struct {
	sim        *sim.Simulator
	enumerator *Enumerator
	cfg        OptimizerConfig
}

// NewOptimizer builds an Optimizer. A nil enumerator uses DefaultEnumerator.
func NewOptimizer(s *sim.Simulator, enumerator *Enumerator, cfg OptimizerConfig) *Optimizer {
	if enumerator == nil {
		enumerator = DefaultEnumerator()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Optimizer{sim: s, enumerator: enumerator, cfg: cfg}
}

// EvaluatePlans enumerates candidate plans, simulates each one and returns
// them sorted ascending by total race time. Ties keep enumeration order.
//
// Each plan draws environment noise from its own stream derived from the
// master seed and the plan key, so results do not depend on Workers or on
// goroutine scheduling. Cancelling ctx aborts the run with ctx.Err().
func (o *Optimizer) EvaluatePlans(ctx context.Context, req OptimizeRequest) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate plans: %w", err)
	}
	start := time.Now()

	cands, rejected := o.enumerator.Enumerate(req.RaceLaps, req.Compounds)
	if len(cands) == 0 {
		return nil, fmt.Errorf("evaluate plans: %w for %d laps with %v", ErrNoCandidates, req.RaceLaps, req.Compounds)
	}

	results := make([]EvaluationResult, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i := range cands {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.evaluate(cands[i], req.Race)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate plans: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate plans: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalRaceTime < results[j].TotalRaceTime
	})

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	topK = min(topK, len(results))

	report := &Report{
		RunID:     uuid.New().String(),
		Best:      results[0],
		Top:       results[:topK],
		Evaluated: len(results),
		Rejected:  len(rejected),
		WallTime:  time.Since(start),
	}
	if o.cfg.Trace.Enabled() {
		report.Trace = buildTrace(o.cfg.Trace, results, rejected)
	}

	logrus.Infof("evaluated %d plans (%d rejected) in %v; best %s at %.3fs",
		report.Evaluated, report.Rejected, report.WallTime, report.Best.Plan.Key(), report.Best.TotalRaceTime)
	return report, nil
}

// evaluate simulates one candidate with its own noise stream.
func (o *Optimizer) evaluate(c Candidate, race sim.RaceContext) EvaluationResult {
	key := c.Plan.Key()
	noise := sim.NewPartitionedRNG(sim.NewSimulationKey(o.cfg.Seed)).ForSubsystem(sim.SubsystemPlan(key))
	res := o.sim.SimulateRace(c.Strategy, race, noise)
	return EvaluationResult{
		Plan:          c.Plan,
		Strategy:      c.Strategy,
		TotalRaceTime: res.TotalTime,
		LapTimes:      res.LapTimes,
		LapStats:      sim.NewLapTimeDistribution(res.LapTimes),
	}
}

func buildTrace(cfg trace.TraceConfig, ranked []EvaluationResult, rejected []Rejected) *trace.OptimizationTrace {
	ot := trace.NewOptimizationTrace(cfg)
	best := ranked[0].TotalRaceTime
	for i, r := range ranked {
		ot.RecordEvaluation(trace.EvaluationRecord{
			PlanKey:   r.Plan.Key(),
			Stops:     r.Plan.Stops(),
			Rank:      i + 1,
			TotalTime: r.TotalRaceTime,
			GapToBest: r.TotalRaceTime - best,
		})
	}
	for _, rj := range rejected {
		ot.RecordSkip(trace.SkipRecord{PlanKey: rj.Plan.Key(), Reason: rj.Reason})
	}
	return ot
}
