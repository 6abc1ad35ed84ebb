package strategy

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/internal/testutil"
	"github.com/pitwall-sim/pitwall/sim/trace"
)

func TestMain(m *testing.M) {
	// Set DEBUG_TESTS=1 to see full logs
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func newTestOptimizer(t *testing.T, cfg OptimizerConfig) *Optimizer {
	t.Helper()
	s, err := sim.NewSimulator(sim.DefaultSimConfig(), nil, nil)
	require.NoError(t, err)
	return NewOptimizer(s, nil, cfg)
}

// noStopEnumerator generates only the single-compound plans.
func noStopEnumerator(t *testing.T) *Enumerator {
	t.Helper()
	e, err := NewEnumerator(nil)
	require.NoError(t, err)
	return e
}

func bahrainRequest(topK int) OptimizeRequest {
	return OptimizeRequest{
		RaceLaps:  57,
		Compounds: sim.DefaultCompounds(),
		Race: sim.RaceContext{
			BaseLapTime: 96.4,
			PitLoss:     21.5,
			Env:         sim.Environment{sim.EnvTrackTemp: 30, sim.EnvAirTemp: 26, sim.EnvWindSpeed: 2},
		},
		TopK: topK,
	}
}

func TestEvaluatePlans_RanksAscending(t *testing.T) {
	// GIVEN a Bahrain-like request asking for every result
	opt := newTestOptimizer(t, OptimizerConfig{Workers: 4, Seed: 42})

	// WHEN evaluating
	rep, err := opt.EvaluatePlans(context.Background(), bahrainRequest(10000))
	require.NoError(t, err)

	// THEN top covers every evaluated plan, sorted ascending, best first
	require.Equal(t, rep.Evaluated, len(rep.Top))
	assert.Equal(t, rep.Top[0], rep.Best)
	for i := 1; i < len(rep.Top); i++ {
		assert.LessOrEqual(t, rep.Top[i-1].TotalRaceTime, rep.Top[i].TotalRaceTime)
	}
	for _, r := range rep.Top {
		assert.LessOrEqual(t, rep.Best.TotalRaceTime, r.TotalRaceTime)
	}
	assert.Zero(t, rep.Rejected)
}

func TestEvaluatePlans_ResultTotalsMatchLapTimes(t *testing.T) {
	opt := newTestOptimizer(t, OptimizerConfig{Workers: 2, Seed: 1})
	rep, err := opt.EvaluatePlans(context.Background(), bahrainRequest(5))
	require.NoError(t, err)

	for _, r := range rep.Top {
		require.Len(t, r.LapTimes, 57)
		want := testutil.SumFloat64(r.LapTimes) + 21.5*float64(r.Plan.Stops())
		assert.Equal(t, want, r.TotalRaceTime, r.Plan.Key())
		assert.Equal(t, 57, r.LapStats.Count)
	}
}

func TestEvaluatePlans_TopKClamped(t *testing.T) {
	opt := newTestOptimizer(t, OptimizerConfig{Workers: 1})

	rep, err := opt.EvaluatePlans(context.Background(), bahrainRequest(3))
	require.NoError(t, err)
	assert.Len(t, rep.Top, 3)

	rep, err = opt.EvaluatePlans(context.Background(), bahrainRequest(0))
	require.NoError(t, err)
	assert.Len(t, rep.Top, DefaultTopK)

	s, err := sim.NewSimulator(sim.DefaultSimConfig(), nil, nil)
	require.NoError(t, err)
	req := bahrainRequest(10)
	req.Compounds = []sim.Compound{sim.CompoundHard}
	rep, err = NewOptimizer(s, noStopEnumerator(t), OptimizerConfig{Workers: 1}).EvaluatePlans(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, rep.Top, 1, "only the HARD no-stop plan exists")
	assert.Equal(t, 1, rep.Evaluated)
}

func TestEvaluatePlans_IndependentOfWorkerCount(t *testing.T) {
	// GIVEN the same seed and wind noise
	req := bahrainRequest(10000)

	// WHEN evaluating with one worker and with eight
	serial, err := newTestOptimizer(t, OptimizerConfig{Workers: 1, Seed: 7}).EvaluatePlans(context.Background(), req)
	require.NoError(t, err)
	parallel, err := newTestOptimizer(t, OptimizerConfig{Workers: 8, Seed: 7}).EvaluatePlans(context.Background(), req)
	require.NoError(t, err)

	// THEN rankings and every lap time are identical
	require.Equal(t, len(serial.Top), len(parallel.Top))
	for i := range serial.Top {
		assert.Equal(t, serial.Top[i].Plan.Key(), parallel.Top[i].Plan.Key())
		assert.Equal(t, serial.Top[i].LapTimes, parallel.Top[i].LapTimes)
		assert.Equal(t, serial.Top[i].TotalRaceTime, parallel.Top[i].TotalRaceTime)
	}
}

func TestEvaluatePlans_SeedChangesNoise(t *testing.T) {
	req := bahrainRequest(1)
	a, err := newTestOptimizer(t, OptimizerConfig{Seed: 1}).EvaluatePlans(context.Background(), req)
	require.NoError(t, err)
	b, err := newTestOptimizer(t, OptimizerConfig{Seed: 2}).EvaluatePlans(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, a.Best.TotalRaceTime, b.Best.TotalRaceTime)
}

func TestEvaluatePlans_TiesKeepEnumerationOrder(t *testing.T) {
	// GIVEN two unknown compounds that both use the MEDIUM profile
	s, err := sim.NewSimulator(sim.DefaultSimConfig(), nil, nil)
	require.NoError(t, err)
	opt := NewOptimizer(s, noStopEnumerator(t), OptimizerConfig{Workers: 4})
	req := OptimizeRequest{
		RaceLaps:  50,
		Compounds: []sim.Compound{"INTER", "WET"},
		Race:      sim.RaceContext{BaseLapTime: 90, PitLoss: 20},
	}

	// WHEN evaluating without noise
	rep, err := opt.EvaluatePlans(context.Background(), req)
	require.NoError(t, err)

	// THEN totals tie and the first-enumerated plan wins
	require.Len(t, rep.Top, 2)
	assert.Equal(t, rep.Top[0].TotalRaceTime, rep.Top[1].TotalRaceTime)
	assert.Equal(t, "INTER@", rep.Best.Plan.Key())
	assert.Equal(t, "WET@", rep.Top[1].Plan.Key())
}

func TestEvaluatePlans_CancelledContext(t *testing.T) {
	opt := newTestOptimizer(t, OptimizerConfig{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := opt.EvaluatePlans(ctx, bahrainRequest(5))

	assert.Nil(t, rep)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestEvaluatePlans_InvalidRequest(t *testing.T) {
	opt := newTestOptimizer(t, OptimizerConfig{})
	tests := []struct {
		name   string
		mutate func(*OptimizeRequest)
	}{
		{"zero laps", func(r *OptimizeRequest) { r.RaceLaps = 0 }},
		{"no compounds", func(r *OptimizeRequest) { r.Compounds = nil }},
		{"zero base lap", func(r *OptimizeRequest) { r.Race.BaseLapTime = 0 }},
		{"negative pit loss", func(r *OptimizeRequest) { r.Race.PitLoss = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bahrainRequest(5)
			tt.mutate(&req)
			_, err := opt.EvaluatePlans(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func TestEvaluatePlans_NoCandidates(t *testing.T) {
	s, err := sim.NewSimulator(sim.DefaultSimConfig(), nil, nil)
	require.NoError(t, err)
	e := DefaultEnumerator().WithStintLimits(map[sim.Compound]int{sim.CompoundSoft: 1, sim.CompoundMedium: 1, sim.CompoundHard: 1})
	opt := NewOptimizer(s, e, OptimizerConfig{})

	req := bahrainRequest(5)
	req.Compounds = []sim.Compound{sim.CompoundHard}
	_, err = opt.EvaluatePlans(context.Background(), req)

	assert.True(t, errors.Is(err, ErrNoCandidates), "got %v", err)
}

func TestEvaluatePlans_Trace(t *testing.T) {
	// GIVEN tracing enabled and tyre limits that reject the no-stop plans
	s, err := sim.NewSimulator(sim.DefaultSimConfig(), nil, nil)
	require.NoError(t, err)
	e := DefaultEnumerator().WithStintLimits(map[sim.Compound]int{sim.CompoundSoft: 16, sim.CompoundMedium: 28, sim.CompoundHard: 41})
	opt := NewOptimizer(s, e, OptimizerConfig{Workers: 2, Trace: trace.TraceConfig{Level: trace.TraceLevelEvaluations}})

	// WHEN evaluating
	rep, err := opt.EvaluatePlans(context.Background(), bahrainRequest(3))
	require.NoError(t, err)

	// THEN every evaluation and every rejection is recorded in rank order
	require.NotNil(t, rep.Trace)
	assert.Len(t, rep.Trace.Evaluations, rep.Evaluated)
	assert.Len(t, rep.Trace.Skipped, rep.Rejected)
	assert.Positive(t, rep.Rejected)
	first := rep.Trace.Evaluations[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, rep.Best.Plan.Key(), first.PlanKey)
	assert.Zero(t, first.GapToBest)

	summary := trace.Summarize(rep.Trace)
	assert.Equal(t, rep.Evaluated, summary.TotalEvaluated)
	assert.Equal(t, rep.Best.TotalRaceTime, summary.BestByStops[rep.Best.Plan.Stops()])
}

func TestEvaluatePlans_TraceDisabledByDefault(t *testing.T) {
	rep, err := newTestOptimizer(t, OptimizerConfig{}).EvaluatePlans(context.Background(), bahrainRequest(3))
	require.NoError(t, err)
	assert.Nil(t, rep.Trace)
}

func TestEvaluatePlans_RunID(t *testing.T) {
	opt := newTestOptimizer(t, OptimizerConfig{})
	a, err := opt.EvaluatePlans(context.Background(), bahrainRequest(1))
	require.NoError(t, err)
	b, err := opt.EvaluatePlans(context.Background(), bahrainRequest(1))
	require.NoError(t, err)

	_, err = uuid.Parse(a.RunID)
	assert.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Best.TotalRaceTime, b.Best.TotalRaceTime, "same seed, same result")
}
