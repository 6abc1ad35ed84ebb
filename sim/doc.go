// Package sim provides the lap-time simulation engine for pitwall.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - strategy.go: Stint and Strategy, and the race-distance invariant
//   - tyre.go: the analytic per-compound wear curve
//   - simulator.go: the per-lap stint state machine and race aggregation
//
// # Architecture
//
// The sim package defines the collaborator interfaces; implementations live in
// sub-packages:
//   - sim/degradation/: LSTM degradation model (gonum forward pass)
//   - sim/pace/: SQLite pace reference store, finishing-rank regressor and race result prediction
//   - sim/strategy/: candidate plan enumeration and the optimizer
//   - sim/track/: track parameter registry
//   - sim/trace/: optimizer decision trace
//
// # Key Interfaces
//
// Every model boundary is optional and degrades to a neutral value:
//   - DegradationModel: predicted incremental degradation (absent or failing = 0.0)
//   - PaceReference: historical feature rows (miss = factor 1.0)
//   - RankRegressor: finishing-rank prediction (absent or failing = factor 1.0)
//   - NoiseSource: wind noise draws (nil = no noise)
package sim
