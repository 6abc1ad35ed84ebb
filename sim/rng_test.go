package sim

import (
	"math"
	"math/rand"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// BDD: Same key+name produces same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))
	name := SubsystemPlan("SOFT-MEDIUM-HARD@19,38")

	for i := 0; i < 5; i++ {
		a := rng1.ForSubsystem(name).NormFloat64()
		b := rng2.ForSubsystem(name).NormFloat64()
		if a != b {
			t.Errorf("Value %d: got %v and %v, want identical", i, a, b)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// BDD: Drawing from plan A's stream doesn't affect plan B's stream
	planA := SubsystemPlan("HARD@")
	planB := SubsystemPlan("SOFT-HARD@20")

	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(planA).Float64()
	}
	afterDraws := rngA.ForSubsystem(planB).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	expected := fresh.ForSubsystem(planB).Float64()

	if afterDraws != expected {
		t.Errorf("plan B first value = %v, want %v (isolation broken)", afterDraws, expected)
	}
}

func TestPartitionedRNG_DistinctPlansGetDistinctStreams(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	a := rng.ForSubsystem(SubsystemPlan("HARD@")).Float64()
	b := rng.ForSubsystem(SubsystemPlan("MEDIUM@")).Float64()
	if a == b {
		t.Errorf("plans HARD@ and MEDIUM@ drew identical first values %v", a)
	}
}

func TestPartitionedRNG_EnvironmentUsesMasterSeed(t *testing.T) {
	// BDD: "environment" subsystem uses master seed directly
	seed := int64(42)
	envRNG := NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemEnvironment)
	directRNG := rand.New(rand.NewSource(seed))

	for i := 0; i < 10; i++ {
		got := envRNG.NormFloat64()
		want := directRNG.NormFloat64()
		if got != want {
			t.Errorf("Value %d: environment RNG = %v, direct RNG = %v", i, got, want)
		}
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	// BDD: Same name returns same *rand.Rand instance
	rng := NewPartitionedRNG(NewSimulationKey(42))
	if rng.ForSubsystem(SubsystemEnvironment) != rng.ForSubsystem(SubsystemEnvironment) {
		t.Error("ForSubsystem returned different instances for same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(12345))
	if rng.Key() != SimulationKey(12345) {
		t.Errorf("Key() = %v, want 12345", rng.Key())
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	// BDD: Subsystems map is empty until ForSubsystem is called
	rng := NewPartitionedRNG(NewSimulationKey(42))
	if len(rng.subsystems) != 0 {
		t.Errorf("New PartitionedRNG has %d subsystems, want 0", len(rng.subsystems))
	}
	rng.ForSubsystem(SubsystemPlan("HARD@"))
	if len(rng.subsystems) != 1 {
		t.Errorf("After one ForSubsystem call: %d subsystems, want 1", len(rng.subsystems))
	}
}

func TestDeriveSeed_MatchesForSubsystem(t *testing.T) {
	key := NewSimulationKey(math.MinInt64)
	name := SubsystemPlan("MEDIUM-HARD@25")

	direct := rand.New(rand.NewSource(DeriveSeed(key, name)))
	viaRNG := NewPartitionedRNG(key).ForSubsystem(name)

	if direct.Float64() != viaRNG.Float64() {
		t.Error("DeriveSeed does not reproduce the ForSubsystem stream")
	}
}

func TestFnv1a64_KnownValues(t *testing.T) {
	// FNV-1a offset basis for the empty string
	if got := fnv1a64(""); uint64(got) != 14695981039346656037 {
		t.Errorf("fnv1a64(\"\") = %d, want offset basis", uint64(got))
	}
	if fnv1a64("plan_HARD@") == fnv1a64("plan_SOFT@") {
		t.Error("distinct names hashed identically")
	}
}
