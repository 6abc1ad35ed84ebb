package sim

import (
	"fmt"
	"math"
)

// DefaultSeqLen is the feature window length the degradation model is trained with.
const DefaultSeqLen = 10

// DefaultOptionalFeatures are the environment values fed to the degradation model, in order.
func DefaultOptionalFeatures() []string {
	return []string{EnvTrackTemp, EnvAirTemp, EnvWindSpeed}
}

// SimConfig groups the parameters NewSimulator needs.
type SimConfig struct {
	Compounds        []Compound               // one-hot order of the configured compound set
	Profiles         map[Compound]TyreProfile // wear curve per compound (must include FallbackCompound)
	SeqLen           int                      // feature window length (> 0)
	OptionalFeatures []string                 // environment keys in feature order
	Environment      EnvironmentCoeffs
}

// DefaultSimConfig returns the built-in configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Compounds:        DefaultCompounds(),
		Profiles:         DefaultTyreProfiles(),
		SeqLen:           DefaultSeqLen,
		OptionalFeatures: DefaultOptionalFeatures(),
		Environment:      DefaultEnvironmentCoeffs(),
	}
}

// Layout returns the feature layout described by the config.
func (c SimConfig) Layout() FeatureLayout {
	return FeatureLayout{Compounds: c.Compounds, OptionalFeatures: c.OptionalFeatures}
}

// Validate checks structural constraints not covered by the component constructors.
func (c SimConfig) Validate() error {
	if len(c.Compounds) == 0 {
		return fmt.Errorf("sim config: at least one compound is required")
	}
	if _, ok := c.Profiles[FallbackCompound]; !ok {
		return fmt.Errorf("sim config: profile for fallback compound %s is required", FallbackCompound)
	}
	for _, comp := range c.Compounds {
		if _, ok := c.Profiles[comp]; !ok {
			return fmt.Errorf("sim config: compound %s has no tyre profile", comp)
		}
	}
	if c.SeqLen <= 0 {
		return fmt.Errorf("sim config: seq_len must be positive, got %d", c.SeqLen)
	}
	return nil
}

type namedCoeff struct {
	name  string
	value float64
}

// validateFinite checks coeffs in order and reports the first non-finite one.
func validateFinite(prefix string, coeffs []namedCoeff) error {
	for _, c := range coeffs {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%s: %s must be finite, got %f", prefix, c.name, c.value)
		}
	}
	return nil
}
