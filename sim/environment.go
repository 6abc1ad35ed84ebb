package sim

import "fmt"

// Environment keys recognised by EnvironmentAdjuster and the feature layout.
const (
	EnvTrackTemp = "track_temp"
	EnvAirTemp   = "air_temp"
	EnvWindSpeed = "wind_speed"
)

// Environment maps ambient condition names to values. Absent keys are "not measured".
type Environment map[string]float64

// Value returns the named value and whether it is present.
func (e Environment) Value(key string) (float64, bool) {
	if e == nil {
		return 0, false
	}
	v, ok := e[key]
	return v, ok
}

// NoiseSource draws standard normal samples. *rand.Rand satisfies it.
type NoiseSource interface {
	NormFloat64() float64
}

// EnvironmentCoeffs configures the ambient lap-time corrections.
type EnvironmentCoeffs struct {
	TrackTempRef     float64 `yaml:"track_temp_ref"`     // °C with zero correction
	TrackTempPerDeg  float64 `yaml:"track_temp_per_deg"` // seconds per °C above ref
	AirTempRef       float64 `yaml:"air_temp_ref"`
	AirTempPerDeg    float64 `yaml:"air_temp_per_deg"`
	ColdTyreLaps     int     `yaml:"cold_tyre_laps"`      // air temp applies on stint laps 1..ColdTyreLaps
	WindNoisePerUnit float64 `yaml:"wind_noise_per_unit"` // noise stddev per unit of wind speed
}

// DefaultEnvironmentCoeffs returns the standard correction coefficients.
func DefaultEnvironmentCoeffs() EnvironmentCoeffs {
	return EnvironmentCoeffs{
		TrackTempRef:     30,
		TrackTempPerDeg:  0.015,
		AirTempRef:       25,
		AirTempPerDeg:    0.025,
		ColdTyreLaps:     3,
		WindNoisePerUnit: 0.02,
	}
}

// Validate rejects non-finite coefficients and negative window/noise terms.
func (c EnvironmentCoeffs) Validate() error {
	if err := validateFinite("environment", []namedCoeff{
		{"track_temp_ref", c.TrackTempRef},
		{"track_temp_per_deg", c.TrackTempPerDeg},
		{"air_temp_ref", c.AirTempRef},
		{"air_temp_per_deg", c.AirTempPerDeg},
		{"wind_noise_per_unit", c.WindNoisePerUnit},
	}); err != nil {
		return err
	}
	if c.ColdTyreLaps < 0 {
		return fmt.Errorf("environment: cold_tyre_laps must be non-negative, got %d", c.ColdTyreLaps)
	}
	if c.WindNoisePerUnit < 0 {
		return fmt.Errorf("environment: wind_noise_per_unit must be non-negative, got %f", c.WindNoisePerUnit)
	}
	return nil
}

// EnvironmentAdjuster applies additive ambient corrections to a lap time.
type EnvironmentAdjuster struct {
	coeffs EnvironmentCoeffs
}

// NewEnvironmentAdjuster validates coeffs and builds an adjuster.
func NewEnvironmentAdjuster(coeffs EnvironmentCoeffs) (*EnvironmentAdjuster, error) {
	if err := coeffs.Validate(); err != nil {
		return nil, err
	}
	return &EnvironmentAdjuster{coeffs: coeffs}, nil
}

// Adjust returns lapTime corrected for env on the given stint lap.
// An empty env is the identity. The wind term is drawn from noise; a nil
// noise source leaves the wind term out.
func (a *EnvironmentAdjuster) Adjust(lapTime float64, stintLap int, env Environment, noise NoiseSource) float64 {
	if len(env) == 0 {
		return lapTime
	}
	if t, ok := env.Value(EnvTrackTemp); ok {
		lapTime += (t - a.coeffs.TrackTempRef) * a.coeffs.TrackTempPerDeg
	}
	if t, ok := env.Value(EnvAirTemp); ok && stintLap <= a.coeffs.ColdTyreLaps {
		lapTime += (t - a.coeffs.AirTempRef) * a.coeffs.AirTempPerDeg
	}
	if w, ok := env.Value(EnvWindSpeed); ok && noise != nil {
		lapTime += noise.NormFloat64() * w * a.coeffs.WindNoisePerUnit
	}
	return lapTime
}
