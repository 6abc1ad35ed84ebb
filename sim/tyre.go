package sim

import (
	"fmt"
	"sort"
)

// TyreModel evaluates the deterministic per-compound degradation curve.
// Safe for concurrent use after construction.
type TyreModel struct {
	profiles map[Compound]TyreProfile
}

// NewTyreModel validates profiles and builds a TyreModel.
// The profile set must contain FallbackCompound; coefficients must be finite,
// wear terms and cliff penalty non-negative.
func NewTyreModel(profiles map[Compound]TyreProfile) (*TyreModel, error) {
	if _, ok := profiles[FallbackCompound]; !ok {
		return nil, fmt.Errorf("tyre model: profile for fallback compound %s is required", FallbackCompound)
	}
	compounds := make([]Compound, 0, len(profiles))
	for c := range profiles {
		compounds = append(compounds, c)
	}
	sort.Slice(compounds, func(i, j int) bool { return compounds[i] < compounds[j] })
	cp := make(map[Compound]TyreProfile, len(profiles))
	for _, c := range compounds {
		p := profiles[c]
		if err := validateProfile(c, p); err != nil {
			return nil, err
		}
		cp[c] = p
	}
	return &TyreModel{profiles: cp}, nil
}

func validateProfile(c Compound, p TyreProfile) error {
	if err := validateFinite("tyre model: "+string(c), []namedCoeff{
		{"offset", p.Offset},
		{"wear_linear", p.WearLinear},
		{"wear_quad", p.WearQuad},
		{"cliff_pen", p.CliffPenalty},
	}); err != nil {
		return err
	}
	if p.WearLinear < 0 || p.WearQuad < 0 || p.CliffPenalty < 0 {
		return fmt.Errorf("tyre model: %s wear terms must be non-negative", c)
	}
	if p.CliffLap < 0 {
		return fmt.Errorf("tyre model: %s.cliff_lap must be non-negative, got %d", c, p.CliffLap)
	}
	return nil
}

// Profile returns the profile for c, or the fallback profile when c is unknown.
func (m *TyreModel) Profile(c Compound) TyreProfile {
	if p, ok := m.profiles[c]; ok {
		return p
	}
	return m.profiles[FallbackCompound]
}

// Degradation returns the tyre time penalty (seconds) on the given 1-based stint lap.
// With i = stintLap-1:
//
//	offset + wearLinear*i + wearQuad*i² + max(0, i+1-cliffLap)*cliffPenalty
func (m *TyreModel) Degradation(c Compound, stintLap int) float64 {
	p := m.Profile(c)
	lapI := max(0, stintLap-1)
	i := float64(lapI)
	progressive := p.WearLinear*i + p.WearQuad*(i*i)
	cliff := float64(max(0, lapI+1-p.CliffLap)) * p.CliffPenalty
	return p.Offset + progressive + cliff
}
