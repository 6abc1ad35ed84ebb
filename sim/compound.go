package sim

import (
	"fmt"
	"strings"
)

// Compound names a tyre compound. Values are upper case ("SOFT", "MEDIUM", "HARD").
type Compound string

const (
	CompoundSoft   Compound = "SOFT"
	CompoundMedium Compound = "MEDIUM"
	CompoundHard   Compound = "HARD"
)

// FallbackCompound is the profile used for compounds with no configured profile.
const FallbackCompound = CompoundMedium

// ParseCompound normalises a compound name (trimmed, upper case).
// Returns an error only for an empty name; unknown compounds are resolved
// by TyreModel against the fallback profile.
func ParseCompound(name string) (Compound, error) {
	c := Compound(strings.ToUpper(strings.TrimSpace(name)))
	if c == "" {
		return "", fmt.Errorf("empty compound name")
	}
	return c, nil
}

// ParseCompounds normalises a list of compound names, dropping duplicates
// while preserving first-seen order.
func ParseCompounds(names []string) ([]Compound, error) {
	out := make([]Compound, 0, len(names))
	seen := make(map[Compound]bool, len(names))
	for _, n := range names {
		c, err := ParseCompound(n)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// DefaultCompounds returns the standard dry compound set in one-hot order.
func DefaultCompounds() []Compound {
	return []Compound{CompoundSoft, CompoundMedium, CompoundHard}
}

// TyreProfile parameterises the analytic wear curve of one compound.
// All penalties are in seconds.
type TyreProfile struct {
	Offset       float64 `yaml:"offset"`      // fresh-tyre pace delta (negative = faster)
	WearLinear   float64 `yaml:"wear_linear"` // seconds per lap of stint age
	WearQuad     float64 `yaml:"wear_quad"`   // seconds per lap² of stint age
	CliffLap     int     `yaml:"cliff_lap"`   // stint lap after which the cliff penalty applies
	CliffPenalty float64 `yaml:"cliff_pen"`   // seconds per lap past the cliff
}

// DefaultTyreProfiles returns the built-in wear curves for SOFT, MEDIUM and HARD.
func DefaultTyreProfiles() map[Compound]TyreProfile {
	return map[Compound]TyreProfile{
		CompoundSoft:   {Offset: -0.35, WearLinear: 0.015, WearQuad: 0.0008, CliffLap: 15, CliffPenalty: 0.20},
		CompoundMedium: {Offset: -0.15, WearLinear: 0.010, WearQuad: 0.0005, CliffLap: 25, CliffPenalty: 0.12},
		CompoundHard:   {Offset: 0.00, WearLinear: 0.008, WearQuad: 0.0003, CliffLap: 38, CliffPenalty: 0.08},
	}
}
