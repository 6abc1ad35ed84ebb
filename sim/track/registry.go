// Package track provides the circuit parameter registry: reference lap time,
// pit loss, race distance and tyre life limits per track.
package track

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pitwall-sim/pitwall/sim"
)

// ErrUnknownTrack is returned by Registry.Get for unregistered tracks.
var ErrUnknownTrack = errors.New("unknown track")

// Params describes one circuit.
type Params struct {
	AvgLap   float64              `yaml:"avg_lap"`             // seconds
	PitLoss  float64              `yaml:"pit_loss"`            // seconds
	Laps     int                  `yaml:"laps"`                // race distance
	TyreLife map[sim.Compound]int `yaml:"tyre_life,omitempty"` // max sensible stint length per compound
}

// Registry is an immutable set of named tracks. Lookups ignore case and
// surrounding whitespace.
type Registry struct {
	names  []string          // display names, sorted
	byKey  map[string]string // normalised -> display name
	params map[string]Params // display name -> params
}

// NewRegistry validates and indexes tracks keyed by display name.
func NewRegistry(tracks map[string]Params) (*Registry, error) {
	r := &Registry{
		byKey:  make(map[string]string, len(tracks)),
		params: make(map[string]Params, len(tracks)),
	}
	names := make([]string, 0, len(tracks))
	for name := range tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := tracks[name]
		display := strings.TrimSpace(name)
		if display == "" {
			return nil, fmt.Errorf("track registry: empty track name")
		}
		if err := validateParams(display, p); err != nil {
			return nil, err
		}
		life, err := normalizeTyreLife(display, p.TyreLife)
		if err != nil {
			return nil, err
		}
		p.TyreLife = life
		key := normalize(display)
		if prev, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("track registry: %q and %q collide", prev, display)
		}
		r.byKey[key] = display
		r.params[display] = p
		r.names = append(r.names, display)
	}
	sort.Strings(r.names)
	return r, nil
}

func validateParams(name string, p Params) error {
	if math.IsNaN(p.AvgLap) || math.IsInf(p.AvgLap, 0) || p.AvgLap <= 0 {
		return fmt.Errorf("track %s: avg_lap must be a positive finite number, got %f", name, p.AvgLap)
	}
	if math.IsNaN(p.PitLoss) || math.IsInf(p.PitLoss, 0) || p.PitLoss < 0 {
		return fmt.Errorf("track %s: pit_loss must be a non-negative finite number, got %f", name, p.PitLoss)
	}
	if p.Laps <= 0 {
		return fmt.Errorf("track %s: laps must be positive, got %d", name, p.Laps)
	}
	return nil
}

// normalizeTyreLife upper-cases compound keys so they match sim compounds.
func normalizeTyreLife(name string, life map[sim.Compound]int) (map[sim.Compound]int, error) {
	if len(life) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(life))
	for c := range life {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	out := make(map[sim.Compound]int, len(life))
	for _, k := range keys {
		laps := life[sim.Compound(k)]
		c, err := sim.ParseCompound(k)
		if err != nil {
			return nil, fmt.Errorf("track %s: tyre_life: %w", name, err)
		}
		if laps <= 0 {
			return nil, fmt.Errorf("track %s: tyre_life.%s must be positive, got %d", name, c, laps)
		}
		if _, dup := out[c]; dup {
			return nil, fmt.Errorf("track %s: tyre_life.%s is given twice", name, c)
		}
		out[c] = laps
	}
	return out, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// Get returns the display name and params for name.
func (r *Registry) Get(name string) (string, Params, error) {
	display, ok := r.byKey[normalize(name)]
	if !ok {
		return "", Params{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownTrack, name, r.names)
	}
	return display, r.params[display], nil
}

// Names returns the registered display names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
