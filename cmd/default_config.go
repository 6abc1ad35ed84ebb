package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pitwall-sim/pitwall/sim"
	"github.com/pitwall-sim/pitwall/sim/track"
)

// CompoundEntry is one compound in defaults.yaml; list order fixes the one-hot layout.
type CompoundEntry struct {
	Name            string `yaml:"name"`
	sim.TyreProfile `yaml:",inline"`
}

// SimulationSection configures the degradation feature window.
type SimulationSection struct {
	SeqLen           int      `yaml:"seq_len"`
	OptionalFeatures []string `yaml:"optional_features"`
}

// PaceSection configures the pace factor.
type PaceSection struct {
	Slope float64 `yaml:"slope"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version     string                  `yaml:"version"`
	Compounds   []CompoundEntry         `yaml:"compounds"`
	Simulation  SimulationSection       `yaml:"simulation"`
	Environment sim.EnvironmentCoeffs   `yaml:"environment"`
	Pace        PaceSection             `yaml:"pace"`
	Tracks      map[string]track.Params `yaml:"tracks"`
}

// builtinConfig mirrors the shipped defaults.yaml minus the track table.
func builtinConfig() Config {
	profiles := sim.DefaultTyreProfiles()
	var compounds []CompoundEntry
	for _, c := range sim.DefaultCompounds() {
		compounds = append(compounds, CompoundEntry{Name: string(c), TyreProfile: profiles[c]})
	}
	return Config{
		Version:   "1",
		Compounds: compounds,
		Simulation: SimulationSection{
			SeqLen:           sim.DefaultSeqLen,
			OptionalFeatures: sim.DefaultOptionalFeatures(),
		},
		Environment: sim.DefaultEnvironmentCoeffs(),
		Pace:        PaceSection{Slope: sim.DefaultPaceSlope},
		Tracks:      map[string]track.Params{},
	}
}

// loadDefaultsConfig parses defaults.yaml over the built-in defaults: sections
// and fields absent from the file keep their built-in values. A missing file
// yields the built-in defaults with a warning. Uses strict field checking.
func loadDefaultsConfig(path string) (Config, error) {
	cfg := builtinConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("defaults file %s not found, using built-in defaults (no tracks registered)", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read defaults file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse defaults YAML %s: %w", path, err)
	}
	return cfg, nil
}

// SimConfig converts the file sections into a sim.SimConfig.
func (c Config) SimConfig() (sim.SimConfig, error) {
	sc := sim.SimConfig{
		Profiles:         make(map[sim.Compound]sim.TyreProfile, len(c.Compounds)),
		SeqLen:           c.Simulation.SeqLen,
		OptionalFeatures: c.Simulation.OptionalFeatures,
		Environment:      c.Environment,
	}
	for i, e := range c.Compounds {
		comp, err := sim.ParseCompound(e.Name)
		if err != nil {
			return sim.SimConfig{}, fmt.Errorf("compounds[%d]: %w", i, err)
		}
		if _, dup := sc.Profiles[comp]; dup {
			return sim.SimConfig{}, fmt.Errorf("compounds[%d]: duplicate compound %s", i, comp)
		}
		sc.Compounds = append(sc.Compounds, comp)
		sc.Profiles[comp] = e.TyreProfile
	}
	if err := sc.Validate(); err != nil {
		return sim.SimConfig{}, err
	}
	return sc, nil
}

// TrackRegistry builds the track registry from the tracks section.
func (c Config) TrackRegistry() (*track.Registry, error) {
	return track.NewRegistry(c.Tracks)
}
