package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSimConfig_IsValid(t *testing.T) {
	cfg := DefaultSimConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultCompounds(), cfg.Compounds)
	assert.Equal(t, 10, cfg.SeqLen)
	assert.Equal(t, []string{"track_temp", "air_temp", "wind_speed"}, cfg.OptionalFeatures)
}

func TestSimConfig_Layout_FieldEquivalence(t *testing.T) {
	cfg := DefaultSimConfig()
	got := cfg.Layout()
	want := FeatureLayout{Compounds: cfg.Compounds, OptionalFeatures: cfg.OptionalFeatures}
	assert.Equal(t, want, got)
}

func TestSimConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
	}{
		{"no compounds", func(c *SimConfig) { c.Compounds = nil }},
		{"compound without profile", func(c *SimConfig) { c.Compounds = append(c.Compounds, "INTER") }},
		{"no fallback profile", func(c *SimConfig) {
			c.Compounds = []Compound{CompoundSoft}
			c.Profiles = map[Compound]TyreProfile{CompoundSoft: DefaultTyreProfiles()[CompoundSoft]}
		}},
		{"zero seq len", func(c *SimConfig) { c.SeqLen = 0 }},
		{"negative seq len", func(c *SimConfig) { c.SeqLen = -4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
