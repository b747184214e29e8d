package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		name    string
		preset  Preset
		quality int
		scale   float64
	}{
		{"extreme", Extreme, 20, 0.5},
		{"recommended", Recommended, 60, 0.75},
		{"less", Less, 90, 0.9},
		{" Recommended ", Recommended, 60, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePreset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.preset, p)
			assert.Equal(t, tt.quality, p.Quality())
			assert.Equal(t, tt.scale, p.Scale())
			assert.True(t, p.Valid())
		})
	}
}

func TestParsePresetUnknown(t *testing.T) {
	for _, name := range []string{"", "max", "extremely"} {
		_, err := ParsePreset(name)
		assert.ErrorIs(t, err, ErrUnknownPreset, name)
	}
}

func TestPresetString(t *testing.T) {
	var names []string
	for _, p := range Presets() {
		names = append(names, p.String())
		round, err := ParsePreset(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, round)
	}
	assert.Equal(t, []string{"extreme", "recommended", "less"}, names)

	assert.False(t, Preset(0).Valid())
	assert.Equal(t, "preset(7)", Preset(7).String())
}
