package compress

import (
	"errors"
	"fmt"
	"strings"
)

// Preset selects the JPEG quality and downscale factor applied to every image.
type Preset int

const (
	Extreme Preset = iota + 1
	Recommended
	Less
)

var ErrUnknownPreset = errors.New("unknown compression level")

type presetConfig struct {
	name    string
	quality int
	scale   float64
}

var presets = map[Preset]presetConfig{
	Extreme:     {name: "extreme", quality: 20, scale: 0.5},
	Recommended: {name: "recommended", quality: 60, scale: 0.75},
	Less:        {name: "less", quality: 90, scale: 0.9},
}

// Presets lists the presets in form order.
func Presets() []Preset {
	return []Preset{Extreme, Recommended, Less}
}

// ParsePreset resolves a form value. Matching ignores case and surrounding space.
func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, cfg := range presets {
		if cfg.name == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

func (p Preset) Valid() bool {
	_, ok := presets[p]
	return ok
}

func (p Preset) String() string {
	if cfg, ok := presets[p]; ok {
		return cfg.name
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

func (p Preset) Quality() int {
	return presets[p].quality
}

func (p Preset) Scale() float64 {
	return presets[p].scale
}
