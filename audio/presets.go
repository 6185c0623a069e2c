package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"nylon": {
		"cutoff":      1800.,
		"decay":       0.96,
		"exciter":     "noise",
		"env.attack":  0.001,
		"env.release": 0.001,
	},
	"steel": {
		"cutoff":  6000.,
		"decay":   0.99,
		"exciter": "noise",
		"drive":   1.5,
	},
	"harp": {
		"cutoff":     3500.,
		"decay":      0.985,
		"exciter":    "sine",
		"env.attack": 0.005,
	},
	"muted": {
		"cutoff":  700.,
		"decay":   0.8,
		"exciter": "saw",
	},
	"bowed": {
		"cutoff":      2500.,
		"decay":       0.97,
		"exciter":     "saw",
		"env.attack":  0.3,
		"env.sustain": 0.4,
		"env.release": 0.5,
	},
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(k, p[k]); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return nil
}
