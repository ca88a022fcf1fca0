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

// Presets assume the common drum layout: kick on 60, snare on 62, closed
// hat on 66 and open hat on 68.
var presets = map[string]preset{
	"tight-kit": preset{
		"level":          -3.,
		"choke.68":       66,
		"env.release.68": 0.05,
		"gate.66":        1,
		"env.release.66": 0.02,
	},
	"soft": preset{
		"level":         -12.,
		"env.attack.60": 0.01,
		"env.attack.62": 0.01,
		"level.66":      -6.,
		"level.68":      -6.,
	},
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Presets returns the names of the built-in presets.
func Presets() []string {
	var names []string
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
