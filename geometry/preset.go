package geometry

import (
	"fmt"
	"sort"
)

// Presets are cache shapes modeled after the Apple M2 performance core.
var presets = map[string]Params{
	// 192KB per performance core (6-way, 64B line)
	"m2-l1i": {
		CacheSize:     192 * 1024,
		Associativity: 6,
		BlockSize:     64,
		AddressBits:   48,
	},
	// 128KB per performance core (8-way, 64B line)
	"m2-l1d": {
		CacheSize:     128 * 1024,
		Associativity: 8,
		BlockSize:     64,
		AddressBits:   48,
	},
	// Private per-core L2 slice. The shared 24MB L2 has a non power of two
	// set count and is left out.
	"m2-l2-core": {
		CacheSize:     512 * 1024,
		Associativity: 8,
		BlockSize:     128,
		AddressBits:   48,
	},
}

// Preset returns the parameters registered under name.
func Preset(name string) (Params, error) {
	p, ok := presets[name]
	if !ok {
		return Params{}, newConfigError("preset", name,
			fmt.Sprintf("unknown preset, expected one of %v", PresetNames()))
	}

	return p, nil
}

// PresetNames lists the registered presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
