package config

import (
	"sort"

	"github.com/san-kum/ecodash/internal/observe"
)

// Presets are named scenarios applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"reference": func(c *Config) {},
	"long": func(c *Config) {
		c.StartYear, c.EndYear = 1950, 2025
	},
	"severe": func(c *Config) {
		c.Warming.Max = 4.0
		c.Warming.Sigma = 0.15
	},
	"resilient": func(c *Config) {
		c.Species = []SpeciesConfig{
			{Name: observe.SpeciesColumn("A"), Baseline: 1000, Slope: 40, Sigma: 30},
			{Name: observe.SpeciesColumn("B"), Baseline: 800, Slope: 20, Sigma: 20},
		}
	},
	"three_species": func(c *Config) {
		c.Species = append(c.Species, SpeciesConfig{
			Name: observe.SpeciesColumn("C"), Baseline: 500, Slope: 150, Sigma: 25,
		})
	},
}

// GetPreset returns a fresh config for the named preset, or nil if unknown.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
