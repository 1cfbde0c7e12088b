package config

import (
	"fmt"
	"os"

	"github.com/san-kum/ecodash/internal/observe"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir = ".ecodash"
	DefaultAddr    = ":8501"
	DefaultTheme   = "forest"
	DefaultWidth   = 640
	DefaultHeight  = 360
)

type Config struct {
	Title     string          `yaml:"title"`
	StartYear int             `yaml:"start_year"`
	EndYear   int             `yaml:"end_year"`
	Seed      int64           `yaml:"seed"`
	Warming   WarmingConfig   `yaml:"warming"`
	Species   []SpeciesConfig `yaml:"species"`
	Selection []string        `yaml:"selection"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
}

type WarmingConfig struct {
	Max   float64 `yaml:"max"`
	Sigma float64 `yaml:"sigma"`
}

type SpeciesConfig struct {
	Name     string  `yaml:"name"`
	Baseline float64 `yaml:"baseline"`
	Slope    float64 `yaml:"slope"`
	Sigma    float64 `yaml:"sigma"`
}

type OutputConfig struct {
	DataDir string `yaml:"data_dir"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Theme   string `yaml:"theme"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Title:     "Climate change and biodiversity",
		StartYear: observe.DefaultStartYear,
		EndYear:   observe.DefaultEndYear,
		Warming: WarmingConfig{
			Max:   observe.DefaultTempMax,
			Sigma: observe.DefaultTempSigma,
		},
		Species: []SpeciesConfig{
			fromParams(observe.SpeciesA),
			fromParams(observe.SpeciesB),
		},
		Output: OutputConfig{
			DataDir: DefaultDataDir,
			Width:   DefaultWidth,
			Height:  DefaultHeight,
			Theme:   DefaultTheme,
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values; a species list in the file replaces the default one.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of base, so a preset can sit under a
// config file.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the config into generator parameters.
func (c *Config) Params() observe.Params {
	p := observe.Params{
		StartYear: c.StartYear,
		EndYear:   c.EndYear,
		TempMax:   c.Warming.Max,
		TempSigma: c.Warming.Sigma,
		Species:   make([]observe.SpeciesParams, len(c.Species)),
	}
	for i, sp := range c.Species {
		p.Species[i] = observe.SpeciesParams{
			Name:     sp.Name,
			Baseline: sp.Baseline,
			Slope:    sp.Slope,
			Sigma:    sp.Sigma,
		}
	}
	return p
}

// SpeciesNames returns the configured population column names.
func (c *Config) SpeciesNames() []string {
	names := make([]string, len(c.Species))
	for i, sp := range c.Species {
		names[i] = sp.Name
	}
	return names
}

// Validate reports configuration errors before any data is generated.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return fmt.Errorf("output size must be positive, got %dx%d", c.Output.Width, c.Output.Height)
	}
	return nil
}

func fromParams(p observe.SpeciesParams) SpeciesConfig {
	return SpeciesConfig{Name: p.Name, Baseline: p.Baseline, Slope: p.Slope, Sigma: p.Sigma}
}
