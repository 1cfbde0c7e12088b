package observe

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultStartYear = 2000
	DefaultEndYear   = 2025
	DefaultTempMax   = 2.5
	DefaultTempSigma = 0.1
)

// SpeciesParams defines one population column:
// population = Baseline - Slope*temperature + N(0, Sigma).
type SpeciesParams struct {
	Name     string
	Baseline float64
	Slope    float64
	Sigma    float64
}

// Params controls table generation.
type Params struct {
	StartYear int
	EndYear   int
	TempMax   float64
	TempSigma float64
	Species   []SpeciesParams
}

// SpeciesA and SpeciesB are the two reference species.
var (
	SpeciesA = SpeciesParams{Name: SpeciesColumn("A"), Baseline: 1000, Slope: 200, Sigma: 30}
	SpeciesB = SpeciesParams{Name: SpeciesColumn("B"), Baseline: 800, Slope: 100, Sigma: 20}
)

func DefaultParams() Params {
	return Params{
		StartYear: DefaultStartYear,
		EndYear:   DefaultEndYear,
		TempMax:   DefaultTempMax,
		TempSigma: DefaultTempSigma,
		Species:   []SpeciesParams{SpeciesA, SpeciesB},
	}
}

// Years returns the number of rows the params produce.
func (p Params) Years() int {
	return p.EndYear - p.StartYear + 1
}

// Validate checks the params without generating anything.
func (p Params) Validate() error {
	if p.EndYear < p.StartYear {
		return fmt.Errorf("%w: %d..%d", ErrEmptyRange, p.StartYear, p.EndYear)
	}
	if p.TempSigma < 0 {
		return fmt.Errorf("%w: temperature sigma %g is negative", ErrInvalidParams, p.TempSigma)
	}
	if len(p.Species) == 0 {
		return fmt.Errorf("%w: no species", ErrInvalidParams)
	}
	seen := make(map[string]bool, len(p.Species))
	for _, sp := range p.Species {
		switch {
		case sp.Name == "":
			return fmt.Errorf("%w: species with empty name", ErrInvalidParams)
		case sp.Name == ColumnYear || sp.Name == ColumnTemperature:
			return fmt.Errorf("%w: species name %q collides with a fixed column", ErrInvalidParams, sp.Name)
		case seen[sp.Name]:
			return fmt.Errorf("%w: duplicate species %q", ErrInvalidParams, sp.Name)
		case sp.Sigma < 0:
			return fmt.Errorf("%w: species %q sigma %g is negative", ErrInvalidParams, sp.Name, sp.Sigma)
		}
		seen[sp.Name] = true
	}
	return nil
}

// NewSource returns a PCG source for seed. A zero seed draws one from the clock.
func NewSource(seed int64) rand.Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
}

// Generate builds the Observation Table. All temperature noise is drawn
// before any species noise, and species are drawn in params order.
func Generate(p Params, src rand.Source) (*Table, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewSource(0)
	}

	n := p.Years()
	years := make([]int, n)
	for i := range years {
		years[i] = p.StartYear + i
	}

	temp := Linspace(0, p.TempMax, n)
	addNoise(temp, p.TempSigma, src)

	species := make([]series, len(p.Species))
	for j, sp := range p.Species {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = sp.Baseline - sp.Slope*temp[i]
		}
		addNoise(vals, sp.Sigma, src)
		species[j] = series{name: sp.Name, values: vals}
	}

	return &Table{years: years, temperature: temp, species: species}, nil
}

func addNoise(dst []float64, sigma float64, src rand.Source) {
	if sigma == 0 {
		return
	}
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	for i := range dst {
		dst[i] += noise.Rand()
	}
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// For n == 1 it returns [start].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	out[n-1] = stop
	return out
}
