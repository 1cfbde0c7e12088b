// Package chart turns an Observation Table and a species selection into
// render-ready chart specs.
//
// Builders are pure: the same table and selection always give the same
// spec, and none of them mutate their inputs.
//
//   - [TemperatureTrend]: temperature deviation per year, line with markers
//   - [SpeciesTrend]: one line per selected species column
//   - [Correlation]: temperature vs first selected species, with an OLS trend
//   - [Build]: all three as a [Dashboard]
package chart

import (
	"errors"
	"fmt"

	"github.com/san-kum/ecodash/internal/filter"
	"github.com/san-kum/ecodash/internal/observe"
	"gonum.org/v1/gonum/stat"
)

// ErrNoData indicates a builder was handed a nil or empty table.
var ErrNoData = errors.New("chart: table has no rows")

type Kind string

const (
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
)

// Chart identifiers, also used as URL path segments and file names.
const (
	IDTemperature = "temperature"
	IDSpecies     = "species"
	IDCorrelation = "correlation"
)

// IDs lists the chart identifiers in dashboard order.
var IDs = []string{IDTemperature, IDSpecies, IDCorrelation}

// Series is one plotted column.
type Series struct {
	Name    string    `json:"name"`
	X       []float64 `json:"x"`
	Y       []float64 `json:"y"`
	Markers bool      `json:"markers"`
}

// Trend is an ordinary-least-squares fit y = Intercept + Slope*x.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// At evaluates the trend line.
func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// Spec is a displayable chart description.
type Spec struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Kind   Kind     `json:"kind"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series"`
	Trend  *Trend   `json:"trend,omitempty"`
}

// IsEmpty reports whether the chart has nothing to draw.
func (s *Spec) IsEmpty() bool {
	return len(s.Series) == 0
}

// Bounds returns the x and y extents over every series.
// ok is false for an empty chart.
func (s *Spec) Bounds() (xMin, xMax, yMin, yMax float64, ok bool) {
	for _, ser := range s.Series {
		for i := range ser.X {
			if !ok {
				xMin, xMax, yMin, yMax, ok = ser.X[i], ser.X[i], ser.Y[i], ser.Y[i], true
				continue
			}
			xMin, xMax = min(xMin, ser.X[i]), max(xMax, ser.X[i])
			yMin, yMax = min(yMin, ser.Y[i]), max(yMax, ser.Y[i])
		}
	}
	return xMin, xMax, yMin, yMax, ok
}

// Dashboard bundles the three charts of one render pass.
type Dashboard struct {
	Temperature *Spec `json:"temperature"`
	Species     *Spec `json:"species"`
	Correlation *Spec `json:"correlation"`
}

// Get returns the chart with the given ID.
func (d *Dashboard) Get(id string) (*Spec, bool) {
	switch id {
	case IDTemperature:
		return d.Temperature, true
	case IDSpecies:
		return d.Species, true
	case IDCorrelation:
		return d.Correlation, true
	}
	return nil, false
}

// Build renders all three charts. The temperature chart does not depend on sel.
func Build(t *observe.Table, sel filter.Selection) (*Dashboard, error) {
	temp, err := TemperatureTrend(t)
	if err != nil {
		return nil, err
	}
	species, err := SpeciesTrend(t, sel)
	if err != nil {
		return nil, err
	}
	corr, err := Correlation(t, sel)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Temperature: temp, Species: species, Correlation: corr}, nil
}

// TemperatureTrend plots temperature deviation against year.
func TemperatureTrend(t *observe.Table) (*Spec, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrNoData
	}
	return &Spec{
		ID:     IDTemperature,
		Title:  "Warming trend",
		Kind:   KindLine,
		XLabel: observe.ColumnYear,
		YLabel: observe.ColumnTemperature,
		Series: []Series{{
			Name:    observe.ColumnTemperature,
			X:       t.YearsFloat(),
			Y:       t.Temperature(),
			Markers: true,
		}},
	}, nil
}

// SpeciesTrend plots one line per selected column. An empty selection
// yields a valid chart with no series.
func SpeciesTrend(t *observe.Table, sel filter.Selection) (*Spec, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrNoData
	}
	spec := &Spec{
		ID:     IDSpecies,
		Title:  "Population of selected species",
		Kind:   KindLine,
		XLabel: observe.ColumnYear,
		YLabel: "population",
		Series: make([]Series, 0, sel.Len()),
	}
	years := t.YearsFloat()
	for _, name := range sel.Names() {
		vals, err := t.Column(name)
		if err != nil {
			return nil, fmt.Errorf("species chart: %w", err)
		}
		spec.Series = append(spec.Series, Series{Name: name, X: years, Y: vals})
	}
	return spec, nil
}

// Correlation scatters temperature against the first selected column,
// falling back to the table's first species when the selection is empty.
func Correlation(t *observe.Table, sel filter.Selection) (*Spec, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrNoData
	}
	fallback := ""
	if names := t.SpeciesNames(); len(names) > 0 {
		fallback = names[0]
	}
	column := sel.First(fallback)

	x := t.Temperature()
	y, err := t.Column(column)
	if err != nil {
		return nil, fmt.Errorf("correlation chart: %w", err)
	}

	return &Spec{
		ID:     IDCorrelation,
		Title:  "Population decline as temperature rises",
		Kind:   KindScatter,
		XLabel: observe.ColumnTemperature,
		YLabel: column,
		Series: []Series{{Name: column, X: x, Y: y, Markers: true}},
		Trend:  FitTrend(x, y),
	}, nil
}

// FitTrend computes the OLS line through (x, y). With fewer than two
// distinct x values the slope is zero and the line sits at the mean of y.
func FitTrend(x, y []float64) *Trend {
	if len(x) == 0 {
		return nil
	}
	if !varies(x) {
		return &Trend{Intercept: stat.Mean(y, nil)}
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r2 := 0.0
	if varies(y) {
		r2 = stat.RSquared(x, y, nil, alpha, beta)
	}
	return &Trend{Slope: beta, Intercept: alpha, R2: r2}
}

func varies(v []float64) bool {
	for _, f := range v[1:] {
		if f != v[0] {
			return true
		}
	}
	return false
}
