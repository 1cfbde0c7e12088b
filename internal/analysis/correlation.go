package analysis

import (
	"fmt"

	"github.com/san-kum/ecodash/internal/chart"
	"github.com/san-kum/ecodash/internal/observe"
	"gonum.org/v1/gonum/stat"
)

// SpeciesSummary describes how one population column tracks temperature.
type SpeciesSummary struct {
	Column    string  `json:"column" yaml:"column"`
	Pearson   float64 `json:"pearson" yaml:"pearson"`
	Slope     float64 `json:"slope" yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	R2        float64 `json:"r2" yaml:"r2"`
	First     float64 `json:"first" yaml:"first"`
	Last      float64 `json:"last" yaml:"last"`
}

// Change is the relative population change from the first to the last year.
func (s SpeciesSummary) Change() float64 {
	if s.First == 0 {
		return 0
	}
	return (s.Last - s.First) / s.First
}

// Summary covers every species column in a table.
type Summary struct {
	Years   int              `json:"years" yaml:"years"`
	Warming float64          `json:"warming" yaml:"warming"`
	Species []SpeciesSummary `json:"species" yaml:"species"`
}

// Get returns the summary for column.
func (s *Summary) Get(column string) (SpeciesSummary, bool) {
	for _, sp := range s.Species {
		if sp.Column == column {
			return sp, true
		}
	}
	return SpeciesSummary{}, false
}

// Metrics flattens the summary into name/value pairs for run metadata.
func (s *Summary) Metrics() map[string]float64 {
	m := map[string]float64{"warming": s.Warming}
	for _, sp := range s.Species {
		m[sp.Column+" pearson"] = sp.Pearson
		m[sp.Column+" slope"] = sp.Slope
	}
	return m
}

// Summarize computes per-species correlation against temperature.
func Summarize(t *observe.Table) (*Summary, error) {
	if t == nil || t.Len() == 0 {
		return nil, chart.ErrNoData
	}
	temp := t.Temperature()
	sum := &Summary{
		Years:   t.Len(),
		Warming: temp[len(temp)-1] - temp[0],
		Species: make([]SpeciesSummary, 0, len(t.SpeciesNames())),
	}
	for _, name := range t.SpeciesNames() {
		pop, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		tr := chart.FitTrend(temp, pop)
		sum.Species = append(sum.Species, SpeciesSummary{
			Column:    name,
			Pearson:   pearson(temp, pop),
			Slope:     tr.Slope,
			Intercept: tr.Intercept,
			R2:        tr.R2,
			First:     pop[0],
			Last:      pop[len(pop)-1],
		})
	}
	return sum, nil
}

// pearson is zero when either column is constant, where the coefficient is undefined.
func pearson(x, y []float64) float64 {
	if len(x) < 2 || stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Strength buckets |r| the usual way.
func Strength(r float64) string {
	a := r
	if a < 0 {
		a = -a
	}
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.1:
		return "weak"
	}
	return "no"
}

// Insight is the one-line reading of the correlation chart for column.
func Insight(s SpeciesSummary) string {
	switch {
	case s.Pearson <= -0.1:
		return fmt.Sprintf("As temperature rises, %s falls: %s negative correlation (r=%.2f, %.0f per °C).",
			s.Column, Strength(s.Pearson), s.Pearson, s.Slope)
	case s.Pearson >= 0.1:
		return fmt.Sprintf("As temperature rises, %s grows: %s positive correlation (r=%.2f, %+.0f per °C).",
			s.Column, Strength(s.Pearson), s.Pearson, s.Slope)
	}
	return fmt.Sprintf("No clear link between temperature and %s (r=%.2f).", s.Column, s.Pearson)
}
