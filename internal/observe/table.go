package observe

import "fmt"

// Schema column names shared by the generator, charts, storage and the HTTP API.
const (
	ColumnYear        = "year"
	ColumnTemperature = "temperature_deviation"
)

// SpeciesColumn returns the population column name for a species label.
func SpeciesColumn(label string) string {
	return "species " + label + " population"
}

type series struct {
	name   string
	values []float64
}

// Table is the generated per-year dataset. It is never mutated after
// Generate returns; accessors hand out copies.
type Table struct {
	years       []int
	temperature []float64
	species     []series
}

// Row is one year of observations.
type Row struct {
	Year        int                `json:"year"`
	Temperature float64            `json:"temperature_deviation"`
	Populations map[string]float64 `json:"populations"`
}

func (t *Table) Len() int {
	return len(t.years)
}

func (t *Table) Years() []int {
	out := make([]int, len(t.years))
	copy(out, t.years)
	return out
}

// YearsFloat returns the year column as float64 for plotting.
func (t *Table) YearsFloat() []float64 {
	out := make([]float64, len(t.years))
	for i, y := range t.years {
		out[i] = float64(y)
	}
	return out
}

func (t *Table) Temperature() []float64 {
	return clone(t.temperature)
}

// SpeciesNames returns the population column names in generation order.
func (t *Table) SpeciesNames() []string {
	names := make([]string, len(t.species))
	for i, s := range t.species {
		names[i] = s.name
	}
	return names
}

// Columns returns the full schema in table order.
func (t *Table) Columns() []string {
	return append([]string{ColumnYear, ColumnTemperature}, t.SpeciesNames()...)
}

// HasColumn reports whether name is part of the schema.
func (t *Table) HasColumn(name string) bool {
	if name == ColumnYear || name == ColumnTemperature {
		return true
	}
	for _, s := range t.species {
		if s.name == name {
			return true
		}
	}
	return false
}

// Column returns a copy of the named numeric column. Unknown names fail
// with a *ColumnError wrapping ErrUnknownColumn.
func (t *Table) Column(name string) ([]float64, error) {
	switch name {
	case ColumnYear:
		return t.YearsFloat(), nil
	case ColumnTemperature:
		return t.Temperature(), nil
	}
	for _, s := range t.species {
		if s.name == name {
			return clone(s.values), nil
		}
	}
	return nil, &ColumnError{Column: name, Available: t.Columns()}
}

// Row returns the i-th row. It panics if i is out of range, like slice indexing.
func (t *Table) Row(i int) Row {
	pops := make(map[string]float64, len(t.species))
	for _, s := range t.species {
		pops[s.name] = s.values[i]
	}
	return Row{Year: t.years[i], Temperature: t.temperature[i], Populations: pops}
}

func (t *Table) Rows() []Row {
	rows := make([]Row, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// NewTable assembles a table from already-computed columns, e.g. when
// loading a saved run. Every column must have one value per year and years
// must increase by exactly one.
func NewTable(years []int, temperature []float64, populations map[string][]float64, order []string) (*Table, error) {
	if len(years) == 0 {
		return nil, ErrEmptyRange
	}
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			return nil, fmt.Errorf("%w: year %d follows %d", ErrInvalidParams, years[i], years[i-1])
		}
	}
	if len(temperature) != len(years) {
		return nil, fmt.Errorf("%w: %s has %d values for %d years", ErrInvalidParams, ColumnTemperature, len(temperature), len(years))
	}

	t := &Table{
		years:       append([]int(nil), years...),
		temperature: clone(temperature),
		species:     make([]series, 0, len(order)),
	}
	for _, name := range order {
		vals, ok := populations[name]
		if !ok {
			return nil, &ColumnError{Column: name, Available: order}
		}
		if len(vals) != len(years) {
			return nil, fmt.Errorf("%w: %s has %d values for %d years", ErrInvalidParams, name, len(vals), len(years))
		}
		t.species = append(t.species, series{name: name, values: clone(vals)})
	}
	return t, nil
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
