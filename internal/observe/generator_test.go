package observe

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"
)

func TestGenerate_ReferenceRange(t *testing.T) {
	tbl, err := Generate(DefaultParams(), NewSource(42))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if tbl.Len() != 26 {
		t.Fatalf("expected 26 rows, got %d", tbl.Len())
	}
	years := tbl.Years()
	if years[0] != 2000 || years[25] != 2025 {
		t.Errorf("expected 2000..2025, got %d..%d", years[0], years[25])
	}
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			t.Fatalf("year %d does not follow %d", years[i], years[i-1])
		}
	}
}

func TestGenerate_Schema(t *testing.T) {
	g := NewWithT(t)

	tbl, err := Generate(DefaultParams(), NewSource(1))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tbl.Columns()).To(Equal([]string{
		"year",
		"temperature_deviation",
		"species A population",
		"species B population",
	}))

	for _, name := range tbl.Columns() {
		col, err := tbl.Column(name)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(col).To(HaveLen(tbl.Len()), "column %s", name)
	}
}

func TestGenerate_RowCounts(t *testing.T) {
	tests := []struct {
		start, end int
		rows       int
	}{
		{2000, 2000, 1},
		{2000, 2001, 2},
		{1950, 2025, 76},
		{-5, 5, 11},
	}

	for _, tt := range tests {
		p := DefaultParams()
		p.StartYear, p.EndYear = tt.start, tt.end
		tbl, err := Generate(p, NewSource(7))
		if err != nil {
			t.Fatalf("%d..%d: %v", tt.start, tt.end, err)
		}
		if tbl.Len() != tt.rows {
			t.Errorf("%d..%d: expected %d rows, got %d", tt.start, tt.end, tt.rows, tbl.Len())
		}
		if tbl.Years()[0] != tt.start {
			t.Errorf("%d..%d: first year %d", tt.start, tt.end, tbl.Years()[0])
		}
	}
}

func TestGenerate_TemperatureEndpoints(t *testing.T) {
	p := DefaultParams()
	p.StartYear, p.EndYear = 1000, 2999
	tbl, err := Generate(p, NewSource(3))
	if err != nil {
		t.Fatal(err)
	}

	temp := tbl.Temperature()
	// six sigma of N(0, 0.1)
	bound := 6 * DefaultTempSigma
	if math.Abs(temp[0]) > bound {
		t.Errorf("first value %.3f not within %.2f of 0", temp[0], bound)
	}
	if math.Abs(temp[len(temp)-1]-DefaultTempMax) > bound {
		t.Errorf("last value %.3f not within %.2f of %.1f", temp[len(temp)-1], bound, DefaultTempMax)
	}
}

func TestGenerate_NegativeCorrelation(t *testing.T) {
	negative := map[string]int{}
	const runs = 50

	for seed := int64(1); seed <= runs; seed++ {
		tbl, err := Generate(DefaultParams(), NewSource(seed))
		if err != nil {
			t.Fatal(err)
		}
		temp := tbl.Temperature()
		for _, name := range tbl.SpeciesNames() {
			pop, _ := tbl.Column(name)
			if stat.Correlation(temp, pop, nil) < 0 {
				negative[name]++
			}
		}
	}

	for _, name := range []string{SpeciesA.Name, SpeciesB.Name} {
		if negative[name] < runs-1 {
			t.Errorf("%s negatively correlated in only %d/%d runs", name, negative[name], runs)
		}
	}
}

func TestGenerate_SameSeedIdentical(t *testing.T) {
	g := NewWithT(t)

	a, err := Generate(DefaultParams(), NewSource(99))
	g.Expect(err).NotTo(HaveOccurred())
	b, err := Generate(DefaultParams(), NewSource(99))
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(a.Rows()).To(Equal(b.Rows()))

	c, err := Generate(DefaultParams(), NewSource(100))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Columns()).To(Equal(a.Columns()))
	g.Expect(c.Temperature()).NotTo(Equal(a.Temperature()))
}

func TestGenerate_ZeroNoiseIsExact(t *testing.T) {
	p := DefaultParams()
	p.TempSigma = 0
	for i := range p.Species {
		p.Species[i].Sigma = 0
	}

	tbl, err := Generate(p, NewSource(5))
	if err != nil {
		t.Fatal(err)
	}
	temp := tbl.Temperature()
	popA, _ := tbl.Column(SpeciesA.Name)
	for i := range temp {
		want := 1000 - 200*temp[i]
		if math.Abs(popA[i]-want) > 1e-9 {
			t.Errorf("row %d: expected %.3f, got %.3f", i, want, popA[i])
		}
	}
	if temp[0] != 0 || temp[len(temp)-1] != DefaultTempMax {
		t.Errorf("unexpected endpoints %v, %v", temp[0], temp[len(temp)-1])
	}
}

func TestGenerate_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"reversed range", func(p *Params) { p.StartYear, p.EndYear = 2025, 2000 }, ErrEmptyRange},
		{"negative temp sigma", func(p *Params) { p.TempSigma = -1 }, ErrInvalidParams},
		{"negative species sigma", func(p *Params) { p.Species[0].Sigma = -1 }, ErrInvalidParams},
		{"duplicate species", func(p *Params) { p.Species[1].Name = p.Species[0].Name }, ErrInvalidParams},
		{"empty species name", func(p *Params) { p.Species[0].Name = "" }, ErrInvalidParams},
		{"no species", func(p *Params) { p.Species = nil }, ErrInvalidParams},
		{"reserved name", func(p *Params) { p.Species[0].Name = ColumnYear }, ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := Generate(p, NewSource(1))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTable_UnknownColumn(t *testing.T) {
	tbl, err := Generate(DefaultParams(), NewSource(1))
	if err != nil {
		t.Fatal(err)
	}

	_, err = tbl.Column("species C population")
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	var colErr *ColumnError
	if !errors.As(err, &colErr) || colErr.Column != "species C population" {
		t.Errorf("error does not name the missing column: %v", err)
	}
	if tbl.HasColumn("species C population") {
		t.Error("HasColumn reported an unknown column")
	}
}

func TestTable_AccessorsReturnCopies(t *testing.T) {
	tbl, _ := Generate(DefaultParams(), NewSource(1))

	temp := tbl.Temperature()
	orig := temp[0]
	temp[0] = 1e9
	if tbl.Temperature()[0] != orig {
		t.Error("mutating Temperature() result changed the table")
	}

	col, _ := tbl.Column(SpeciesA.Name)
	col[0] = -1
	again, _ := tbl.Column(SpeciesA.Name)
	if again[0] == -1 {
		t.Error("mutating Column() result changed the table")
	}
}

func TestNewTable(t *testing.T) {
	pops := map[string][]float64{"species A population": {1, 2}}
	order := []string{"species A population"}

	tbl, err := NewTable([]int{2000, 2001}, []float64{0, 1}, pops, order)
	if err != nil {
		t.Fatalf("new table failed: %v", err)
	}
	if tbl.Row(1).Populations["species A population"] != 2 {
		t.Errorf("unexpected row %+v", tbl.Row(1))
	}

	if _, err := NewTable(nil, nil, nil, nil); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("expected ErrEmptyRange, got %v", err)
	}
	if _, err := NewTable([]int{2000, 2002}, []float64{0, 1}, pops, order); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected gap error, got %v", err)
	}
	if _, err := NewTable([]int{2000, 2001}, []float64{0}, pops, order); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected length error, got %v", err)
	}
	if _, err := NewTable([]int{2000, 2001}, []float64{0, 1}, pops, []string{"species B population"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected unknown column error, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	tests := []struct {
		n    int
		want []float64
	}{
		{0, nil},
		{1, []float64{0}},
		{2, []float64{0, 2.5}},
		{6, []float64{0, 0.5, 1, 1.5, 2, 2.5}},
	}

	for _, tt := range tests {
		got := Linspace(0, 2.5, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("n=%d: expected %v, got %v", tt.n, tt.want, got)
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("n=%d: index %d expected %v, got %v", tt.n, i, tt.want[i], got[i])
			}
		}
	}
}
