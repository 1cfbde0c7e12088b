package chart_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ecodash/internal/chart"
	"github.com/san-kum/ecodash/internal/filter"
	"github.com/san-kum/ecodash/internal/observe"
)

var _ = Describe("Chart builders", func() {
	var tbl *observe.Table

	BeforeEach(func() {
		var err error
		tbl, err = observe.Generate(observe.DefaultParams(), observe.NewSource(2024))
		Expect(err).NotTo(HaveOccurred())
	})

	selection := func(names ...string) filter.Selection {
		sel, err := filter.New(tbl.SpeciesNames(), names)
		Expect(err).NotTo(HaveOccurred())
		return sel
	}

	Describe("TemperatureTrend", func() {
		It("plots every year as a line with markers", func() {
			spec, err := chart.TemperatureTrend(tbl)
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Kind).To(Equal(chart.KindLine))
			Expect(spec.XLabel).To(Equal("year"))
			Expect(spec.YLabel).To(Equal("temperature_deviation"))
			Expect(spec.Series).To(HaveLen(1))
			Expect(spec.Series[0].Markers).To(BeTrue())
			Expect(spec.Series[0].X).To(HaveLen(26))
			Expect(spec.Series[0].X[0]).To(Equal(2000.0))
			Expect(spec.Series[0].Y).To(Equal(tbl.Temperature()))
		})

		It("rejects a nil table", func() {
			_, err := chart.TemperatureTrend(nil)
			Expect(err).To(MatchError(chart.ErrNoData))
		})
	})

	Describe("SpeciesTrend", func() {
		It("renders zero series for an empty selection", func() {
			spec, err := chart.SpeciesTrend(tbl, selection())
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.IsEmpty()).To(BeTrue())
			_, _, _, _, ok := spec.Bounds()
			Expect(ok).To(BeFalse())
		})

		It("renders exactly the selected column", func() {
			spec, err := chart.SpeciesTrend(tbl, selection("species B population"))
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Series).To(HaveLen(1))
			Expect(spec.Series[0].Name).To(Equal("species B population"))
		})

		It("keeps selection order", func() {
			spec, err := chart.SpeciesTrend(tbl, selection("species B population", "species A population"))
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Series).To(HaveLen(2))
			Expect(spec.Series[0].Name).To(Equal("species B population"))
			Expect(spec.Series[1].Name).To(Equal("species A population"))
		})

		It("names a column missing from the table", func() {
			// selection built against a wider schema than the table has
			sel, err := filter.New([]string{"species A population", "species C population"}, []string{"species C population"})
			Expect(err).NotTo(HaveOccurred())

			_, err = chart.SpeciesTrend(tbl, sel)
			Expect(err).To(MatchError(observe.ErrUnknownColumn))
			Expect(err.Error()).To(ContainSubstring("species C population"))
		})
	})

	Describe("Correlation", func() {
		It("falls back to species A for an empty selection", func() {
			spec, err := chart.Correlation(tbl, selection())
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Kind).To(Equal(chart.KindScatter))
			Expect(spec.YLabel).To(Equal("species A population"))
			Expect(spec.Trend).NotTo(BeNil())
		})

		It("uses the first selected column", func() {
			spec, err := chart.Correlation(tbl, selection("species B population", "species A population"))
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.YLabel).To(Equal("species B population"))
			Expect(spec.XLabel).To(Equal("temperature_deviation"))

			want, _ := tbl.Column("species B population")
			Expect(spec.Series[0].Y).To(Equal(want))
		})

		It("fits a negative trend", func() {
			spec, err := chart.Correlation(tbl, selection())
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Trend.Slope).To(BeNumerically("<", 0))
			Expect(spec.Trend.R2).To(BeNumerically(">", 0.5))
		})
	})

	Describe("Build", func() {
		It("builds all three charts", func() {
			d, err := chart.Build(tbl, selection())
			Expect(err).NotTo(HaveOccurred())
			for _, id := range chart.IDs {
				spec, ok := d.Get(id)
				Expect(ok).To(BeTrue())
				Expect(spec.ID).To(Equal(id))
			}
			_, ok := d.Get("histogram")
			Expect(ok).To(BeFalse())
		})

		It("leaves the temperature chart unaffected by the selection", func() {
			a, err := chart.Build(tbl, selection())
			Expect(err).NotTo(HaveOccurred())
			b, err := chart.Build(tbl, selection("species B population"))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Temperature).To(Equal(b.Temperature))
		})
	})
})

var _ = Describe("FitTrend", func() {
	It("recovers an exact line", func() {
		x := []float64{0, 1, 2, 3, 4}
		y := make([]float64, len(x))
		for i := range x {
			y[i] = 1000 - 200*x[i]
		}
		tr := chart.FitTrend(x, y)
		Expect(tr.Slope).To(BeNumerically("~", -200, 1e-9))
		Expect(tr.Intercept).To(BeNumerically("~", 1000, 1e-9))
		Expect(tr.R2).To(BeNumerically("~", 1, 1e-9))
		Expect(tr.At(2.5)).To(BeNumerically("~", 500, 1e-9))
	})

	It("handles a single point", func() {
		tr := chart.FitTrend([]float64{0.3}, []float64{940})
		Expect(tr.Slope).To(Equal(0.0))
		Expect(tr.Intercept).To(Equal(940.0))
		Expect(math.IsNaN(tr.R2)).To(BeFalse())
	})

	It("returns nil without data", func() {
		Expect(chart.FitTrend(nil, nil)).To(BeNil())
	})
})
