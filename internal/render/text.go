package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ecodash/internal/chart"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Red,
	asciigraph.Blue,
}

// TextOptions sizes terminal charts. Width and Height count plot cells,
// not including axis labels.
type TextOptions struct {
	Width  int
	Height int
	Color  bool
}

func DefaultTextOptions() TextOptions {
	return TextOptions{Width: 60, Height: 10, Color: true}
}

// Text renders a chart spec for the terminal. Line charts go through
// asciigraph; scatter charts are drawn on a rune canvas with the trend line
// underneath the points.
func Text(spec *chart.Spec, opts TextOptions) string {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultTextOptions()
	}
	if spec.IsEmpty() {
		return emptyText(spec, opts)
	}
	switch spec.Kind {
	case chart.KindScatter:
		return scatterText(spec, opts)
	default:
		return lineText(spec, opts)
	}
}

func lineText(spec *chart.Spec, opts TextOptions) string {
	data := make([][]float64, 0, len(spec.Series))
	names := make([]string, 0, len(spec.Series))
	for _, s := range spec.Series {
		ys := s.Y
		// asciigraph needs two points to draw a segment
		if len(ys) == 1 {
			ys = []float64{ys[0], ys[0]}
		}
		data = append(data, ys)
		names = append(names, s.Name)
	}

	options := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption(spec)),
	}
	// legends index the color list, so plain output still passes one
	colors := make([]asciigraph.AnsiColor, len(data))
	for i := range colors {
		colors[i] = asciigraph.Default
		if opts.Color {
			colors[i] = seriesColors[i%len(seriesColors)]
		}
	}
	if opts.Color || len(names) > 1 {
		options = append(options, asciigraph.SeriesColors(colors...))
	}
	if len(names) > 1 {
		options = append(options, asciigraph.SeriesLegends(names...))
	}

	return asciigraph.PlotMany(data, options...)
}

func caption(spec *chart.Spec) string {
	s := spec.Title
	xMin, xMax, _, _, ok := spec.Bounds()
	if ok {
		s += fmt.Sprintf("  (%s %.0f-%.0f)", spec.XLabel, xMin, xMax)
	}
	return s
}

func emptyText(spec *chart.Spec, opts TextOptions) string {
	var b strings.Builder
	b.WriteString(spec.Title + "\n")
	b.WriteString("┌" + strings.Repeat("─", opts.Width) + "┐\n")
	msg := "no species selected"
	for row := 0; row < opts.Height; row++ {
		line := strings.Repeat(" ", opts.Width)
		if row == opts.Height/2 && len(msg) <= opts.Width {
			pad := (opts.Width - len(msg)) / 2
			line = strings.Repeat(" ", pad) + msg + strings.Repeat(" ", opts.Width-pad-len(msg))
		}
		b.WriteString("│" + line + "│\n")
	}
	b.WriteString("└" + strings.Repeat("─", opts.Width) + "┘\n")
	return b.String()
}

func scatterText(spec *chart.Spec, opts TextOptions) string {
	width, height := opts.Width, opts.Height
	xMin, xMax, yMin, yMax, _ := spec.Bounds()
	xRange, yRange := xMax-xMin, yMax-yMin
	if xRange == 0 {
		xRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	toCell := func(x, y float64) (int, int) {
		px := int(math.Round(float64(width-1) * (x - xMin) / xRange))
		py := int(math.Round(float64(height-1) * (y - yMin) / yRange))
		return px, height - 1 - py
	}
	set := func(px, py int, c rune) {
		if px >= 0 && px < width && py >= 0 && py < height {
			canvas[py][px] = c
		}
	}

	if spec.Trend != nil {
		for px := 0; px < width; px++ {
			x := xMin + xRange*float64(px)/float64(max(width-1, 1))
			_, py := toCell(x, spec.Trend.At(x))
			set(px, py, '·')
		}
	}
	for _, s := range spec.Series {
		for i := range s.X {
			px, py := toCell(s.X[i], s.Y[i])
			set(px, py, '●')
		}
	}

	var b strings.Builder
	b.WriteString(spec.Title + "\n")
	fmt.Fprintf(&b, "%9.2f ┌%s┐\n", yMax, strings.Repeat("─", width))
	for i, row := range canvas {
		label := strings.Repeat(" ", 9)
		if i == height/2 {
			label = fmt.Sprintf("%9.2f", (yMax+yMin)/2)
		}
		b.WriteString(label + " │" + string(row) + "│\n")
	}
	fmt.Fprintf(&b, "%9.2f └%s┘\n", yMin, strings.Repeat("─", width))
	lo, hi := fmt.Sprintf("%.2f", xMin), fmt.Sprintf("%.2f", xMax)
	gap := max(width+2-len(lo)-len(hi), 1)
	b.WriteString(strings.Repeat(" ", 10) + lo + strings.Repeat(" ", gap) + hi + "\n")
	fmt.Fprintf(&b, "%s  x: %s  y: %s\n", strings.Repeat(" ", 8), spec.XLabel, spec.YLabel)
	if spec.Trend != nil {
		fmt.Fprintf(&b, "%s  ● observed  · OLS y = %.1f %+.1fx  (R²=%.2f)\n",
			strings.Repeat(" ", 8), spec.Trend.Intercept, spec.Trend.Slope, spec.Trend.R2)
	}
	return b.String()
}
