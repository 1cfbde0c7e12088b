package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/ecodash/internal/chart"
	"github.com/san-kum/ecodash/internal/observe"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg"; an empty string means PNG.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("unknown image format: %s (available: png, svg)", s)
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

type ImageOptions struct {
	Width  int
	Height int
	Format Format
}

// Image renders spec with go-chart. Axis ranges are always set explicitly
// so single-row tables and empty selections still produce a valid image.
func Image(w io.Writer, spec *chart.Spec, opts ImageOptions) error {
	graph := gochart.Chart{
		Title:  spec.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{Name: spec.XLabel},
		YAxis: gochart.YAxis{Name: spec.YLabel},
	}

	xMin, xMax, yMin, yMax, ok := spec.Bounds()
	if !ok {
		xMin, xMax, yMin, yMax = 0, 1, 0, 1
		graph.Series = []gochart.Series{
			gochart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
				Style:   gochart.Style{StrokeColor: drawing.ColorTransparent},
			},
			gochart.AnnotationSeries{
				Annotations: []gochart.Value2{{XValue: 0.5, YValue: 0.5, Label: "no species selected"}},
			},
		}
	} else {
		graph.Series = seriesFor(spec, xMin, xMax)
	}

	graph.XAxis.Range = padded(xMin, xMax)
	graph.YAxis.Range = padded(yMin, yMax)
	if spec.XLabel == observe.ColumnYear {
		graph.XAxis.ValueFormatter = func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
			return ""
		}
	}
	if ok {
		graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	}

	if opts.Format == SVG {
		return graph.Render(gochart.SVG, w)
	}
	return graph.Render(gochart.PNG, w)
}

func seriesFor(spec *chart.Spec, xMin, xMax float64) []gochart.Series {
	out := make([]gochart.Series, 0, len(spec.Series)+1)
	for i, s := range spec.Series {
		color := gochart.GetDefaultColor(i)
		style := gochart.Style{StrokeColor: color, StrokeWidth: 2}
		switch {
		case spec.Kind == chart.KindScatter:
			style = gochart.Style{StrokeColor: drawing.ColorTransparent, DotColor: color, DotWidth: 4}
		case s.Markers:
			style.DotColor = color
			style.DotWidth = 3
		}
		out = append(out, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style:   style,
		})
	}
	if spec.Trend != nil {
		out = append(out, gochart.ContinuousSeries{
			Name:    "OLS trend",
			XValues: []float64{xMin, xMax},
			YValues: []float64{spec.Trend.At(xMin), spec.Trend.At(xMax)},
			Style: gochart.Style{
				StrokeColor:     drawing.ColorRed,
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}
	return out
}

func padded(lo, hi float64) *gochart.ContinuousRange {
	span := hi - lo
	if span == 0 {
		span = 1
		if lo != 0 {
			span = lo * 0.1
			if span < 0 {
				span = -span
			}
		}
	}
	return &gochart.ContinuousRange{Min: lo - span*0.05, Max: hi + span*0.05}
}

// Bytes renders spec into memory.
func Bytes(spec *chart.Spec, opts ImageOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Image(&buf, spec, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDashboard writes one image per chart into dir as <id>.<format>
// and returns the written paths in dashboard order.
func WriteDashboard(dir string, d *chart.Dashboard, opts ImageOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(chart.IDs))
	for _, id := range chart.IDs {
		spec, _ := d.Get(id)
		data, err := Bytes(spec, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", id, err)
		}
		path := filepath.Join(dir, id+"."+string(opts.Format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
