// Package render draws chart specs for people to look at.
//
// Two back ends share the same [chart.Spec] input:
//
//   - [Text]: terminal graphs (asciigraph lines, rune-canvas scatter)
//   - [Image]: PNG or SVG files via go-chart
//
// Neither back end fails on an empty chart; both draw a labelled frame.
package render
