// Package analysis summarizes how species populations track temperature.
//
//   - [Summarize]: Pearson coefficient and OLS fit for every species column
//   - [Insight]: one-line reading of the correlation chart
//   - [Ensemble]: the same summary over many seeds, run in parallel
//
// # Example
//
//	sum, _ := analysis.Summarize(tbl)
//	a, _ := sum.Get("species A population")
//	fmt.Println(analysis.Insight(a))
package analysis
