// Package viz is the interactive terminal dashboard built on Bubble Tea.
//
// The layout follows the web dashboard: a species picker on the left, the
// temperature and population charts beside it, and the temperature vs
// population scatter with its insight line below.
//
// # Key Bindings
//
//	j/k   - Move between species
//	Space - Toggle the species under the cursor
//	a/n   - Select all / none
//	r     - Regenerate the table
//	s     - Save the current table as a run
//	d     - Show or hide the data table
//	t     - Cycle color themes
//	?     - Show help overlay
package viz
