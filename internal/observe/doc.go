// Package observe generates the synthetic Observation Table.
//
// A table holds one row per year with a temperature deviation and one
// population count per tracked species:
//
//   - [Params]: year range, warming ceiling, and per-species constants
//   - [Generate]: builds a [Table] from params and an injected random source
//   - [Table]: immutable, column-aligned view over the generated rows
//
// # Example
//
//	src := observe.NewSource(42)
//	tbl, err := observe.Generate(observe.DefaultParams(), src)
//	if err != nil {
//	    return err
//	}
//	pop, err := tbl.Column("species A population")
//
// # Reproducibility
//
// Noise is drawn only from the source passed to [Generate]. Two calls with
// sources built from the same seed produce identical tables.
package observe
