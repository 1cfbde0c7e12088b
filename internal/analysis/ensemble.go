package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/ecodash/internal/observe"
	"gonum.org/v1/gonum/stat"
)

// Ensemble regenerates the table under consecutive seeds and summarizes
// each one, to show how stable the temperature/population link is.
type Ensemble struct {
	params    observe.Params
	numRuns   int
	seedStart int64
}

// EnsembleStat aggregates one species column over all runs.
type EnsembleStat struct {
	Column      string  `json:"column" yaml:"column"`
	Runs        int     `json:"runs" yaml:"runs"`
	Negative    int     `json:"negative" yaml:"negative"`
	MeanPearson float64 `json:"mean_pearson" yaml:"mean_pearson"`
	StdPearson  float64 `json:"std_pearson" yaml:"std_pearson"`
	MeanSlope   float64 `json:"mean_slope" yaml:"mean_slope"`
}

// NegativeShare is the fraction of runs with a negative correlation.
func (e EnsembleStat) NegativeShare() float64 {
	if e.Runs == 0 {
		return 0
	}
	return float64(e.Negative) / float64(e.Runs)
}

func NewEnsemble(p observe.Params, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{params: p, numRuns: numRuns, seedStart: seedStart}
}

// Run generates and summarizes every seed in parallel. Seeds run from
// seedStart upward, skipping zero since that seeds from the clock.
func (e *Ensemble) Run(ctx context.Context) ([]*Summary, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run", observe.ErrInvalidParams)
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Summary, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}

			seed := e.seedStart + int64(idx)
			if e.seedStart <= 0 && seed >= 0 {
				seed++
			}
			tbl, err := observe.Generate(e.params, observe.NewSource(seed))
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = Summarize(tbl)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Aggregate folds per-run summaries into one stat per species column,
// in the column order of the first run.
func Aggregate(runs []*Summary) []EnsembleStat {
	if len(runs) == 0 {
		return nil
	}

	out := make([]EnsembleStat, 0, len(runs[0].Species))
	for _, first := range runs[0].Species {
		r := make([]float64, 0, len(runs))
		slopes := make([]float64, 0, len(runs))
		neg := 0
		for _, run := range runs {
			sp, ok := run.Get(first.Column)
			if !ok {
				continue
			}
			r = append(r, sp.Pearson)
			slopes = append(slopes, sp.Slope)
			if sp.Pearson < 0 {
				neg++
			}
		}

		st := EnsembleStat{Column: first.Column, Runs: len(r), Negative: neg}
		if len(r) > 0 {
			st.MeanPearson = stat.Mean(r, nil)
			st.MeanSlope = stat.Mean(slopes, nil)
		}
		if len(r) > 1 {
			st.StdPearson = stat.StdDev(r, nil)
		}
		out = append(out, st)
	}
	return out
}
