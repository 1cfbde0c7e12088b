// Package filter holds the user's species selection.
//
// A Selection is an ordered subset of the known species columns. It never
// touches the table itself; charts read whichever columns it names.
package filter

import (
	"github.com/san-kum/ecodash/internal/observe"
)

// Selection is an ordered, duplicate-free subset of the available columns.
// The zero value is an empty selection over no columns.
type Selection struct {
	available []string
	chosen    []string
}

// Default selects only the first available column, or nothing if none exist.
func Default(available []string) Selection {
	s := Selection{available: append([]string(nil), available...)}
	if len(available) > 0 {
		s.chosen = []string{available[0]}
	}
	return s
}

// New validates chosen against available. Duplicates are dropped and the
// first occurrence keeps its position. An unknown name fails with an error
// wrapping observe.ErrUnknownColumn.
func New(available, chosen []string) (Selection, error) {
	s := Selection{available: append([]string(nil), available...)}
	for _, name := range chosen {
		if !s.Known(name) {
			return Selection{}, &observe.ColumnError{Column: name, Available: s.available}
		}
		if !s.Contains(name) {
			s.chosen = append(s.chosen, name)
		}
	}
	return s, nil
}

// Available returns every selectable column.
func (s Selection) Available() []string {
	return append([]string(nil), s.available...)
}

// Names returns the chosen columns in selection order.
func (s Selection) Names() []string {
	return append([]string(nil), s.chosen...)
}

func (s Selection) Len() int      { return len(s.chosen) }
func (s Selection) IsEmpty() bool { return len(s.chosen) == 0 }

func (s Selection) Known(name string) bool {
	for _, a := range s.available {
		if a == name {
			return true
		}
	}
	return false
}

func (s Selection) Contains(name string) bool {
	for _, c := range s.chosen {
		if c == name {
			return true
		}
	}
	return false
}

// First returns the first chosen column, or fallback when nothing is chosen.
func (s Selection) First(fallback string) string {
	if len(s.chosen) == 0 {
		return fallback
	}
	return s.chosen[0]
}

// Toggle adds name at the end of the selection or removes it if present.
// Selections are values; the receiver is left unchanged.
func (s Selection) Toggle(name string) (Selection, error) {
	if !s.Known(name) {
		return s, &observe.ColumnError{Column: name, Available: s.available}
	}
	out := Selection{available: s.available}
	if s.Contains(name) {
		for _, c := range s.chosen {
			if c != name {
				out.chosen = append(out.chosen, c)
			}
		}
		return out, nil
	}
	out.chosen = append(append([]string(nil), s.chosen...), name)
	return out, nil
}
