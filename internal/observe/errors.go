package observe

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for table generation and lookup.
var (
	// ErrEmptyRange indicates a year range with no years in it.
	ErrEmptyRange = errors.New("observe: empty year range")

	// ErrUnknownColumn indicates a column name that is not in the table schema.
	ErrUnknownColumn = errors.New("observe: unknown column")

	// ErrInvalidParams indicates generator parameters outside valid bounds.
	ErrInvalidParams = errors.New("observe: invalid generator parameters")
)

// ColumnError names the column a lookup failed on.
type ColumnError struct {
	Column    string
	Available []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("observe: unknown column %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

func (e *ColumnError) Unwrap() error {
	return ErrUnknownColumn
}
