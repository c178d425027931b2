package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDataset is returned when a nil dataset is loaded or a required dataset is missing.
	ErrNoDataset = errors.New("dataset not loaded")
	// ErrEmptyDataset is returned when a dataset has no columns.
	ErrEmptyDataset = errors.New("dataset has no columns")
	// ErrColumnOutOfRange is returned when a configured column index does not exist.
	ErrColumnOutOfRange = errors.New("column index out of range")
	// ErrNoUsableColumns is returned when column selection leaves nothing to search.
	ErrNoUsableColumns = errors.New("no usable columns")
	// ErrInvalidTerm is returned when a query fragment yields no atomic term where one is required.
	ErrInvalidTerm = errors.New("invalid search term")
	// ErrInternal wraps unexpected failures recovered during a search.
	ErrInternal = errors.New("internal search error")
)

// LoadError reports a dataset that could not be read or accepted.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dataset: %v", e.Err)
	}
	return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
