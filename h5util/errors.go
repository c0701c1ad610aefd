// Package h5util rearranges float64 matrices stored in HDF5 files.
//
// Each operation reads arrays from one or more containers, applies a
// reshape, stack, transpose or slice, and writes new files. Outputs are
// staged next to their destinations and only renamed into place once the
// whole batch has succeeded, so a failed call leaves no partial results.
package h5util

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDataset   = errors.New("missing dataset")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrUnsupportedRank  = errors.New("unsupported rank")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrNoInputs         = errors.New("no input files")
	ErrPairing          = errors.New("input and output lists differ in length")
	ErrMissingArgument  = errors.New("missing argument")
)

// MissingDatasetError reports a field absent from a container.
type MissingDatasetError struct {
	File    string
	Dataset string
	Err     error
}

func (e *MissingDatasetError) Error() string {
	return fmt.Sprintf("%s: dataset %q not found", e.File, e.Dataset)
}

func (e *MissingDatasetError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingDataset}
	}
	return []error{ErrMissingDataset, e.Err}
}

// ShapeMismatchError reports a dataset whose shape disagrees with what the
// operation needs, such as a row count differing from the first source.
type ShapeMismatchError struct {
	File    string
	Dataset string
	Want    []int
	Got     []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: dataset %q has shape %v, want %v", e.File, e.Dataset, e.Got, e.Want)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// UnsupportedRankError reports a dataset that is not two-dimensional.
type UnsupportedRankError struct {
	File    string
	Dataset string
	Rank    int
}

func (e *UnsupportedRankError) Error() string {
	return fmt.Sprintf("%s: dataset %q has rank %d, only 2D data is supported", e.File, e.Dataset, e.Rank)
}

func (e *UnsupportedRankError) Unwrap() error { return ErrUnsupportedRank }

// ReshapeError reports a reshape whose target does not hold the same
// number of elements as the source.
type ReshapeError struct {
	From []int
	To   []int
}

func (e *ReshapeError) Error() string {
	return fmt.Sprintf("cannot reshape array of shape %v into shape %v", e.From, e.To)
}

func (e *ReshapeError) Unwrap() error { return ErrShapeMismatch }

// UnknownOperationError reports a function name the dispatcher does not know.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("function %q not found", e.Name)
}

func (e *UnknownOperationError) Unwrap() error { return ErrUnknownOperation }
