package h5util

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/hdf5"
)

// DefaultDataset is the dataset name single-array outputs are written under.
const DefaultDataset = "data"

// openDataset opens name in f, reporting an absent or non-dataset object
// as a MissingDatasetError.
func openDataset(f *hdf5.File, name string) (*hdf5.Dataset, error) {
	ds, err := f.OpenDataset(name)
	if errors.Is(err, hdf5.ErrNotFound) || errors.Is(err, hdf5.ErrNotDataset) {
		return nil, &MissingDatasetError{File: f.Path(), Dataset: name, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: opening %q: %w", f.Path(), name, err)
	}
	return ds, nil
}

// open2D opens a dataset that must be two-dimensional.
func open2D(f *hdf5.File, name string) (*hdf5.Dataset, error) {
	ds, err := openDataset(f, name)
	if err != nil {
		return nil, err
	}
	if ds.Rank() != 2 {
		return nil, &UnsupportedRankError{File: f.Path(), Dataset: name, Rank: ds.Rank()}
	}
	return ds, nil
}

// readArray reads a whole dataset.
func readArray(ds *hdf5.Dataset) (Array, error) {
	data, err := ds.ReadFloat64()
	if err != nil {
		return Array{}, fmt.Errorf("%s: reading %q: %w", ds.File().Path(), ds.Path(), err)
	}
	return Array{Shape: toInt(ds.Shape()), Data: data}, nil
}

// readSlice reads a hyperslab of a dataset.
func readSlice(ds *hdf5.Dataset, start, count []int) (Array, error) {
	data, err := ds.ReadFloat64Slice(toUint64(start), toUint64(count))
	if err != nil {
		return Array{}, fmt.Errorf("%s: reading %q%v+%v: %w", ds.File().Path(), ds.Path(), start, count, err)
	}
	return Array{Shape: count, Data: data}, nil
}

// writeArray creates a new container at path holding a as dataset name.
func writeArray(path, name string, a Array) error {
	f, err := hdf5.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Root().CreateDataset(name, toUint64(a.Shape), a.Data); err != nil {
		f.Close()
		return fmt.Errorf("%s: writing %q: %w", path, name, err)
	}
	return f.Close()
}
