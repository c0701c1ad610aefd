// Package hdf5 reads and writes HDF5 files in pure Go.
//
// Writing covers what the h5util tool needs: groups, contiguous float64
// datasets and virtual datasets. Reading also handles chunked and filtered
// data, symbol table groups and soft and external links.
package hdf5

import "errors"

// Common errors
var (
	ErrNotHDF5           = errors.New("not an HDF5 file")
	ErrNotFound          = errors.New("object not found")
	ErrNotDataset        = errors.New("object is not a dataset")
	ErrNotGroup          = errors.New("object is not a group")
	ErrUnsupported       = errors.New("unsupported feature")
	ErrInvalidPath       = errors.New("invalid path")
	ErrExists            = errors.New("object already exists")
	ErrSourceUnavailable = errors.New("virtual dataset source unavailable")
	ErrClosed            = errors.New("file is closed")
	ErrReadOnly          = errors.New("file is not writable")
	ErrLinkDepth         = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth is the maximum number of soft/external links that can be followed
// in a single path resolution.
const MaxLinkDepth = 100
