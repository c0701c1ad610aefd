package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/layout"
	"github.com/robert-malhotra/h5util/internal/message"
)

// Selection is the part of a dataspace a virtual mapping covers: the
// whole extent or a single block.
type Selection = message.Selection

// VirtualMapping maps a selection of a source dataset onto a selection of
// a virtual dataset. A SourceFile of "." refers to the virtual dataset's
// own file.
type VirtualMapping = message.VirtualMapping

// SelectAll selects a whole dataspace.
func SelectAll() Selection { return message.SelectAll() }

// SelectBlock selects count elements per dimension starting at start.
func SelectBlock(start, count []uint64) Selection { return message.SelectBlock(start, count) }

// VirtualLayout describes a float64 virtual dataset: its shape and the
// mappings that fill it, in order.
type VirtualLayout struct {
	Dims     []uint64
	Mappings []VirtualMapping
}

// Validate checks every virtual selection against the shape, and the
// element counts of mappings whose source selection is a block.
func (vl VirtualLayout) Validate() error {
	for i, m := range vl.Mappings {
		_, count, err := m.VirtualSelection.Bounds(vl.Dims)
		if err != nil {
			return fmt.Errorf("mapping %d: %w", i, err)
		}
		if m.SourceFile == "" || m.SourceDataset == "" {
			return fmt.Errorf("mapping %d: empty source file or dataset name", i)
		}
		if s := m.SourceSelection; !s.All {
			if len(s.Start) != len(s.Count) {
				return fmt.Errorf("mapping %d: malformed source block %s", i, s)
			}
			want := m.VirtualSelection.NumElements(count)
			if got := s.NumElements(nil); got != want {
				return fmt.Errorf("mapping %d: source block holds %d elements, virtual selection %d", i, got, want)
			}
		}
	}
	return nil
}

// fileResolver opens virtual dataset sources on behalf of a file.
type fileResolver struct {
	f *File
}

func (r fileResolver) ResolveSource(name, dataset string) (layout.Source, error) {
	src, err := r.f.openLinkedFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	ds, err := src.OpenDataset(dataset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s: %w", ErrSourceUnavailable, dataset, name, err)
	}
	return source{ds}, nil
}

// source adapts a Dataset to the layout package's view of a source.
type source struct {
	d *Dataset
}

func (s source) Dims() []uint64              { return s.d.Dims() }
func (s source) Datatype() *message.Datatype { return s.d.datatype }

func (s source) ReadSlice(start, count []uint64) ([]byte, error) {
	return s.d.ReadRawSlice(start, count)
}
