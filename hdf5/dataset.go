package hdf5

import (
	"errors"
	"fmt"
	"path"

	"github.com/robert-malhotra/h5util/internal/dtype"
	"github.com/robert-malhotra/h5util/internal/filter"
	"github.com/robert-malhotra/h5util/internal/layout"
	"github.com/robert-malhotra/h5util/internal/message"
	"github.com/robert-malhotra/h5util/internal/object"
)

// Dataset represents an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	addr      uint64
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout
}

// newDataset creates a Dataset from an object header.
func newDataset(f *File, path string, addr uint64, header *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		path:      path,
		addr:      addr,
		header:    header,
		dataspace: header.Dataspace(),
		datatype:  header.Datatype(),
	}
	if ds.dataspace == nil {
		return nil, fmt.Errorf("dataset %s missing dataspace message", path)
	}
	if ds.datatype == nil {
		return nil, fmt.Errorf("dataset %s missing datatype message", path)
	}

	var err error
	ds.layout, err = layout.New(f.reader, layout.Storage{
		Layout:  header.DataLayout(),
		Space:   ds.dataspace,
		Type:    ds.datatype,
		Filters: header.FilterPipeline(),
		Fill:    header.FillValue(),
	}, fileResolver{f})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, unsupported(err))
	}
	return ds, nil
}

// unsupported maps the internal "cannot handle this" errors onto
// ErrUnsupported.
func unsupported(err error) error {
	for _, target := range []error{
		layout.ErrUnsupported,
		dtype.ErrUnsupported,
		filter.ErrUnsupported,
		message.ErrUnsupportedSelection,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
	}
	return err
}

// Name returns the dataset name (last component of path).
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the full path to this dataset.
func (d *Dataset) Path() string {
	return d.path
}

// File returns the file holding the dataset.
func (d *Dataset) File() *File {
	return d.file
}

// Shape returns the dimensions of the dataset, nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.SpaceType != message.DataspaceSimple {
		return nil
	}
	return append([]uint64(nil), d.dataspace.Dimensions...)
}

// Dims is an alias for Shape.
func (d *Dataset) Dims() []uint64 {
	return d.Shape()
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int {
	return len(d.Shape())
}

// NumElements returns the total number of elements.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace.NumElements()
}

// IsScalar returns true if the dataset is a scalar (single value).
func (d *Dataset) IsScalar() bool {
	return d.dataspace.SpaceType == message.DataspaceScalar
}

// DtypeSize returns the size of each element in bytes.
func (d *Dataset) DtypeSize() int {
	return int(d.datatype.Size)
}

// DtypeClass returns the datatype class.
func (d *Dataset) DtypeClass() message.DatatypeClass {
	return d.datatype.Class
}

// Dtype describes the element type, e.g. "float64 LE".
func (d *Dataset) Dtype() string {
	return d.datatype.String()
}

// LayoutClass returns how the data is stored.
func (d *Dataset) LayoutClass() message.LayoutClass {
	return d.layout.Class()
}

// IsVirtual reports whether the dataset is assembled from other datasets.
func (d *Dataset) IsVirtual() bool {
	return d.layout.Class() == message.LayoutVirtual
}

// VirtualMappings returns the mapping list of a virtual dataset.
func (d *Dataset) VirtualMappings() ([]VirtualMapping, error) {
	v, ok := d.layout.(*layout.Virtual)
	if !ok {
		return nil, fmt.Errorf("dataset %s is not virtual", d.path)
	}
	return v.Mappings(), nil
}

// FillValue returns the dataset's fill value as float64. ok is false when
// no fill value is defined.
func (d *Dataset) FillValue() (v float64, ok bool) {
	fv := d.header.FillValue()
	if fv == nil || !fv.Defined || len(fv.Value) != int(d.datatype.Size) {
		return 0, false
	}
	values, err := dtype.Decode(d.datatype, fv.Value)
	if err != nil {
		return 0, false
	}
	return values[0], true
}

// ReadRaw reads all data from the dataset as raw bytes.
func (d *Dataset) ReadRaw() ([]byte, error) {
	start := make([]uint64, d.Rank())
	return d.ReadRawSlice(start, d.Shape())
}

// ReadRawSlice reads count elements per dimension starting at start, in
// row-major order, as raw bytes.
func (d *Dataset) ReadRawSlice(start, count []uint64) ([]byte, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if d.IsVirtual() {
		key := fmt.Sprintf("%s@%d", d.file.abs, d.addr)
		if d.file.reg.reading[key] {
			return nil, fmt.Errorf("virtual dataset %s maps onto itself", d.path)
		}
		d.file.reg.reading[key] = true
		defer delete(d.file.reg.reading, key)
	}
	raw, err := d.layout.ReadSlice(start, count)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, unsupported(err))
	}
	return raw, nil
}

// ReadFloat64 reads the dataset as float64 values.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	start := make([]uint64, d.Rank())
	return d.ReadFloat64Slice(start, d.Shape())
}

// ReadFloat64Slice reads a block of the dataset as float64 values.
func (d *Dataset) ReadFloat64Slice(start, count []uint64) ([]float64, error) {
	raw, err := d.ReadRawSlice(start, count)
	if err != nil {
		return nil, err
	}
	values, err := dtype.Decode(d.datatype, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.path, unsupported(err))
	}
	return values, nil
}
