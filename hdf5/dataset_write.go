package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/dtype"
	"github.com/robert-malhotra/h5util/internal/heap"
	"github.com/robert-malhotra/h5util/internal/message"
	"github.com/robert-malhotra/h5util/internal/object"
)

// CreateDataset creates a contiguous float64 dataset with the given
// dimensions holding data in row-major order.
func (g *Group) CreateDataset(name string, dims []uint64, data []float64, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkNewLink(name); err != nil {
		return nil, err
	}
	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	space := message.NewDataspace(dims)
	if n := space.NumElements(); n != uint64(len(data)) {
		return nil, fmt.Errorf("%d values do not fill shape %v (%d elements)", len(data), dims, n)
	}
	dt := dtype.Float64()
	raw, err := dtype.Encode(dt, data)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}

	f := g.file
	dataAddr := binary.Undefined(f.writer.OffsetSize())
	if len(raw) > 0 {
		dataAddr = f.allocate(uint64(len(raw)))
		if err := f.writer.At(int64(dataAddr)).WriteBytes(raw); err != nil {
			return nil, fmt.Errorf("writing data: %w", err)
		}
	}

	fill, err := fillValue(dt, options.fillValue)
	if err != nil {
		return nil, err
	}
	layout := message.NewContiguousLayout(dataAddr, uint64(len(raw)))
	return g.linkDataset(name, object.DatasetMessages(space, dt, fill, layout))
}

// CreateVirtualDataset creates a float64 virtual dataset. Only the
// mapping list is stored; reads pull data from the sources, converting it
// to float64, and regions no mapping covers read as the fill value.
// Sources are not opened here.
func (g *Group) CreateVirtualDataset(name string, vl VirtualLayout, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkNewLink(name); err != nil {
		return nil, err
	}
	if err := vl.Validate(); err != nil {
		return nil, err
	}
	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	f := g.file
	cfg := f.writer.Config()
	enc, err := message.EncodeMappings(vl.Mappings, cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding mappings: %w", unsupported(err))
	}
	objects := [][]byte{enc}
	heapAddr := f.allocate(heap.CollectionSize(objects, cfg.LengthSize))
	ids, err := heap.WriteCollection(f.writer.At(int64(heapAddr)), objects)
	if err != nil {
		return nil, fmt.Errorf("writing global heap: %w", err)
	}

	dt := dtype.Float64()
	fill, err := fillValue(dt, options.fillValue)
	if err != nil {
		return nil, err
	}
	layout := message.NewVirtualLayout(ids[0].Collection, ids[0].Index)
	return g.linkDataset(name, object.DatasetMessages(message.NewDataspace(vl.Dims), dt, fill, layout))
}

func fillValue(dt *message.Datatype, v float64) (*message.FillValue, error) {
	raw, err := dtype.Encode(dt, []float64{v})
	if err != nil {
		return nil, err
	}
	return message.NewFillValue(raw), nil
}

// linkDataset writes a dataset header and links it into g as name.
func (g *Group) linkDataset(name string, messages []message.Serializable) (*Dataset, error) {
	f := g.file
	addr, _, err := f.writeHeader(messages, 0)
	if err != nil {
		return nil, fmt.Errorf("writing dataset header: %w", err)
	}
	if err := g.addLink(message.NewHardLink(name, addr)); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}
	header, err := f.readHeader(addr)
	if err != nil {
		return nil, err
	}
	return newDataset(f, joinPath(g.path, name), addr, header)
}
