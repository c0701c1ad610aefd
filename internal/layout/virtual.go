package layout

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/dtype"
	"github.com/robert-malhotra/h5util/internal/heap"
	"github.com/robert-malhotra/h5util/internal/message"
)

// Source is a dataset that a virtual mapping reads from.
type Source interface {
	Dims() []uint64
	Datatype() *message.Datatype
	ReadSlice(start, count []uint64) ([]byte, error)
}

// Resolver opens the source dataset of a virtual mapping.
type Resolver interface {
	ResolveSource(file, dataset string) (Source, error)
}

// Virtual is a dataset assembled from selections of other datasets.
type Virtual struct {
	base
	dtype    *message.Datatype
	mappings []message.VirtualMapping
	resolve  Resolver
}

func newVirtual(r *binary.Reader, b base, s Storage, res Resolver) (*Virtual, error) {
	mappings, err := ReadMappings(r, s.Layout)
	if err != nil {
		return nil, err
	}
	return &Virtual{base: b, dtype: s.Type, mappings: mappings, resolve: res}, nil
}

// ReadMappings loads the mapping list a virtual layout message points at.
func ReadMappings(r *binary.Reader, msg *message.DataLayout) ([]message.VirtualMapping, error) {
	col, err := heap.ReadCollection(r, msg.HeapAddress)
	if err != nil {
		return nil, fmt.Errorf("reading virtual mappings: %w", err)
	}
	data, err := col.Object(msg.HeapIndex)
	if err != nil {
		return nil, fmt.Errorf("reading virtual mappings: %w", err)
	}
	return message.DecodeMappings(data, r.Config())
}

func (*Virtual) Class() message.LayoutClass { return message.LayoutVirtual }

// Mappings returns the mapping list in stored order.
func (v *Virtual) Mappings() []message.VirtualMapping { return v.mappings }

func (v *Virtual) Read() ([]byte, error) { return v.ReadSlice(v.all()) }

// ReadSlice reads only the mappings that meet the selection, and from each
// source only the part that is needed when the source and virtual blocks
// have the same shape.
func (v *Virtual) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := v.check(start, count); err != nil {
		return nil, err
	}
	out := v.buffer(count)
	for i, m := range v.mappings {
		vStart, vCount, err := m.VirtualSelection.Bounds(v.dims)
		if err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
		lo, n, ok := overlap(start, count, vStart, vCount)
		if !ok {
			continue
		}
		if v.resolve == nil {
			return nil, fmt.Errorf("mapping %d: no resolver for virtual sources", i)
		}
		src, err := v.resolve.ResolveSource(m.SourceFile, m.SourceDataset)
		if err != nil {
			return nil, fmt.Errorf("mapping %d (%s:%s): %w", i, m.SourceFile, m.SourceDataset, err)
		}
		sStart, sCount, err := m.SourceSelection.Bounds(src.Dims())
		if err != nil {
			return nil, fmt.Errorf("mapping %d source: %w", i, err)
		}
		if numElements(sCount) != numElements(vCount) {
			return nil, fmt.Errorf("mapping %d: source selects %d elements, virtual selects %d",
				i, numElements(sCount), numElements(vCount))
		}

		var block []byte
		var blockDims, blockOff []uint64
		if slices.Equal(sCount, vCount) {
			rel := sub(lo, vStart)
			for d := range rel {
				rel[d] += sStart[d]
			}
			block, err = src.ReadSlice(rel, n)
			blockDims, blockOff = n, make([]uint64, len(n))
		} else {
			// differently shaped blocks pair up in row-major order
			block, err = src.ReadSlice(sStart, sCount)
			blockDims, blockOff = vCount, sub(lo, vStart)
		}
		if err != nil {
			return nil, fmt.Errorf("mapping %d (%s:%s): %w", i, m.SourceFile, m.SourceDataset, err)
		}
		if block, err = dtype.Convert(block, src.Datatype(), v.dtype); err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
		copyBox(out, count, sub(lo, start), block, blockDims, blockOff, n, v.elem)
	}
	return out, nil
}
