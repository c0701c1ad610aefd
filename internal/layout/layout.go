package layout

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/message"
)

// ErrUnsupported is returned for storage this package cannot read.
var ErrUnsupported = errors.New("unsupported storage")

// Layout reads a dataset's elements as packed bytes in row-major order.
type Layout interface {
	Class() message.LayoutClass
	// Read returns every element.
	Read() ([]byte, error)
	// ReadSlice returns count elements per dimension starting at start.
	ReadSlice(start, count []uint64) ([]byte, error)
}

// Storage gathers the header messages that describe a dataset's data.
// Filters and Fill may be nil.
type Storage struct {
	Layout  *message.DataLayout
	Space   *message.Dataspace
	Type    *message.Datatype
	Filters *message.FilterPipeline
	Fill    *message.FillValue
}

// New returns the reader for s. The resolver is only used by virtual
// datasets and may be nil otherwise.
func New(r *binary.Reader, s Storage, res Resolver) (Layout, error) {
	if s.Layout == nil || s.Space == nil || s.Type == nil {
		return nil, fmt.Errorf("dataset lacks a layout, dataspace or datatype message")
	}
	b := newBase(s)
	switch s.Layout.Class {
	case message.LayoutCompact:
		return &Compact{base: b, data: s.Layout.CompactData}, nil
	case message.LayoutContiguous:
		return newContiguous(r, b, s.Layout), nil
	case message.LayoutChunked:
		return newChunked(r, b, s)
	case message.LayoutVirtual:
		return newVirtual(r, b, s, res)
	}
	return nil, fmt.Errorf("%w: layout class %d", ErrUnsupported, s.Layout.Class)
}

// base holds what every layout needs to shape its output.
type base struct {
	dims []uint64
	elem uint64
	fill []byte
}

func newBase(s Storage) base {
	b := base{elem: uint64(s.Type.Size)}
	if s.Space.SpaceType == message.DataspaceSimple {
		b.dims = append([]uint64(nil), s.Space.Dimensions...)
	}
	if f := s.Fill; f != nil && f.Defined && uint64(len(f.Value)) == b.elem {
		if !bytes.Equal(f.Value, make([]byte, len(f.Value))) {
			b.fill = f.Value
		}
	}
	return b
}

func (b base) all() (start, count []uint64) {
	return make([]uint64, len(b.dims)), b.dims
}

func (b base) check(start, count []uint64) error {
	if len(start) != len(b.dims) || len(count) != len(b.dims) {
		return fmt.Errorf("selection rank %d/%d does not match dataset rank %d", len(start), len(count), len(b.dims))
	}
	for d := range b.dims {
		if start[d]+count[d] > b.dims[d] {
			return fmt.Errorf("selection [%d, %d) exceeds dimension %d of size %d", start[d], start[d]+count[d], d, b.dims[d])
		}
	}
	return nil
}

// buffer returns an output buffer for count elements holding the fill value.
func (b base) buffer(count []uint64) []byte {
	out := make([]byte, numElements(count)*b.elem)
	if b.fill != nil {
		for i := 0; i < len(out); i += len(b.fill) {
			copy(out[i:], b.fill)
		}
	}
	return out
}

func numElements(count []uint64) uint64 {
	n := uint64(1)
	for _, c := range count {
		n *= c
	}
	return n
}

// strides returns the byte stride of each dimension of a row-major array.
func strides(dims []uint64, elem uint64) []uint64 {
	s := make([]uint64, len(dims))
	step := elem
	for d := len(dims) - 1; d >= 0; d-- {
		s[d] = step
		step *= dims[d]
	}
	return s
}

// eachIndex calls fn for every index tuple below count in row-major order.
// An empty count yields one empty tuple.
func eachIndex(count []uint64, fn func(idx []uint64) error) error {
	for _, c := range count {
		if c == 0 {
			return nil
		}
	}
	idx := make([]uint64, len(count))
	for {
		if err := fn(idx); err != nil {
			return err
		}
		d := len(count) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < count[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}

// copyBox copies a block of count elements from src, an array shaped
// srcDims, at srcOff into dst, shaped dstDims, at dstOff.
func copyBox(dst []byte, dstDims, dstOff []uint64, src []byte, srcDims, srcOff []uint64, count []uint64, elem uint64) {
	n := len(count)
	if n == 0 {
		copy(dst[:elem], src[:elem])
		return
	}
	ds, ss := strides(dstDims, elem), strides(srcDims, elem)
	row := count[n-1] * elem
	_ = eachIndex(count[:n-1], func(idx []uint64) error {
		d, s := dstOff[n-1]*elem, srcOff[n-1]*elem
		for i, v := range idx {
			d += (dstOff[i] + v) * ds[i]
			s += (srcOff[i] + v) * ss[i]
		}
		copy(dst[d:d+row], src[s:s+row])
		return nil
	})
}

// overlap intersects the block [aStart, aStart+aCount) with
// [bStart, bStart+bCount). ok is false when they do not meet.
func overlap(aStart, aCount, bStart, bCount []uint64) (lo, n []uint64, ok bool) {
	lo = make([]uint64, len(aStart))
	n = make([]uint64, len(aStart))
	for d := range aStart {
		l := max(aStart[d], bStart[d])
		h := min(aStart[d]+aCount[d], bStart[d]+bCount[d])
		if h <= l {
			return nil, nil, false
		}
		lo[d], n[d] = l, h-l
	}
	return lo, n, true
}

func sub(a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
