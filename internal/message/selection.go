package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// Serialized selection types.
const (
	selectNone      uint32 = 0
	selectPoints    uint32 = 1
	selectHyperslab uint32 = 2
	selectAll       uint32 = 3
)

// ErrUnsupportedSelection is returned for selections that are not "all" or
// a single hyperslab block.
var ErrUnsupportedSelection = errors.New("unsupported dataspace selection")

const hyperslabRegular = 0x01

// Selection is a dataspace selection restricted to the two forms virtual
// mappings use: the whole extent, or one contiguous block.
type Selection struct {
	All   bool
	Start []uint64
	Count []uint64
}

// SelectAll selects the whole dataspace.
func SelectAll() Selection { return Selection{All: true} }

// SelectBlock selects count elements per dimension starting at start.
func SelectBlock(start, count []uint64) Selection {
	return Selection{
		Start: append([]uint64(nil), start...),
		Count: append([]uint64(nil), count...),
	}
}

// Bounds resolves the selection against a dataspace with the given
// dimensions.
func (s Selection) Bounds(dims []uint64) (start, count []uint64, err error) {
	if s.All {
		return make([]uint64, len(dims)), append([]uint64(nil), dims...), nil
	}
	if len(s.Start) != len(dims) {
		return nil, nil, fmt.Errorf("selection rank %d does not match dataspace rank %d", len(s.Start), len(dims))
	}
	for i := range dims {
		if s.Start[i]+s.Count[i] > dims[i] {
			return nil, nil, fmt.Errorf("selection [%d, %d) exceeds dimension %d of size %d",
				s.Start[i], s.Start[i]+s.Count[i], i, dims[i])
		}
	}
	return s.Start, s.Count, nil
}

// NumElements returns the number of selected elements in a dataspace with
// the given dimensions.
func (s Selection) NumElements(dims []uint64) uint64 {
	count := s.Count
	if s.All {
		count = dims
	}
	n := uint64(1)
	for _, c := range count {
		n *= c
	}
	return n
}

func (s Selection) String() string {
	if s.All {
		return "all"
	}
	return fmt.Sprintf("block start=%v count=%v", s.Start, s.Count)
}

// Serialize writes "all" selections in their fixed form and blocks as a
// version 2 regular hyperslab.
func (s Selection) Serialize(w *binary.Writer) error {
	if s.All {
		for _, v := range []uint32{selectAll, 1, 0, 0} {
			if err := w.WriteUint32(v); err != nil {
				return err
			}
		}
		return nil
	}
	rank := len(s.Start)
	if err := w.WriteUint32(selectHyperslab); err != nil {
		return err
	}
	if err := w.WriteUint32(2); err != nil {
		return err
	}
	if err := w.WriteUint8(hyperslabRegular); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(4 + 32*rank)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(rank)); err != nil {
		return err
	}
	for i := 0; i < rank; i++ {
		// start, stride, count, block
		for _, v := range []uint64{s.Start[i], 1, 1, s.Count[i]} {
			if err := w.WriteUint64(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseSelection(r *binary.Reader) (Selection, error) {
	typ, err := r.ReadUint32()
	if err != nil {
		return Selection{}, ErrTruncated
	}
	switch typ {
	case selectAll:
		// version, reserved, length
		if _, err := r.ReadBytes(12); err != nil {
			return Selection{}, ErrTruncated
		}
		return SelectAll(), nil
	case selectHyperslab:
		return parseHyperslab(r)
	case selectNone, selectPoints:
		return Selection{}, fmt.Errorf("%w: type %d", ErrUnsupportedSelection, typ)
	}
	return Selection{}, fmt.Errorf("%w: unknown type %d", ErrUnsupportedSelection, typ)
}

func parseHyperslab(r *binary.Reader) (Selection, error) {
	version, err := r.ReadUint32()
	if err != nil {
		return Selection{}, ErrTruncated
	}
	switch version {
	case 1:
		// reserved, length, rank, block count
		hdr, err := readUint32s(r, 4)
		if err != nil {
			return Selection{}, err
		}
		rank, nblocks := int(hdr[2]), int(hdr[3])
		return readBlocks(r, rank, nblocks, 4)
	case 2:
		flags, err := r.ReadUint8()
		if err != nil {
			return Selection{}, ErrTruncated
		}
		hdr, err := readUint32s(r, 2) // length, rank
		if err != nil {
			return Selection{}, err
		}
		rank := int(hdr[1])
		if flags&hyperslabRegular != 0 {
			return readRegular(r, rank, 8)
		}
		nblocks, err := r.ReadUint64()
		if err != nil {
			return Selection{}, ErrTruncated
		}
		return readBlocks(r, rank, int(nblocks), 8)
	case 3:
		head, err := r.ReadBytes(2) // flags, encode size
		if err != nil {
			return Selection{}, ErrTruncated
		}
		flags, size := head[0], int(head[1])
		rank32, err := r.ReadUint32()
		if err != nil {
			return Selection{}, ErrTruncated
		}
		if flags&hyperslabRegular != 0 {
			return readRegular(r, int(rank32), size)
		}
		nblocks, err := r.ReadUintN(size)
		if err != nil {
			return Selection{}, ErrTruncated
		}
		return readBlocks(r, int(rank32), int(nblocks), size)
	}
	return Selection{}, fmt.Errorf("%w: hyperslab version %d", ErrUnsupportedSelection, version)
}

// readRegular reads start, stride, count and block per dimension and
// collapses the pattern into a single block when it has no gaps.
func readRegular(r *binary.Reader, rank, size int) (Selection, error) {
	unlimited := binary.Undefined(size)
	sel := Selection{Start: make([]uint64, rank), Count: make([]uint64, rank)}
	for i := 0; i < rank; i++ {
		var v [4]uint64
		for j := range v {
			x, err := r.ReadUintN(size)
			if err != nil {
				return Selection{}, ErrTruncated
			}
			v[j] = x
		}
		start, stride, count, block := v[0], v[1], v[2], v[3]
		if count == unlimited || block == unlimited {
			return Selection{}, fmt.Errorf("%w: unlimited hyperslab", ErrUnsupportedSelection)
		}
		if count > 1 && stride != block {
			return Selection{}, fmt.Errorf("%w: strided hyperslab in dimension %d", ErrUnsupportedSelection, i)
		}
		sel.Start[i] = start
		sel.Count[i] = count * block
	}
	return sel, nil
}

// readBlocks reads an irregular hyperslab given as start and inclusive end
// coordinates. Only a single block is accepted.
func readBlocks(r *binary.Reader, rank, nblocks, size int) (Selection, error) {
	if nblocks != 1 {
		return Selection{}, fmt.Errorf("%w: %d hyperslab blocks", ErrUnsupportedSelection, nblocks)
	}
	coords := make([]uint64, 2*rank)
	for i := range coords {
		v, err := r.ReadUintN(size)
		if err != nil {
			return Selection{}, ErrTruncated
		}
		coords[i] = v
	}
	sel := Selection{Start: coords[:rank], Count: make([]uint64, rank)}
	for i := 0; i < rank; i++ {
		end := coords[rank+i]
		if end < sel.Start[i] {
			return Selection{}, fmt.Errorf("%w: block end before start", ErrUnsupportedSelection)
		}
		sel.Count[i] = end - sel.Start[i] + 1
	}
	return sel, nil
}

func readUint32s(r *binary.Reader, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, ErrTruncated
		}
		out[i] = v
	}
	return out, nil
}
