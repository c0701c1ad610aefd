package message

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// LayoutClass is the storage class of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// ChunkIndexType is the chunk index of a version 4 chunked layout.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1     ChunkIndexType = 0 // layout versions 1-3
	ChunkIndexSingleChunk ChunkIndexType = 1
	ChunkIndexImplicit    ChunkIndexType = 2
	ChunkIndexFixedArray  ChunkIndexType = 3
	ChunkIndexExtensible  ChunkIndexType = 4
	ChunkIndexBTreeV2     ChunkIndexType = 5
)

// DataLayout is message 0x0008.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous
	Address uint64
	Size    uint64

	// Chunked. ChunkDims excludes the trailing element-size dimension.
	ChunkDims      []uint64
	ChunkIndexType ChunkIndexType
	ChunkIndexAddr uint64
	ChunkFlags     uint8
	// Single chunk index with filters.
	SingleChunkSize       uint64
	SingleChunkFilterMask uint32

	// Virtual: location of the mapping list in the global heap.
	HeapAddress uint64
	HeapIndex   uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// NewContiguousLayout describes size bytes stored at addr.
func NewContiguousLayout(addr, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: addr, Size: size}
}

// NewVirtualLayout points at a mapping list stored in the global heap.
// Virtual storage needs layout message version 4.
func NewVirtualLayout(heapAddr uint64, index uint32) *DataLayout {
	return &DataLayout{Version: 4, Class: LayoutVirtual, HeapAddress: heapAddr, HeapIndex: index}
}

// Serialize writes compact and contiguous layouts as version 3 and virtual
// layouts as version 4. Chunked layouts are read-only.
func (m *DataLayout) Serialize(w *binary.Writer) error {
	version := uint8(3)
	if m.Class == LayoutVirtual {
		version = 4
	}
	if err := w.WriteUint8(version); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.Class)); err != nil {
		return err
	}
	switch m.Class {
	case LayoutCompact:
		if err := w.WriteUint16(uint16(len(m.CompactData))); err != nil {
			return err
		}
		return w.WriteBytes(m.CompactData)
	case LayoutContiguous:
		if err := w.WriteOffset(m.Address); err != nil {
			return err
		}
		return w.WriteLength(m.Size)
	case LayoutVirtual:
		if err := w.WriteOffset(m.HeapAddress); err != nil {
			return err
		}
		return w.WriteUint32(m.HeapIndex)
	}
	return fmt.Errorf("serializing %s layout is not supported", m.Class)
}

func parseDataLayout(r *binary.Reader, n int) (*DataLayout, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, ErrTruncated
	}
	m := &DataLayout{Version: version}
	switch version {
	case 1, 2:
		err = m.parseV1V2(r)
	case 3, 4:
		err = m.parseV3V4(r, n)
	default:
		return nil, fmt.Errorf("unsupported data layout version %d", version)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Version 1/2: rank, class, 5 reserved bytes, then the address (absent
// for compact), rank dimension sizes of 4 bytes and, for compact storage,
// the data.
func (m *DataLayout) parseV1V2(r *binary.Reader) error {
	head, err := r.ReadBytes(7)
	if err != nil {
		return ErrTruncated
	}
	rank := int(head[0])
	m.Class = LayoutClass(head[1])

	if m.Class != LayoutCompact {
		if m.Address, err = r.ReadOffset(); err != nil {
			return ErrTruncated
		}
	}
	dims := make([]uint64, rank)
	for i := range dims {
		v, err := r.ReadUint32()
		if err != nil {
			return ErrTruncated
		}
		dims[i] = uint64(v)
	}

	switch m.Class {
	case LayoutCompact:
		size, err := r.ReadUint32()
		if err != nil {
			return ErrTruncated
		}
		if m.CompactData, err = r.ReadBytes(int(size)); err != nil {
			return ErrTruncated
		}
	case LayoutContiguous:
		// Size is implied by the dataspace and datatype in these versions.
		m.Size = 0
	case LayoutChunked:
		m.ChunkIndexAddr = m.Address
		m.Address = 0
		if rank > 0 {
			m.ChunkDims = dims[:rank-1]
		}
	}
	return nil
}

func (m *DataLayout) parseV3V4(r *binary.Reader, n int) error {
	class, err := r.ReadUint8()
	if err != nil {
		return ErrTruncated
	}
	m.Class = LayoutClass(class)

	switch m.Class {
	case LayoutCompact:
		size, err := r.ReadUint16()
		if err != nil {
			return ErrTruncated
		}
		if m.CompactData, err = r.ReadBytes(int(size)); err != nil {
			return ErrTruncated
		}
	case LayoutContiguous:
		if m.Address, err = r.ReadOffset(); err != nil {
			return ErrTruncated
		}
		if m.Size, err = r.ReadLength(); err != nil {
			return ErrTruncated
		}
	case LayoutChunked:
		return m.parseChunked(r)
	case LayoutVirtual:
		if m.Version < 4 {
			return fmt.Errorf("virtual layout in layout message version %d", m.Version)
		}
		if m.HeapAddress, err = r.ReadOffset(); err != nil {
			return ErrTruncated
		}
		if m.HeapIndex, err = r.ReadUint32(); err != nil {
			return ErrTruncated
		}
	default:
		return fmt.Errorf("unknown layout class %d", class)
	}
	return nil
}

func (m *DataLayout) parseChunked(r *binary.Reader) error {
	var err error
	if m.Version == 3 {
		rank, err := r.ReadUint8()
		if err != nil {
			return ErrTruncated
		}
		if m.ChunkIndexAddr, err = r.ReadOffset(); err != nil {
			return ErrTruncated
		}
		dims := make([]uint64, rank)
		for i := range dims {
			v, err := r.ReadUint32()
			if err != nil {
				return ErrTruncated
			}
			dims[i] = uint64(v)
		}
		if rank > 0 {
			m.ChunkDims = dims[:rank-1]
		}
		m.ChunkIndexType = ChunkIndexBTreeV1
		return nil
	}

	// Version 4: flags, rank, dimension width, dimensions, index type,
	// index-specific fields, index address.
	head, err := r.ReadBytes(3)
	if err != nil {
		return ErrTruncated
	}
	m.ChunkFlags = head[0]
	rank, width := int(head[1]), int(head[2])
	dims := make([]uint64, rank)
	for i := range dims {
		if dims[i], err = r.ReadUintN(width); err != nil {
			return ErrTruncated
		}
	}
	if rank > 0 {
		m.ChunkDims = dims[:rank-1]
	}
	idx, err := r.ReadUint8()
	if err != nil {
		return ErrTruncated
	}
	m.ChunkIndexType = ChunkIndexType(idx)

	switch m.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if m.ChunkFlags&0x02 != 0 {
			if m.SingleChunkSize, err = r.ReadLength(); err != nil {
				return ErrTruncated
			}
			if m.SingleChunkFilterMask, err = r.ReadUint32(); err != nil {
				return ErrTruncated
			}
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		r.Skip(1)
	case ChunkIndexExtensible:
		r.Skip(5)
	case ChunkIndexBTreeV2:
		r.Skip(6)
	default:
		return fmt.Errorf("unknown chunk index type %d", idx)
	}
	if m.ChunkIndexAddr, err = r.ReadOffset(); err != nil {
		return ErrTruncated
	}
	return nil
}
