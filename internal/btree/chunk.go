package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// Chunk is one stored chunk of a chunked dataset.
type Chunk struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset     []uint64
	FilterMask uint32
	Size       uint32
	Address    uint64
}

// Contains reports whether the element at coord falls inside the chunk.
func (c Chunk) Contains(coord, chunkDims []uint64) bool {
	for d := range coord {
		if coord[d] < c.Offset[d] || coord[d] >= c.Offset[d]+chunkDims[d] {
			return false
		}
	}
	return true
}

// ReadChunks lists every chunk indexed by the chunk B-tree at address for
// a dataset of the given rank.
func ReadChunks(r *binary.Reader, address uint64, rank int) ([]Chunk, error) {
	return readChunkNode(r, address, rank, 0)
}

// Keys hold the chunk size, the filter mask and rank+1 offsets, the last
// being the element-size dimension. A node has one more key than children.
func readChunkNode(r *binary.Reader, address uint64, rank, depth int) ([]Chunk, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: chunk B-tree deeper than %d", ErrInvalidNode, maxDepth)
	}
	n, err := readNode(r, address, nodeChunk)
	if err != nil {
		return nil, err
	}
	var out []Chunk
	for i := 0; i < int(n.entries); i++ {
		key, err := readChunkKey(n.r, rank)
		if err != nil {
			return nil, err
		}
		child, err := n.r.ReadOffset()
		if err != nil {
			return nil, err
		}
		if n.level > 0 {
			sub, err := readChunkNode(r, child, rank, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if n.r.IsUndefinedOffset(child) || key.Size == 0 {
			continue
		}
		key.Address = child
		out = append(out, key)
	}
	return out, nil
}

func readChunkKey(r *binary.Reader, rank int) (Chunk, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return Chunk{}, err
	}
	mask, err := r.ReadUint32()
	if err != nil {
		return Chunk{}, err
	}
	offsets := make([]uint64, rank+1)
	for i := range offsets {
		if offsets[i], err = r.ReadUint64(); err != nil {
			return Chunk{}, err
		}
	}
	return Chunk{Offset: offsets[:rank], FilterMask: mask, Size: size}, nil
}
