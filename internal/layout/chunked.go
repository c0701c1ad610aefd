package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/btree"
	"github.com/robert-malhotra/h5util/internal/filter"
	"github.com/robert-malhotra/h5util/internal/message"
)

// Chunked is data split into equally sized chunks. Chunks that were never
// written read as the fill value.
type Chunked struct {
	base
	r          *binary.Reader
	msg        *message.DataLayout
	chunkDims  []uint64
	chunkBytes uint64
	pipeline   *filter.Pipeline

	chunks []btree.Chunk
	loaded bool
}

func newChunked(r *binary.Reader, b base, s Storage) (*Chunked, error) {
	if len(s.Layout.ChunkDims) != len(b.dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(s.Layout.ChunkDims), len(b.dims))
	}
	for _, d := range s.Layout.ChunkDims {
		if d == 0 {
			return nil, fmt.Errorf("zero chunk dimension in %v", s.Layout.ChunkDims)
		}
	}
	p, err := filter.NewPipeline(s.Filters)
	if err != nil {
		return nil, err
	}
	return &Chunked{
		base:       b,
		r:          r,
		msg:        s.Layout,
		chunkDims:  s.Layout.ChunkDims,
		chunkBytes: numElements(s.Layout.ChunkDims) * b.elem,
		pipeline:   p,
	}, nil
}

func (*Chunked) Class() message.LayoutClass { return message.LayoutChunked }

// ChunkDims returns the chunk shape.
func (c *Chunked) ChunkDims() []uint64 { return c.chunkDims }

func (c *Chunked) Read() ([]byte, error) { return c.ReadSlice(c.all()) }

func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := c.check(start, count); err != nil {
		return nil, err
	}
	chunks, err := c.index()
	if err != nil {
		return nil, err
	}
	out := c.buffer(count)
	for _, ch := range chunks {
		lo, n, ok := overlap(start, count, ch.Offset, c.chunkDims)
		if !ok {
			continue
		}
		data, err := c.readChunk(ch)
		if err != nil {
			return nil, fmt.Errorf("chunk at %v: %w", ch.Offset, err)
		}
		copyBox(out, count, sub(lo, start), data, c.chunkDims, sub(lo, ch.Offset), n, c.elem)
	}
	return out, nil
}

func (c *Chunked) readChunk(ch btree.Chunk) ([]byte, error) {
	raw, err := c.r.At(int64(ch.Address)).ReadBytes(int(ch.Size))
	if err != nil {
		return nil, err
	}
	data, err := c.pipeline.Decode(raw, ch.FilterMask)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < c.chunkBytes {
		return nil, fmt.Errorf("decoded chunk holds %d bytes, want %d", len(data), c.chunkBytes)
	}
	return data, nil
}

// index lists the stored chunks once per reader.
func (c *Chunked) index() ([]btree.Chunk, error) {
	if c.loaded {
		return c.chunks, nil
	}
	addr := c.msg.ChunkIndexAddr
	if c.r.IsUndefinedOffset(addr) {
		c.loaded = true
		return nil, nil
	}
	var err error
	switch c.msg.ChunkIndexType {
	case message.ChunkIndexBTreeV1:
		c.chunks, err = btree.ReadChunks(c.r, addr, len(c.dims))
	case message.ChunkIndexSingleChunk:
		size := c.chunkBytes
		if c.msg.ChunkFlags&0x02 != 0 {
			size = c.msg.SingleChunkSize
		}
		c.chunks = []btree.Chunk{{
			Offset:     make([]uint64, len(c.dims)),
			FilterMask: c.msg.SingleChunkFilterMask,
			Size:       uint32(size),
			Address:    addr,
		}}
	case message.ChunkIndexImplicit:
		c.chunks = c.implicitChunks(addr)
	default:
		return nil, fmt.Errorf("%w: chunk index type %d", ErrUnsupported, c.msg.ChunkIndexType)
	}
	if err != nil {
		return nil, fmt.Errorf("reading chunk index: %w", err)
	}
	c.loaded = true
	return c.chunks, nil
}

// implicitChunks lays out unfiltered chunks back to back in row-major
// chunk order.
func (c *Chunked) implicitChunks(addr uint64) []btree.Chunk {
	grid := make([]uint64, len(c.dims))
	for d := range grid {
		grid[d] = (c.dims[d] + c.chunkDims[d] - 1) / c.chunkDims[d]
	}
	var out []btree.Chunk
	_ = eachIndex(grid, func(idx []uint64) error {
		off := make([]uint64, len(idx))
		for d, v := range idx {
			off[d] = v * c.chunkDims[d]
		}
		out = append(out, btree.Chunk{
			Offset:  off,
			Size:    uint32(c.chunkBytes),
			Address: addr + uint64(len(out))*c.chunkBytes,
		})
		return nil
	})
	return out
}
