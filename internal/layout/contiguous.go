package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/message"
)

// Contiguous is data stored as one block in the file.
type Contiguous struct {
	base
	r       *binary.Reader
	address uint64
	size    uint64
}

func newContiguous(r *binary.Reader, b base, msg *message.DataLayout) *Contiguous {
	size := msg.Size
	if size == 0 {
		// layout versions 1 and 2 do not record the size
		size = numElements(b.dims) * b.elem
	}
	return &Contiguous{base: b, r: r, address: msg.Address, size: size}
}

func (*Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

// Address returns the file address of the block.
func (c *Contiguous) Address() uint64 { return c.address }

func (c *Contiguous) Read() ([]byte, error) { return c.ReadSlice(c.all()) }

// ReadSlice reads the selection in runs: trailing dimensions that are
// selected whole are merged into a single read.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := c.check(start, count); err != nil {
		return nil, err
	}
	out := c.buffer(count)
	if c.r.IsUndefinedOffset(c.address) || len(out) == 0 {
		return out, nil // never written
	}
	n := len(c.dims)
	if n == 0 {
		return c.read(0, out)
	}

	// k is the outermost dimension of a run
	k := n - 1
	for k > 0 && start[k] == 0 && count[k] == c.dims[k] {
		k--
	}
	src := strides(c.dims, c.elem)
	dst := strides(count, c.elem)
	run := count[k] * src[k]
	err := eachIndex(count[:k], func(idx []uint64) error {
		off := start[k] * src[k]
		var at uint64
		for i, v := range idx {
			off += (start[i] + v) * src[i]
			at += v * dst[i]
		}
		_, err := c.read(off, out[at:at+run])
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Contiguous) read(off uint64, dst []byte) ([]byte, error) {
	if off+uint64(len(dst)) > c.size {
		return nil, fmt.Errorf("contiguous read [%d, %d) past the %d byte block", off, off+uint64(len(dst)), c.size)
	}
	data, err := c.r.At(int64(c.address + off)).ReadBytes(len(dst))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data: %w", err)
	}
	copy(dst, data)
	return dst, nil
}
