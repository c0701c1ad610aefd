package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/message"
)

// Compact is data stored inside the object header.
type Compact struct {
	base
	data []byte
}

func (*Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) Read() ([]byte, error) { return c.ReadSlice(c.all()) }

func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := c.check(start, count); err != nil {
		return nil, err
	}
	if uint64(len(c.data)) < numElements(c.dims)*c.elem {
		return nil, fmt.Errorf("compact data holds %d bytes, dataset needs %d", len(c.data), numElements(c.dims)*c.elem)
	}
	out := c.buffer(count)
	copyBox(out, count, make([]uint64, len(count)), c.data, c.dims, start, count, c.elem)
	return out, nil
}
