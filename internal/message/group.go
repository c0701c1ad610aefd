package message

import (
	"github.com/robert-malhotra/h5util/internal/binary"
)

// LinkInfo is message 0x0002. Groups written here keep all links compact,
// so the fractal heap and name index addresses are undefined.
type LinkInfo struct {
	Flags             uint8
	MaxCreationIndex  uint64
	FractalHeapAddr   uint64
	NameIndexAddr     uint64
	CreationIndexAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo returns link info for a compact group.
func NewLinkInfo(offsetSize int) *LinkInfo {
	undef := binary.Undefined(offsetSize)
	return &LinkInfo{FractalHeapAddr: undef, NameIndexAddr: undef}
}

// Dense reports whether links live in a fractal heap instead of the header.
func (m *LinkInfo) Dense(offsetSize int) bool {
	return m.FractalHeapAddr != binary.Undefined(offsetSize)
}

func (m *LinkInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}
	if m.Flags&0x01 != 0 {
		if err := w.WriteUint64(m.MaxCreationIndex); err != nil {
			return err
		}
	}
	if err := w.WriteOffset(m.FractalHeapAddr); err != nil {
		return err
	}
	if err := w.WriteOffset(m.NameIndexAddr); err != nil {
		return err
	}
	if m.Flags&0x02 != 0 {
		return w.WriteOffset(m.CreationIndexAddr)
	}
	return nil
}

func parseLinkInfo(r *binary.Reader) (*LinkInfo, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, ErrTruncated
	}
	m := &LinkInfo{Flags: head[1]}
	if m.Flags&0x01 != 0 {
		if m.MaxCreationIndex, err = r.ReadUint64(); err != nil {
			return nil, ErrTruncated
		}
	}
	if m.FractalHeapAddr, err = r.ReadOffset(); err != nil {
		return nil, ErrTruncated
	}
	if m.NameIndexAddr, err = r.ReadOffset(); err != nil {
		return nil, ErrTruncated
	}
	if m.Flags&0x02 != 0 {
		if m.CreationIndexAddr, err = r.ReadOffset(); err != nil {
			return nil, ErrTruncated
		}
	}
	return m, nil
}

// GroupInfo is message 0x000A. Only the default form, without explicit
// thresholds, is written.
type GroupInfo struct{}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func (m *GroupInfo) Serialize(w *binary.Writer) error {
	return w.WriteBytes([]byte{0, 0})
}

// SymbolTable is message 0x0011, present on groups stored the pre-1.8 way.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(r *binary.Reader) (*SymbolTable, error) {
	btree, err := r.ReadOffset()
	if err != nil {
		return nil, ErrTruncated
	}
	heap, err := r.ReadOffset()
	if err != nil {
		return nil, ErrTruncated
	}
	return &SymbolTable{BTreeAddress: btree, LocalHeapAddress: heap}, nil
}
