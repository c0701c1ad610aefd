package message

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// Space allocation and fill write times as encoded in the message.
const (
	AllocTimeEarly       uint8 = 1
	AllocTimeLate        uint8 = 2
	AllocTimeIncremental uint8 = 3

	FillTimeAlloc uint8 = 0
	FillTimeNever uint8 = 1
	FillTimeIfSet uint8 = 2
)

// FillValue is message 0x0005.
type FillValue struct {
	Version   uint8
	AllocTime uint8
	FillTime  uint8
	Defined   bool
	Value     []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

// NewFillValue returns a version 3 message holding value, which may be nil
// for the library default of all-zero bytes.
func NewFillValue(value []byte) *FillValue {
	return &FillValue{
		Version:   3,
		AllocTime: AllocTimeIncremental,
		FillTime:  FillTimeIfSet,
		Defined:   true,
		Value:     value,
	}
}

// Serialize writes a version 3 fill value message.
func (m *FillValue) Serialize(w *binary.Writer) error {
	flags := m.AllocTime&0x03 | (m.FillTime&0x03)<<2
	if !m.Defined {
		flags |= 1 << 4
	} else if m.Value != nil {
		flags |= 1 << 5
	}
	if err := w.WriteUint8(3); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if flags&(1<<5) == 0 {
		return nil
	}
	if err := w.WriteUint32(uint32(len(m.Value))); err != nil {
		return err
	}
	return w.WriteBytes(m.Value)
}

func parseFillValue(r *binary.Reader) (*FillValue, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, ErrTruncated
	}
	m := &FillValue{Version: version}

	switch version {
	case 1, 2:
		head, err := r.ReadBytes(3)
		if err != nil {
			return nil, ErrTruncated
		}
		m.AllocTime, m.FillTime, m.Defined = head[0], head[1], head[2] != 0
		if version == 2 && !m.Defined {
			return m, nil
		}
		size, err := r.ReadUint32()
		if err != nil {
			// Version 1 may omit the size when nothing is defined.
			return m, nil
		}
		if m.Value, err = r.ReadBytes(int(size)); err != nil {
			return nil, ErrTruncated
		}
	case 3:
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, ErrTruncated
		}
		m.AllocTime = flags & 0x03
		m.FillTime = (flags >> 2) & 0x03
		m.Defined = flags&(1<<4) == 0
		if flags&(1<<5) != 0 {
			size, err := r.ReadUint32()
			if err != nil {
				return nil, ErrTruncated
			}
			if m.Value, err = r.ReadBytes(int(size)); err != nil {
				return nil, ErrTruncated
			}
		}
	default:
		return nil, fmt.Errorf("unsupported fill value version %d", version)
	}
	return m, nil
}
