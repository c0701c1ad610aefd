package message

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether the filter may be skipped when unavailable.
func (f FilterInfo) IsOptional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline is message 0x000B.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func parseFilterPipeline(r *binary.Reader) (*FilterPipeline, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, ErrTruncated
	}
	m := &FilterPipeline{Version: head[0], Filters: make([]FilterInfo, head[1])}
	switch m.Version {
	case 1:
		r.Skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("unsupported filter pipeline version %d", m.Version)
	}
	for i := range m.Filters {
		if m.Filters[i], err = parseFilterInfo(r, m.Version); err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return m, nil
}

func parseFilterInfo(r *binary.Reader, version uint8) (FilterInfo, error) {
	var f FilterInfo
	var err error
	if f.ID, err = r.ReadUint16(); err != nil {
		return f, ErrTruncated
	}
	var nameLen uint16
	if version == 1 || f.ID >= 256 {
		if nameLen, err = r.ReadUint16(); err != nil {
			return f, ErrTruncated
		}
	}
	if f.Flags, err = r.ReadUint16(); err != nil {
		return f, ErrTruncated
	}
	numCD, err := r.ReadUint16()
	if err != nil {
		return f, ErrTruncated
	}
	if nameLen > 0 {
		raw, err := r.ReadBytes(int(nameLen))
		if err != nil {
			return f, ErrTruncated
		}
		for i, b := range raw {
			if b == 0 {
				raw = raw[:i]
				break
			}
		}
		f.Name = string(raw)
		if version == 1 {
			r.Align(8)
		}
	}
	f.ClientData = make([]uint32, numCD)
	for i := range f.ClientData {
		if f.ClientData[i], err = r.ReadUint32(); err != nil {
			return f, ErrTruncated
		}
	}
	if version == 1 && numCD%2 != 0 {
		r.Skip(4)
	}
	return f, nil
}
