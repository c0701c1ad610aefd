package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/message"
)

// ErrUnsupported is returned for a required filter this package lacks.
var ErrUnsupported = errors.New("unsupported filter")

// Filter decodes one pipeline stage.
type Filter interface {
	ID() uint16
	Decode(input []byte) ([]byte, error)
}

// Registry maps filter IDs to constructors taking the filter's client data.
var Registry = map[uint16]func([]uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// New builds the filter described by info. It returns nil, nil for an
// optional filter that is not available.
func New(info message.FilterInfo) (Filter, error) {
	ctor, ok := Registry[info.ID]
	if ok {
		return ctor(info.ClientData), nil
	}
	if info.IsOptional() {
		return nil, nil
	}
	name := names[info.ID]
	if name == "" {
		name = info.Name
	}
	return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, name, info.ID)
}
