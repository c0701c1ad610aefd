package filter

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	h5bin "github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/message"
)

// Fletcher32 checks and strips the checksum appended to each chunk.
type Fletcher32 struct{}

func NewFletcher32([]uint32) *Fletcher32 { return &Fletcher32{} }

func (*Fletcher32) ID() uint16 { return message.FilterFletcher32 }

// Decode accepts the stored checksum in either byte order; files written
// by HDF5 1.6.0 and 1.6.1 stored it swapped.
func (*Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: %d bytes is shorter than the checksum", len(input))
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	sum := h5bin.Fletcher32(data)
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, fmt.Errorf("fletcher32: checksum mismatch, stored 0x%08x computed 0x%08x", stored, sum)
	}
	return data, nil
}
