package filter

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/robert-malhotra/h5util/internal/message"
)

// Deflate is the zlib filter. The client data holds the compression level,
// which only matters when writing.
type Deflate struct{}

func NewDeflate([]uint32) *Deflate { return &Deflate{} }

func (*Deflate) ID() uint16 { return message.FilterDeflate }

func (*Deflate) Decode(input []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return out, nil
}
