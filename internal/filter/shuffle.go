package filter

import "github.com/robert-malhotra/h5util/internal/message"

// Shuffle regroups the bytes of fixed-size elements. The client data holds
// the element size.
type Shuffle struct {
	size int
}

func NewShuffle(cd []uint32) *Shuffle {
	size := 1
	if len(cd) > 0 && cd[0] > 0 {
		size = int(cd[0])
	}
	return &Shuffle{size: size}
}

func (*Shuffle) ID() uint16 { return message.FilterShuffle }

// Decode turns [all byte 0s][all byte 1s]... back into whole elements.
// Trailing bytes that do not fill an element are stored unshuffled.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / f.size
	if f.size <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.size; j++ {
			out[i*f.size+j] = input[j*n+i]
		}
	}
	copy(out[n*f.size:], input[n*f.size:])
	return out, nil
}
