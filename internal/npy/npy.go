// Package npy reads and writes numpy's .npy array files.
//
// Arrays are exchanged as a shape plus float64 values in C (row-major)
// order. Headers are parsed by npyio; the data may be in either byte
// order, in Fortran order, and float or integer elements of the usual
// widths. Writing always produces version 1.0 little-endian float64, with
// the header laid out the way numpy.save lays it out.
package npy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"

	"github.com/robert-malhotra/h5util/internal/dtype"
	"github.com/robert-malhotra/h5util/internal/message"
)

// Magic starts every .npy file.
var Magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// headerUnits is the alignment of magic, version, length and header text.
const headerUnits = 64

var (
	ErrNotNPY      = errors.New("not a .npy file")
	ErrUnsupported = errors.New("unsupported .npy content")
)

// Header is the content of a .npy header dictionary.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// NumElements returns the number of elements the shape holds.
func (h Header) NumElements() int {
	n := 1
	for _, d := range h.Shape {
		n *= d
	}
	return n
}

// ReadFile reads the array stored at path.
func ReadFile(path string) (shape []int, data []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}

// Read decodes an array from r, converting elements to float64 and
// reordering Fortran-order data to C order.
func Read(r io.Reader) (shape []int, data []float64, err error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}
	dt, err := Datatype(h.Descr)
	if err != nil {
		return nil, nil, err
	}

	raw := make([]byte, h.NumElements()*int(dt.Size))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("reading %d data bytes: %w", len(raw), err)
	}
	values, err := dtype.Decode(dt, raw)
	if err != nil {
		return nil, nil, err
	}
	if h.FortranOrder && len(h.Shape) > 1 {
		values = fromFortran(values, h.Shape)
	}
	return h.Shape, values, nil
}

// ReadHeader consumes the magic, version and header dictionary, leaving r
// at the first data byte.
func ReadHeader(r io.Reader) (Header, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrNotNPY, err)
	}
	d := nr.Header.Descr
	return Header{Descr: d.Type, FortranOrder: d.Fortran, Shape: d.Shape}, nil
}

// Datatype maps a numpy type string such as "<f8" or "|u1" to a datatype.
func Datatype(descr string) (*message.Datatype, error) {
	if len(descr) < 3 {
		return nil, fmt.Errorf("%w: dtype %q", ErrUnsupported, descr)
	}
	order := message.OrderLE
	switch descr[0] {
	case '<', '|', '=':
	case '>':
		order = message.OrderBE
	default:
		return nil, fmt.Errorf("%w: dtype %q", ErrUnsupported, descr)
	}
	size, err := strconv.Atoi(descr[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: dtype %q", ErrUnsupported, descr)
	}

	switch kind := descr[1]; {
	case kind == 'f' && (size == 4 || size == 8):
		return message.NewFloatDatatype(uint32(size), order), nil
	case (kind == 'i' || kind == 'u') && (size == 1 || size == 2 || size == 4 || size == 8):
		return message.NewFixedPointDatatype(uint32(size), kind == 'i', order), nil
	}
	return nil, fmt.Errorf("%w: dtype %q", ErrUnsupported, descr)
}

// fromFortran reorders column-major values of the given shape into
// row-major order.
func fromFortran(values []float64, shape []int) []float64 {
	out := make([]float64, len(values))
	fstride := make([]int, len(shape))
	step := 1
	for d := range shape {
		fstride[d] = step
		step *= shape[d]
	}
	idx := make([]int, len(shape))
	for i := range out {
		src := 0
		for d, v := range idx {
			src += v * fstride[d]
		}
		out[i] = values[src]
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// WriteFile writes a little-endian float64 C-order array to path.
func WriteFile(path string, shape []int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Write(w, shape, data); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes a little-endian float64 C-order array to w.
func Write(w io.Writer, shape []int, data []float64) error {
	h := Header{Descr: "<f8", Shape: shape}
	if n := h.NumElements(); n != len(data) {
		return fmt.Errorf("%d values do not fill shape %v (%d elements)", len(data), shape, n)
	}
	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	raw, err := dtype.Encode(dtype.Float64(), data)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// EncodeHeader renders the magic, version and padded header dictionary
// the way numpy does, choosing version 2.0 only when the text does not
// fit a 16-bit length.
func EncodeHeader(h Header) []byte {
	dims := make([]string, len(h.Shape))
	for i, d := range h.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(dims) == 1 {
		shape += ","
	}
	fortran := "False"
	if h.FortranOrder {
		fortran = "True"
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }", h.Descr, fortran, shape)

	pre := len(Magic) + 2 + 2
	major := byte(1)
	if pad(pre, len(dict)) > 0xFFFF {
		pre, major = len(Magic)+2+4, 2
	}
	total := pad(pre, len(dict))

	out := make([]byte, 0, pre+total)
	out = append(out, Magic...)
	out = append(out, major, 0)
	if major == 1 {
		out = append(out, byte(total), byte(total>>8))
	} else {
		out = append(out, byte(total), byte(total>>8), byte(total>>16), byte(total>>24))
	}
	out = append(out, dict...)
	for len(out) < pre+total-1 {
		out = append(out, ' ')
	}
	return append(out, '\n')
}

// pad returns the header text length, newline included, that makes the
// whole preamble a multiple of headerUnits.
func pad(pre, dict int) int {
	n := pre + dict + 1
	n = (n + headerUnits - 1) / headerUnits * headerUnits
	return n - pre
}
