package h5util

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/robert-malhotra/h5util/hdf5"
)

// Window selects what MatrixCollection exports from each column.
type Window struct {
	// Indices are the columns to export, one file each.
	Indices []int
	// Shape the rows are reshaped to. Its product is the window height.
	Shape []int
	// Start is the first row of the window.
	Start int
	// Slice picks [:, :, Slice] when Shape is 3D.
	Slice int
}

// MatrixCollection exports, for every input and every index in w, the
// window of rows [w.Start, w.Start+prod(w.Shape)) of column index of the
// input's field, reshaped to w.Shape, as the text matrix
// "<output>-<index>.txt".
func MatrixCollection(inputs, outputs, fields []string, w Window, opts ...Option) (err error) {
	o := buildOptions(opts)
	if err := pair(inputs, outputs); err != nil {
		return err
	}
	if len(fields) != len(inputs) {
		return fmt.Errorf("%w: %d inputs, %d data fields", ErrPairing, len(inputs), len(fields))
	}
	if len(w.Indices) == 0 {
		return errMissing("idcs")
	}
	if len(w.Shape) == 0 {
		return errMissing("out_shape")
	}
	if len(w.Shape) > 3 {
		return fmt.Errorf("%w: cannot write a %dD matrix as text", ErrUnsupportedRank, len(w.Shape))
	}
	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()

	for i, in := range inputs {
		o.logger.Info("Processing " + in)
		if err := collectMatrices(in, outputs[i], fields[i], w, b); err != nil {
			return err
		}
	}
	return nil
}

func collectMatrices(input, output, field string, w Window, b *batch) error {
	f, err := hdf5.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()
	ds, err := open2D(f, field)
	if err != nil {
		return err
	}
	dims := toInt(ds.Shape())
	n := NumElements(w.Shape)

	for _, idx := range w.Indices {
		if w.Start < 0 || w.Start+n > dims[0] || idx < 0 || idx >= dims[1] {
			return &ShapeMismatchError{File: input, Dataset: field, Want: []int{w.Start + n, idx + 1}, Got: dims}
		}
		col, err := readSlice(ds, []int{w.Start, idx}, []int{n, 1})
		if err != nil {
			return err
		}
		m, err := col.Reshape(w.Shape)
		if err != nil {
			return err
		}
		if m.Rank() == 3 {
			if m, err = depthSlice(m, w.Slice); err != nil {
				return err
			}
		}
		path := fmt.Sprintf("%s-%d.txt", output, idx)
		if err := writeText(b.stage(path), m); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// depthSlice returns a[:, :, k] of a 3D array.
func depthSlice(a Array, k int) (Array, error) {
	r, c, d := a.Shape[0], a.Shape[1], a.Shape[2]
	if k < 0 || k >= d {
		return Array{}, fmt.Errorf("%w: slice %d outside depth %d", ErrShapeMismatch, k, d)
	}
	out := Array{Shape: []int{r, c}, Data: make([]float64, 0, r*c)}
	for i := 0; i < r*c; i++ {
		out.Data = append(out.Data, a.Data[i*d+k])
	}
	return out, nil
}

func writeText(path string, a Array) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := SaveText(w, a); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SaveText writes a 1D or 2D array as whitespace-delimited text, one row
// per line, each value formatted as %.18e. A 1D array is written one
// value per line.
func SaveText(w io.Writer, a Array) error {
	cols := 1
	switch a.Rank() {
	case 1:
	case 2:
		cols = a.Shape[1]
	default:
		return fmt.Errorf("%w: cannot write a %dD array as text", ErrUnsupportedRank, a.Rank())
	}
	if cols == 0 {
		return nil
	}
	line := make([]byte, 0, 26*cols)
	for i := 0; i < len(a.Data); i += cols {
		line = line[:0]
		for j, v := range a.Data[i : i+cols] {
			if j > 0 {
				line = append(line, ' ')
			}
			line = appendValue(line, v)
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func appendValue(b []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(b, "nan"...)
	case math.IsInf(v, 1):
		return append(b, "inf"...)
	case math.IsInf(v, -1):
		return append(b, "-inf"...)
	}
	return strconv.AppendFloat(b, v, 'e', 18, 64)
}
