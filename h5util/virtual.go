package h5util

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/h5util/hdf5"
)

// Shape of a set of 2D sources laid side by side.
type Shape struct {
	Rows int
	Cols []int
}

// Width is the total column count.
func (s Shape) Width() int {
	n := 0
	for _, c := range s.Cols {
		n += c
	}
	return n
}

// FinalShape reads the shape of dataset in every input and checks that
// each is 2D with the row count of the first.
func FinalShape(inputs []string, dataset string) (Shape, error) {
	if len(inputs) == 0 {
		return Shape{}, ErrNoInputs
	}
	var s Shape
	for i, path := range inputs {
		dims, err := shape2D(path, dataset)
		if err != nil {
			return Shape{}, err
		}
		if i == 0 {
			s.Rows = dims[0]
		} else if dims[0] != s.Rows {
			return Shape{}, &ShapeMismatchError{File: path, Dataset: dataset, Want: []int{s.Rows, dims[1]}, Got: dims}
		}
		s.Cols = append(s.Cols, dims[1])
	}
	return s, nil
}

func shape2D(path, dataset string) ([]int, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := open2D(f, dataset)
	if err != nil {
		return nil, err
	}
	return toInt(ds.Shape()), nil
}

// VirtualLayout lays the inputs side by side: input i fills the next
// Cols[i] columns, mapped whole at its own shape.
func VirtualLayout(inputs []string, dataset string, s Shape) hdf5.VirtualLayout {
	vl := hdf5.VirtualLayout{Dims: []uint64{uint64(s.Rows), uint64(s.Width())}}
	col := 0
	for i, path := range inputs {
		vl.Mappings = append(vl.Mappings, hdf5.VirtualMapping{
			SourceFile:      path,
			SourceDataset:   dataset,
			SourceSelection: hdf5.SelectAll(),
			VirtualSelection: hdf5.SelectBlock(
				[]uint64{0, uint64(col)},
				[]uint64{uint64(s.Rows), uint64(s.Cols[i])},
			),
		})
		col += s.Cols[i]
	}
	return vl
}

// CollectVirtualDataset composes outputDataset in output as the
// column-wise concatenation of inputDataset from every input, in order.
// No data is copied: output stores only the mapping, so moving or
// deleting an input later breaks reads through it. Output is created if
// absent and extended otherwise. All inputs are checked before output is
// touched.
func CollectVirtualDataset(output string, inputs []string, outputDataset, inputDataset string, opts ...Option) (err error) {
	o := buildOptions(opts)
	s, err := FinalShape(inputs, inputDataset)
	if err != nil {
		return err
	}
	o.logger.Debug("virtual dataset shape", "rows", s.Rows, "cols", s.Cols)
	vl := VirtualLayout(inputs, inputDataset, s)
	for _, path := range inputs {
		o.logger.Info("Processing " + path)
	}

	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()

	tmp, err := b.stageCopy(output)
	if err != nil {
		return err
	}
	f, err := openAppend(tmp)
	if err != nil {
		return err
	}
	_, err = f.Root().CreateVirtualDataset(outputDataset, vl, hdf5.WithFillValue(o.fillValue))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%s: creating %q: %w", output, outputDataset, err)
	}
	return nil
}

// openAppend opens path for writing, creating it when it does not exist.
func openAppend(path string) (*hdf5.File, error) {
	f, err := hdf5.OpenReadWrite(path)
	if errors.Is(err, os.ErrNotExist) {
		return hdf5.Create(path)
	}
	return f, err
}
