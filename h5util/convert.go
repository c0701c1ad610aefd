package h5util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/h5util/hdf5"
	"github.com/robert-malhotra/h5util/internal/npy"
)

// ConvertNpyToH5 converts each .npy input into a new container holding
// dataset "data" at the matching output path. A non-empty shape reshapes
// every array first and may contain one -1.
func ConvertNpyToH5(inputs, outputs []string, shape []int, opts ...Option) (err error) {
	o := buildOptions(opts)
	if err := pair(inputs, outputs); err != nil {
		return err
	}
	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()

	for i, in := range inputs {
		o.logger.Info("Processing " + in)
		dims, data, err := npy.ReadFile(in)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		a := Array{Shape: dims, Data: data}
		if len(shape) > 0 {
			if a, err = a.Reshape(shape); err != nil {
				return err
			}
		}
		o.logger.Debug("converted array", "file", in, "shape", a.Shape)
		if err := writeArray(b.stage(outputs[i]), DefaultDataset, a); err != nil {
			return err
		}
	}
	return nil
}

// ExtractField writes dataset field of input to output as a .npy file,
// appending the .npy extension when output lacks it.
func ExtractField(input, output, field string, opts ...Option) (err error) {
	o := buildOptions(opts)
	if !strings.HasSuffix(output, ".npy") {
		output += ".npy"
	}
	o.logger.Info("Processing " + input)

	f, err := hdf5.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()
	ds, err := openDataset(f, field)
	if err != nil {
		return err
	}
	a, err := readArray(ds)
	if err != nil {
		return err
	}

	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()
	if err := npy.WriteFile(b.stage(output), a.Shape, a.Data); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(output), err)
	}
	return nil
}

// pair checks that parallel path lists line up.
func pair(inputs, outputs []string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	if len(inputs) != len(outputs) {
		return fmt.Errorf("%w: %d inputs, %d outputs", ErrPairing, len(inputs), len(outputs))
	}
	return nil
}
