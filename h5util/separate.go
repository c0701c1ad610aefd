package h5util

import (
	"fmt"

	"github.com/robert-malhotra/h5util/hdf5"
)

// Unlimited keeps every column in Separate.
const Unlimited = -1

// Separate writes the first limit columns of each field of input to its
// own container, field i going to outputs[i] as dataset "data". A
// negative limit keeps the full width and a limit past the width is
// clamped to it.
func Separate(input string, outputs, fields []string, limit int, opts ...Option) (err error) {
	o := buildOptions(opts)
	if len(outputs) == 0 {
		return errMissing("output_files")
	}
	if len(outputs) != len(fields) {
		return fmt.Errorf("%w: %d outputs, %d data fields", ErrPairing, len(outputs), len(fields))
	}

	f, err := hdf5.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()

	for i, field := range fields {
		o.logger.Info("Processing "+input, "field", field)
		ds, err := open2D(f, field)
		if err != nil {
			return err
		}
		dims := toInt(ds.Shape())
		cols := dims[1]
		if limit >= 0 && limit < cols {
			cols = limit
		}
		a, err := readSlice(ds, []int{0, 0}, []int{dims[0], cols})
		if err != nil {
			return err
		}
		if err := writeArray(b.stage(outputs[i]), DefaultDataset, a); err != nil {
			return err
		}
	}
	return nil
}
