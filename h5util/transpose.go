package h5util

import "github.com/robert-malhotra/h5util/hdf5"

// Transpose writes the transpose of each input's dataset to a new
// container at the matching output. Dataset names default to "data"; see
// WithDatasetNames.
func Transpose(inputs, outputs []string, opts ...Option) (err error) {
	o := buildOptions(opts)
	if err := pair(inputs, outputs); err != nil {
		return err
	}
	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()

	for i, in := range inputs {
		o.logger.Info("Processing " + in)
		a, err := read2D(in, o.inputDataset)
		if err != nil {
			return err
		}
		if err := writeArray(b.stage(outputs[i]), o.outputDataset, a.T()); err != nil {
			return err
		}
	}
	return nil
}

func read2D(path, name string) (Array, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return Array{}, err
	}
	defer f.Close()
	ds, err := open2D(f, name)
	if err != nil {
		return Array{}, err
	}
	return readArray(ds)
}
