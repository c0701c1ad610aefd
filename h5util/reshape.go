package h5util

import "github.com/robert-malhotra/h5util/hdf5"

// CollectAndReshape reads fields from each input, reshapes every field to
// shape, stacks them in field order and writes the result as dataset
// "data" to the matching output.
func CollectAndReshape(inputs, outputs, fields []string, shape []int, opts ...Option) (err error) {
	o := buildOptions(opts)
	if err := pair(inputs, outputs); err != nil {
		return err
	}
	if len(fields) == 0 {
		return errMissing("data_fields")
	}
	if len(shape) == 0 {
		return errMissing("out_shape")
	}
	b := newBatch(o.logger)
	defer func() { err = b.finish(err) }()

	for i, in := range inputs {
		o.logger.Info("Processing " + in)
		stacked, err := collect(in, fields, shape, o)
		if err != nil {
			return err
		}
		if err := writeArray(b.stage(outputs[i]), DefaultDataset, stacked); err != nil {
			return err
		}
	}
	return nil
}

func collect(path string, fields []string, shape []int, o *options) (Array, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return Array{}, err
	}
	defer f.Close()

	parts := make([]Array, 0, len(fields))
	for _, field := range fields {
		ds, err := openDataset(f, field)
		if err != nil {
			return Array{}, err
		}
		o.logger.Debug("datafield shape", "field", field, "shape", ds.Shape())
		a, err := readArray(ds)
		if err != nil {
			return Array{}, err
		}
		if a, err = a.Reshape(shape); err != nil {
			return Array{}, err
		}
		parts = append(parts, a)
	}
	return VStack(parts)
}
