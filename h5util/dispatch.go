package h5util

import (
	"fmt"
	"slices"
)

// Args carries the command-line inputs of every operation. Each operation
// reads the fields it needs.
type Args struct {
	InputFiles  []string
	OutputFiles []string
	DataFields  []string
	OutShape    []int
	Indices     []int
	ChunkLimit  int
	Start       int
	Slice       int
}

// Operation runs one named function against parsed arguments.
type Operation func(a Args, opts ...Option) error

var operations = map[string]Operation{
	"collect_virtual_dataset": func(a Args, opts ...Option) error {
		if len(a.OutputFiles) == 0 {
			return errMissing("output_files")
		}
		if len(a.DataFields) < 2 {
			return fmt.Errorf("%w: --data_fields needs the output and input dataset names", ErrMissingArgument)
		}
		return CollectVirtualDataset(a.OutputFiles[0], a.InputFiles, a.DataFields[0], a.DataFields[1], opts...)
	},
	"convert_npy_to_h5": func(a Args, opts ...Option) error {
		return ConvertNpyToH5(a.InputFiles, a.OutputFiles, a.OutShape, opts...)
	},
	"collect_and_reshape": func(a Args, opts ...Option) error {
		return CollectAndReshape(a.InputFiles, a.OutputFiles, a.DataFields, a.OutShape, opts...)
	},
	"transpose": func(a Args, opts ...Option) error {
		return Transpose(a.InputFiles, a.OutputFiles, opts...)
	},
	"separate": func(a Args, opts ...Option) error {
		if len(a.InputFiles) == 0 {
			return ErrNoInputs
		}
		return Separate(a.InputFiles[0], a.OutputFiles, a.DataFields, a.ChunkLimit, opts...)
	},
	"matrix_collection": func(a Args, opts ...Option) error {
		w := Window{Indices: a.Indices, Shape: a.OutShape, Start: a.Start, Slice: a.Slice}
		return MatrixCollection(a.InputFiles, a.OutputFiles, a.DataFields, w, opts...)
	},
	"extract_field": func(a Args, opts ...Option) error {
		switch {
		case len(a.InputFiles) == 0:
			return ErrNoInputs
		case len(a.OutputFiles) == 0:
			return errMissing("output_files")
		case len(a.DataFields) == 0:
			return errMissing("data_fields")
		}
		return ExtractField(a.InputFiles[0], a.OutputFiles[0], a.DataFields[0], opts...)
	},
}

// Run dispatches the operation called name.
func Run(name string, a Args, opts ...Option) error {
	op, ok := operations[name]
	if !ok {
		return &UnknownOperationError{Name: name}
	}
	if err := op(a, opts...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Operations returns the names Run accepts, sorted.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func errMissing(flag string) error {
	return fmt.Errorf("%w: --%s", ErrMissingArgument, flag)
}
