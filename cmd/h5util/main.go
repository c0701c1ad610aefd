// Command h5util rearranges float64 matrices stored in HDF5 files.
//
// Usage:
//
//	h5util <function> [flags]
//
// The function is one of collect_virtual_dataset, convert_npy_to_h5,
// collect_and_reshape, transpose, separate, matrix_collection and
// extract_field. List flags take space- or comma-separated values:
//
//	h5util collect_virtual_dataset --output_files out.h5 \
//	    --input_files a.h5 b.h5 c.h5 --data_fields combined data
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robert-malhotra/h5util/h5util"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes one command and returns the process exit status.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("h5util", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		a             h5util.Args
		inputs        stringList
		outputs       stringList
		fields        stringList
		shape         intList
		indices       intList
		fillValue     float64
		inputDataset  string
		outputDataset string
		level         string
	)
	fs.Var(&inputs, "input_files", "input files")
	fs.Var(&outputs, "output_files", "output files")
	fs.Var(&fields, "data_fields", "dataset names")
	fs.Var(&shape, "out_shape", "output shape; one dimension may be -1")
	fs.Var(&indices, "idcs", "column indices for matrix_collection")
	fs.IntVar(&a.ChunkLimit, "chunk_limit", h5util.Unlimited, "columns kept by separate; negative keeps all")
	fs.IntVar(&a.Start, "i_start", 0, "first row for matrix_collection")
	fs.IntVar(&a.Slice, "slice", 0, "depth slice for 3D shapes in matrix_collection")
	fs.Float64Var(&fillValue, "fill_value", 0, "fill value of virtual datasets")
	fs.StringVar(&inputDataset, "input_dataset", h5util.DefaultDataset, "dataset transpose reads")
	fs.StringVar(&outputDataset, "output_dataset", h5util.DefaultDataset, "dataset transpose writes")
	fs.StringVar(&level, "log_level", "", "DEBUG, INFO, WARN or ERROR (default $"+logLevelEnv+" or INFO)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: h5util <function> [flags]\n\nfunctions: %s\n\nflags:\n",
			strings.Join(h5util.Operations(), ", "))
		fs.PrintDefaults()
	}

	var name string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	args = expandLists(args,
		map[string]bool{"input_files": true, "output_files": true, "data_fields": true},
		map[string]bool{"out_shape": true, "idcs": true},
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if name == "" {
		name = fs.Arg(0)
	}

	logger, err := configureLogging(stderr, level)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if name == "" {
		logger.Error("no function given")
		fs.Usage()
		return 1
	}

	a.InputFiles, a.OutputFiles, a.DataFields = inputs, outputs, fields
	a.OutShape, a.Indices = shape, indices
	logger.Debug("running", "function", name, "args", a)

	err = h5util.Run(name, a,
		h5util.WithLogger(logger),
		h5util.WithFillValue(fillValue),
		h5util.WithDatasetNames(inputDataset, outputDataset),
	)
	if err != nil {
		logger.Error("failed", "function", name, "err", err)
		return 1
	}
	return 0
}
