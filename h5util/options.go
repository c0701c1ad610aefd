package h5util

import (
	"io"
	"log/slog"
)

// Option configures an operation.
type Option func(*options)

type options struct {
	fillValue     float64
	inputDataset  string
	outputDataset string
	logger        *slog.Logger
}

func defaultOptions() *options {
	return &options{
		inputDataset:  DefaultDataset,
		outputDataset: DefaultDataset,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFillValue sets the value unmapped regions of a composed virtual
// dataset read as. The default is 0.
func WithFillValue(v float64) Option {
	return func(o *options) {
		o.fillValue = v
	}
}

// WithDatasetNames sets the dataset Transpose reads from each input and
// the one it writes to each output. Empty names keep DefaultDataset.
func WithDatasetNames(input, output string) Option {
	return func(o *options) {
		if input != "" {
			o.inputDataset = input
		}
		if output != "" {
			o.outputDataset = output
		}
	}
}

// WithLogger sets the logger progress is reported to. Operations are
// silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
