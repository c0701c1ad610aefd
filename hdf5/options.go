package hdf5

// FileOption configures a file made by Create.
type FileOption func(*fileOptions)

// fileOptions holds the superblock's address and length widths in bytes.
type fileOptions struct {
	offsetSize int
	lengthSize int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{offsetSize: 8, lengthSize: 8}
}

func validWidth(n int) bool { return n == 2 || n == 4 || n == 8 }

// WithOffsetSize sets the width of file addresses. Widths other than 2, 4
// and 8 are ignored.
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if validWidth(size) {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the width of stored lengths, like WithOffsetSize.
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if validWidth(size) {
			o.lengthSize = size
		}
	}
}

// DatasetOption configures dataset creation options.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	fillValue float64
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// WithFillValue sets the value read back for elements that have no stored
// data, such as regions of a virtual dataset that no mapping covers.
// The default is 0.
func WithFillValue(v float64) DatasetOption {
	return func(o *datasetOptions) {
		o.fillValue = v
	}
}
