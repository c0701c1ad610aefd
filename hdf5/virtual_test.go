package hdf5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/internal/message"
)

// writeMatrix creates path holding a rows x cols dataset "data" whose
// element (r, c) is base + 10r + c.
func writeMatrix(t *testing.T, path string, rows, cols int, base float64) {
	t.Helper()
	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			values = append(values, base+float64(10*r+c))
		}
	}
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateDataset("data", []uint64{uint64(rows), uint64(cols)}, values)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func columnMappings() []VirtualMapping {
	return []VirtualMapping{
		{
			SourceFile: "a.h5", SourceDataset: "data",
			SourceSelection:  SelectAll(),
			VirtualSelection: SelectBlock([]uint64{0, 0}, []uint64{3, 2}),
		},
		{
			SourceFile: "b.h5", SourceDataset: "data",
			SourceSelection:  SelectAll(),
			VirtualSelection: SelectBlock([]uint64{0, 2}, []uint64{3, 3}),
		},
	}
}

func TestVirtualDatasetColumns(t *testing.T) {
	dir := t.TempDir()
	writeMatrix(t, filepath.Join(dir, "a.h5"), 3, 2, 0)
	writeMatrix(t, filepath.Join(dir, "b.h5"), 3, 3, 100)

	vpath := filepath.Join(dir, "v.h5")
	f, err := Create(vpath)
	require.NoError(t, err)
	vl := VirtualLayout{Dims: []uint64{3, 5}, Mappings: columnMappings()}
	ds, err := f.Root().CreateVirtualDataset("stacked", vl)
	require.NoError(t, err)
	assert.True(t, ds.IsVirtual())
	require.NoError(t, f.Close())

	f, err = Open(vpath)
	require.NoError(t, err)
	defer f.Close()

	ds, err = f.OpenDataset("stacked")
	require.NoError(t, err)
	assert.Equal(t, message.LayoutVirtual, ds.LayoutClass())
	assert.Equal(t, []uint64{3, 5}, ds.Shape())
	mappings, err := ds.VirtualMappings()
	require.NoError(t, err)
	assert.Equal(t, columnMappings(), mappings)

	values, err := ds.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{
		0, 1, 100, 101, 102,
		10, 11, 110, 111, 112,
		20, 21, 120, 121, 122,
	}, values)

	values, err = ds.ReadFloat64Slice([]uint64{1, 3}, []uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{111, 112, 121, 122}, values)
}

func TestVirtualDatasetMissingSource(t *testing.T) {
	dir := t.TempDir()
	writeMatrix(t, filepath.Join(dir, "a.h5"), 3, 2, 0)
	writeMatrix(t, filepath.Join(dir, "b.h5"), 3, 3, 100)

	vpath := filepath.Join(dir, "v.h5")
	f, err := Create(vpath)
	require.NoError(t, err)
	_, err = f.Root().CreateVirtualDataset("stacked", VirtualLayout{Dims: []uint64{3, 5}, Mappings: columnMappings()})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, os.Remove(filepath.Join(dir, "b.h5")))

	f, err = Open(vpath)
	require.NoError(t, err)
	defer f.Close()
	ds, err := f.OpenDataset("stacked")
	require.NoError(t, err)

	_, err = ds.ReadFloat64()
	require.ErrorIs(t, err, ErrSourceUnavailable)

	// columns served by a.h5 alone still read
	values, err := ds.ReadFloat64Slice([]uint64{0, 0}, []uint64{3, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 10, 11, 20, 21}, values)
}

func TestVirtualDatasetFillAndSelf(t *testing.T) {
	path := tempFile(t, "self.h5")
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateDataset("data", []uint64{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	vl := VirtualLayout{
		Dims: []uint64{2, 3},
		Mappings: []VirtualMapping{{
			SourceFile: ".", SourceDataset: "data",
			SourceSelection:  SelectAll(),
			VirtualSelection: SelectBlock([]uint64{0, 1}, []uint64{2, 2}),
		}},
	}
	ds, err := f.Root().CreateVirtualDataset("padded", vl, WithFillValue(-1))
	require.NoError(t, err)

	values, err := ds.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1, 2, -1, 3, 4}, values)
	require.NoError(t, f.Close())
}

func TestVirtualDatasetCycle(t *testing.T) {
	f, err := Create(tempFile(t, "cycle.h5"))
	require.NoError(t, err)
	defer f.Close()

	ds, err := f.Root().CreateVirtualDataset("loop", VirtualLayout{
		Dims: []uint64{2},
		Mappings: []VirtualMapping{{
			SourceFile: ".", SourceDataset: "loop",
			SourceSelection:  SelectAll(),
			VirtualSelection: SelectAll(),
		}},
	})
	require.NoError(t, err)

	_, err = ds.ReadFloat64()
	assert.ErrorContains(t, err, "maps onto itself")
}

func TestVirtualLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		mapping VirtualMapping
	}{
		{"outside", VirtualMapping{
			SourceFile: "a.h5", SourceDataset: "data",
			SourceSelection:  SelectAll(),
			VirtualSelection: SelectBlock([]uint64{0, 4}, []uint64{3, 2}),
		}},
		{"count mismatch", VirtualMapping{
			SourceFile: "a.h5", SourceDataset: "data",
			SourceSelection:  SelectBlock([]uint64{0}, []uint64{5}),
			VirtualSelection: SelectBlock([]uint64{0, 0}, []uint64{3, 2}),
		}},
		{"no source", VirtualMapping{
			SourceSelection:  SelectAll(),
			VirtualSelection: SelectAll(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vl := VirtualLayout{Dims: []uint64{3, 5}, Mappings: []VirtualMapping{tt.mapping}}
			assert.Error(t, vl.Validate())
		})
	}

	ok := VirtualLayout{Dims: []uint64{3, 5}, Mappings: columnMappings()}
	assert.NoError(t, ok.Validate())
}
