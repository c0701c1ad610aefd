package layout

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/dtype"
	"github.com/robert-malhotra/h5util/internal/heap"
	"github.com/robert-malhotra/h5util/internal/message"
)

func seq(from, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(from + i)
	}
	return out
}

func encode(t *testing.T, dt *message.Datatype, values []float64) []byte {
	t.Helper()
	data, err := dtype.Encode(dt, values)
	require.NoError(t, err)
	return data
}

func decode(t *testing.T, data []byte) []float64 {
	t.Helper()
	values, err := dtype.Decode(dtype.Float64(), data)
	require.NoError(t, err)
	return values
}

func storage(dims []uint64, lay *message.DataLayout) Storage {
	return Storage{Layout: lay, Space: message.NewDataspace(dims), Type: dtype.Float64()}
}

func fill(t *testing.T, v float64) *message.FillValue {
	return message.NewFillValue(encode(t, dtype.Float64(), []float64{v}))
}

func reader(buf *binary.Buffer) *binary.Reader {
	return binary.NewReader(bytes.NewReader(buf.Bytes()), binary.DefaultConfig())
}

func TestCompactSlice(t *testing.T) {
	s := storage([]uint64{2, 3}, &message.DataLayout{
		Class:       message.LayoutCompact,
		CompactData: encode(t, dtype.Float64(), seq(0, 6)),
	})
	l, err := New(nil, s, nil)
	require.NoError(t, err)
	assert.Equal(t, message.LayoutCompact, l.Class())

	data, err := l.ReadSlice([]uint64{0, 1}, []uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4, 5}, decode(t, data))
}

func TestContiguous(t *testing.T) {
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, binary.DefaultConfig()).At(0x100)
	require.NoError(t, w.WriteBytes(encode(t, dtype.Float64(), seq(0, 12))))

	l, err := New(reader(buf), storage([]uint64{3, 4}, message.NewContiguousLayout(0x100, 96)), nil)
	require.NoError(t, err)

	tests := []struct {
		name         string
		start, count []uint64
		want         []float64
	}{
		{"all", []uint64{0, 0}, []uint64{3, 4}, seq(0, 12)},
		{"rows", []uint64{1, 0}, []uint64{2, 4}, seq(4, 8)},
		{"columns", []uint64{0, 1}, []uint64{3, 2}, []float64{1, 2, 5, 6, 9, 10}},
		{"single", []uint64{2, 3}, []uint64{1, 1}, []float64{11}},
		{"empty", []uint64{0, 4}, []uint64{3, 0}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := l.ReadSlice(tt.start, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decode(t, data))
		})
	}

	_, err = l.ReadSlice([]uint64{0, 3}, []uint64{3, 2})
	assert.Error(t, err)
	_, err = l.ReadSlice([]uint64{0}, []uint64{3})
	assert.Error(t, err)
}

func TestContiguousUnallocatedReadsFill(t *testing.T) {
	s := storage([]uint64{2, 2}, message.NewContiguousLayout(binary.Undefined(8), 32))
	s.Fill = fill(t, 7)
	l, err := New(reader(&binary.Buffer{}), s, nil)
	require.NoError(t, err)

	data, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7, 7}, decode(t, data))
}

func chunkKey(t *testing.T, w *binary.Writer, size uint32, offsets ...uint64) {
	t.Helper()
	require.NoError(t, w.WriteUint32(size))
	require.NoError(t, w.WriteUint32(0))
	for _, o := range offsets {
		require.NoError(t, w.WriteUint64(o))
	}
}

// 4x6 dataset in 2x3 chunks; the chunk at (2, 3) is never written.
func TestChunkedBTree(t *testing.T) {
	cfg := binary.DefaultConfig()
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, cfg).At(0x40)
	require.NoError(t, w.WriteBytes([]byte("TREE")))
	require.NoError(t, w.WriteUint8(1))
	require.NoError(t, w.WriteUint8(0))
	require.NoError(t, w.WriteUint16(3))
	require.NoError(t, w.WriteUndefinedOffset())
	require.NoError(t, w.WriteUndefinedOffset())

	full := seq(0, 24)
	chunkAt := func(r0, c0 uint64) []float64 {
		var out []float64
		for r := r0; r < r0+2; r++ {
			out = append(out, full[r*6+c0:r*6+c0+3]...)
		}
		return out
	}
	offsets := [][2]uint64{{0, 0}, {0, 3}, {2, 0}}
	for i, off := range offsets {
		addr := uint64(0x400 + i*0x40)
		chunkKey(t, w, 48, off[0], off[1], 0)
		require.NoError(t, w.WriteOffset(addr))
		require.NoError(t, binary.NewWriter(buf, cfg).At(int64(addr)).WriteBytes(
			encode(t, dtype.Float64(), chunkAt(off[0], off[1]))))
	}
	chunkKey(t, w, 0, 4, 6, 0)

	s := storage([]uint64{4, 6}, &message.DataLayout{
		Version:        3,
		Class:          message.LayoutChunked,
		ChunkDims:      []uint64{2, 3},
		ChunkIndexAddr: 0x40,
	})
	s.Fill = fill(t, -1)
	l, err := New(reader(buf), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, l.(*Chunked).ChunkDims())

	data, err := l.Read()
	require.NoError(t, err)
	want := append([]float64(nil), full...)
	for r := 2; r < 4; r++ {
		for c := 3; c < 6; c++ {
			want[r*6+c] = -1
		}
	}
	assert.Equal(t, want, decode(t, data))

	data, err = l.ReadSlice([]uint64{1, 2}, []uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 9, 14, -1}, decode(t, data))
}

func TestChunkedSingleDeflated(t *testing.T) {
	raw := encode(t, dtype.Float64(), seq(1, 6))
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	buf := &binary.Buffer{}
	require.NoError(t, binary.NewWriter(buf, binary.DefaultConfig()).At(0x80).WriteBytes(z.Bytes()))

	s := storage([]uint64{2, 3}, &message.DataLayout{
		Version:         4,
		Class:           message.LayoutChunked,
		ChunkDims:       []uint64{2, 3},
		ChunkIndexType:  message.ChunkIndexSingleChunk,
		ChunkIndexAddr:  0x80,
		ChunkFlags:      0x02,
		SingleChunkSize: uint64(z.Len()),
	})
	s.Filters = &message.FilterPipeline{Version: 2, Filters: []message.FilterInfo{
		{ID: message.FilterDeflate, ClientData: []uint32{6}},
	}}
	l, err := New(reader(buf), s, nil)
	require.NoError(t, err)

	data, err := l.ReadSlice([]uint64{0, 2}, []uint64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, decode(t, data))
}

func TestChunkedUnsupportedIndex(t *testing.T) {
	s := storage([]uint64{4}, &message.DataLayout{
		Version:        4,
		Class:          message.LayoutChunked,
		ChunkDims:      []uint64{2},
		ChunkIndexType: message.ChunkIndexExtensible,
	})
	l, err := New(reader(&binary.Buffer{}), s, nil)
	require.NoError(t, err)
	_, err = l.Read()
	require.ErrorIs(t, err, ErrUnsupported)
}

type memSource struct {
	*Compact
	dt *message.Datatype
}

func (m memSource) Dims() []uint64              { return m.dims }
func (m memSource) Datatype() *message.Datatype { return m.dt }

func newMemSource(t *testing.T, dt *message.Datatype, dims []uint64, values []float64) memSource {
	return memSource{
		Compact: &Compact{base: base{dims: dims, elem: uint64(dt.Size)}, data: encode(t, dt, values)},
		dt:      dt,
	}
}

type fakeResolver struct {
	sources map[string]Source
	calls   []string
}

var errMissing = errors.New("missing")

func (f *fakeResolver) ResolveSource(file, dataset string) (Source, error) {
	f.calls = append(f.calls, file)
	src, ok := f.sources[file+":"+dataset]
	if !ok {
		return nil, errMissing
	}
	return src, nil
}

func virtualStorage(t *testing.T, dims []uint64, mappings []message.VirtualMapping) (*binary.Reader, Storage) {
	t.Helper()
	cfg := binary.DefaultConfig()
	enc, err := message.EncodeMappings(mappings, cfg)
	require.NoError(t, err)

	buf := &binary.Buffer{}
	ids, err := heap.WriteCollection(binary.NewWriter(buf, cfg).At(0x30), [][]byte{enc})
	require.NoError(t, err)
	return reader(buf), storage(dims, message.NewVirtualLayout(ids[0].Collection, ids[0].Index))
}

// 3x5 virtual dataset: a.h5 fills columns 0-1, b.h5 columns 2-3 and
// column 4 is left to the fill value.
func TestVirtual(t *testing.T) {
	mappings := []message.VirtualMapping{
		{
			SourceFile: "a.h5", SourceDataset: "data",
			SourceSelection:  message.SelectAll(),
			VirtualSelection: message.SelectBlock([]uint64{0, 0}, []uint64{3, 2}),
		},
		{
			SourceFile: "b.h5", SourceDataset: "data",
			SourceSelection:  message.SelectAll(),
			VirtualSelection: message.SelectBlock([]uint64{0, 2}, []uint64{3, 2}),
		},
	}
	r, s := virtualStorage(t, []uint64{3, 5}, mappings)
	s.Fill = fill(t, -1)

	res := &fakeResolver{sources: map[string]Source{
		"a.h5:data": newMemSource(t, message.NewFixedPointDatatype(4, true, message.OrderLE), []uint64{3, 2}, []float64{0, 1, 10, 11, 20, 21}),
		"b.h5:data": newMemSource(t, dtype.Float64(), []uint64{3, 2}, []float64{2, 3, 12, 13, 22, 23}),
	}}
	l, err := New(r, s, res)
	require.NoError(t, err)
	assert.Equal(t, mappings, l.(*Virtual).Mappings())

	data, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{
		0, 1, 2, 3, -1,
		10, 11, 12, 13, -1,
		20, 21, 22, 23, -1,
	}, decode(t, data))

	res.calls = nil
	data, err = l.ReadSlice([]uint64{1, 3}, []uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{13, -1, 23, -1}, decode(t, data))
	assert.Equal(t, []string{"b.h5"}, res.calls)
}

func TestVirtualReshapedBlock(t *testing.T) {
	mappings := []message.VirtualMapping{{
		SourceFile: ".", SourceDataset: "flat",
		SourceSelection:  message.SelectBlock([]uint64{2}, []uint64{6}),
		VirtualSelection: message.SelectAll(),
	}}
	r, s := virtualStorage(t, []uint64{2, 3}, mappings)
	res := &fakeResolver{sources: map[string]Source{
		".:flat": newMemSource(t, dtype.Float64(), []uint64{8}, seq(0, 8)),
	}}
	l, err := New(r, s, res)
	require.NoError(t, err)

	data, err := l.ReadSlice([]uint64{0, 1}, []uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 6, 7}, decode(t, data))
}

func TestVirtualSourceErrors(t *testing.T) {
	mappings := []message.VirtualMapping{{
		SourceFile: "gone.h5", SourceDataset: "data",
		SourceSelection:  message.SelectAll(),
		VirtualSelection: message.SelectAll(),
	}}
	r, s := virtualStorage(t, []uint64{2, 2}, mappings)

	l, err := New(r, s, &fakeResolver{})
	require.NoError(t, err)
	_, err = l.Read()
	require.ErrorIs(t, err, errMissing)

	res := &fakeResolver{sources: map[string]Source{
		"gone.h5:data": newMemSource(t, dtype.Float64(), []uint64{3}, seq(0, 3)),
	}}
	l, err = New(r, s, res)
	require.NoError(t, err)
	_, err = l.Read()
	assert.ErrorContains(t, err, "source selects 3 elements")
}
