package heap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/internal/binary"
)

func TestLocalHeapString(t *testing.T) {
	h := &LocalHeap{data: []byte("hello\x00world\x00test\x00\x00\x00")}
	tests := []struct {
		offset uint64
		want   string
	}{
		{0, "hello"},
		{6, "world"},
		{12, "test"},
		{17, ""},
		{100, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.String(tt.offset), "offset %d", tt.offset)
	}
	assert.Equal(t, "noterm", (&LocalHeap{data: []byte("noterm")}).String(0))
}

func TestReadLocal(t *testing.T) {
	cfg := binary.DefaultConfig()
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, cfg)
	require.NoError(t, w.WriteBytes(localSignature))
	require.NoError(t, w.WriteZeros(4))
	require.NoError(t, w.WriteLength(16))
	require.NoError(t, w.WriteLength(1))
	require.NoError(t, w.WriteOffset(64))
	require.NoError(t, w.At(64).WriteBytes([]byte("\x00data\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")))

	h, err := ReadLocal(binary.NewReader(bytes.NewReader(buf.Bytes()), cfg), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), h.DataAddress)
	assert.Equal(t, "data", h.String(1))
}

func TestCollectionRoundTrip(t *testing.T) {
	cfg := binary.DefaultConfig()
	objects := [][]byte{[]byte("first"), bytes.Repeat([]byte{7}, 16), {}}

	buf := &binary.Buffer{}
	ids, err := WriteCollection(binary.NewWriter(buf, cfg).At(256), objects)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, ID{Collection: 256, Index: 2}, ids[1])
	assert.Equal(t, 256+MinCollectionSize, buf.Len())

	c, err := ReadCollection(binary.NewReader(bytes.NewReader(buf.Bytes()), cfg), 256)
	require.NoError(t, err)
	assert.Equal(t, uint64(MinCollectionSize), c.Size)
	assert.Equal(t, 3, c.Len())
	for i, want := range objects {
		got, err := c.Object(ids[i].Index)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = c.Object(9)
	require.ErrorIs(t, err, ErrNoObject)
}

func TestCollectionGrowsPastMinimum(t *testing.T) {
	big := bytes.Repeat([]byte{1}, 5000)
	size := CollectionSize([][]byte{big}, 8)
	assert.Equal(t, uint64(16+16+5000), size)
	assert.Zero(t, size%8)

	cfg := binary.DefaultConfig()
	buf := &binary.Buffer{}
	_, err := WriteCollection(binary.NewWriter(buf, cfg), [][]byte{big})
	require.NoError(t, err)
	assert.Equal(t, int(size), buf.Len())

	c, err := ReadCollection(binary.NewReader(bytes.NewReader(buf.Bytes()), cfg), 0)
	require.Error(t, err, "address zero is never a collection")
	assert.Nil(t, c)
}

func TestReadCollectionBadSignature(t *testing.T) {
	data := make([]byte, 64)
	copy(data[8:], "XCOL")
	_, err := ReadCollection(binary.NewReader(bytes.NewReader(data), binary.DefaultConfig()), 8)
	require.ErrorContains(t, err, "signature")
}
