package btree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/heap"
)

func nodeHeader(t *testing.T, w *binary.Writer, kind, level uint8, entries uint16) {
	t.Helper()
	require.NoError(t, w.WriteBytes(treeSignature))
	require.NoError(t, w.WriteUint8(kind))
	require.NoError(t, w.WriteUint8(level))
	require.NoError(t, w.WriteUint16(entries))
	require.NoError(t, w.WriteUndefinedOffset())
	require.NoError(t, w.WriteUndefinedOffset())
}

func chunkKey(t *testing.T, w *binary.Writer, size uint32, offsets ...uint64) {
	t.Helper()
	require.NoError(t, w.WriteUint32(size))
	require.NoError(t, w.WriteUint32(0))
	for _, o := range offsets {
		require.NoError(t, w.WriteUint64(o))
	}
}

func TestReadChunksTwoLevels(t *testing.T) {
	cfg := binary.DefaultConfig()
	buf := &binary.Buffer{}

	// root at 0 with one child at 512; leaf holds two 4x4 chunks of a 4x8 dataset
	w := binary.NewWriter(buf, cfg)
	nodeHeader(t, w, nodeChunk, 1, 1)
	chunkKey(t, w, 128, 0, 0, 0)
	require.NoError(t, w.WriteOffset(512))
	chunkKey(t, w, 0, 4, 8, 0)

	w = w.At(512)
	nodeHeader(t, w, nodeChunk, 0, 2)
	chunkKey(t, w, 128, 0, 0, 0)
	require.NoError(t, w.WriteOffset(0x1000))
	chunkKey(t, w, 128, 0, 4, 0)
	require.NoError(t, w.WriteOffset(0x2000))
	chunkKey(t, w, 0, 4, 8, 0)

	chunks, err := ReadChunks(binary.NewReader(bytes.NewReader(buf.Bytes()), cfg), 0, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []uint64{0, 4}, chunks[1].Offset)
	assert.Equal(t, uint64(0x2000), chunks[1].Address)
	assert.Equal(t, uint32(128), chunks[1].Size)

	dims := []uint64{4, 4}
	assert.True(t, chunks[1].Contains([]uint64{3, 7}, dims))
	assert.False(t, chunks[1].Contains([]uint64{3, 3}, dims))
}

func TestReadChunksWrongNodeType(t *testing.T) {
	cfg := binary.DefaultConfig()
	buf := &binary.Buffer{}
	nodeHeader(t, binary.NewWriter(buf, cfg), nodeGroup, 0, 0)

	_, err := ReadChunks(binary.NewReader(bytes.NewReader(buf.Bytes()), cfg), 0, 2)
	require.ErrorIs(t, err, ErrInvalidNode)
}

func symbolEntry(t *testing.T, w *binary.Writer, nameOff, addr uint64, cache uint32, scratch uint32) {
	t.Helper()
	require.NoError(t, w.WriteOffset(nameOff))
	require.NoError(t, w.WriteOffset(addr))
	require.NoError(t, w.WriteUint32(cache))
	require.NoError(t, w.WriteZeros(4))
	require.NoError(t, w.WriteUint32(scratch))
	require.NoError(t, w.WriteZeros(12))
}

func TestReadGroup(t *testing.T) {
	cfg := binary.DefaultConfig()
	buf := &binary.Buffer{}

	// local heap header at 0, data at 64
	w := binary.NewWriter(buf, cfg)
	require.NoError(t, w.WriteBytes([]byte("HEAP")))
	require.NoError(t, w.WriteZeros(4))
	require.NoError(t, w.WriteLength(32))
	require.NoError(t, w.WriteLength(0))
	require.NoError(t, w.WriteOffset(64))
	require.NoError(t, w.At(64).WriteBytes([]byte("\x00data\x00link\x00/data\x00")))

	// B-tree at 128 pointing at a symbol table node at 256
	w = w.At(128)
	nodeHeader(t, w, nodeGroup, 0, 1)
	require.NoError(t, w.WriteLength(0))
	require.NoError(t, w.WriteOffset(256))
	require.NoError(t, w.WriteLength(6))

	w = w.At(256)
	require.NoError(t, w.WriteBytes([]byte("SNOD")))
	require.NoError(t, w.WriteBytes([]byte{1, 0}))
	require.NoError(t, w.WriteUint16(2))
	symbolEntry(t, w, 1, 0x800, cacheObject, 0)
	symbolEntry(t, w, 6, 0, cacheSymlink, 11)
	require.NoError(t, w.WriteZeros(64))

	r := binary.NewReader(bytes.NewReader(buf.Bytes()), cfg)
	names, err := heap.ReadLocal(r, 0)
	require.NoError(t, err)

	entries, err := ReadGroup(r, 128, names)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, GroupEntry{Name: "data", ObjectAddress: 0x800}, entries[0])
	assert.Equal(t, "link", entries[1].Name)
	assert.True(t, entries[1].IsSoft())
	assert.Equal(t, "/data", entries[1].SoftTarget)
}
