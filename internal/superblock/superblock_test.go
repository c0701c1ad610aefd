package superblock

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/h5util/internal/binary"
)

func TestReadNotHDF5(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 4096)))
	require.ErrorIs(t, err, ErrNotHDF5)

	_, err = Read(bytes.NewReader([]byte("short")))
	require.ErrorIs(t, err, ErrNotHDF5)
}

func TestReadUnsupportedVersion(t *testing.T) {
	data := make([]byte, 256)
	copy(data, Signature)
	data[8] = 99
	_, err := Read(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, width := range []int{4, 8} {
		sb := New(width, width)
		sb.EOFAddress = 4096
		sb.RootGroupAddress = uint64(sb.Size())

		buf := &binpkg.Buffer{}
		require.NoError(t, sb.Write(binpkg.NewWriter(buf, sb.Config())))
		assert.Equal(t, sb.Size(), buf.Len())

		got, err := Read(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, uint8(3), got.Version)
		assert.Equal(t, uint8(width), got.OffsetSize)
		assert.Equal(t, uint64(4096), got.EOFAddress)
		assert.Equal(t, uint64(sb.Size()), got.RootGroupAddress)
		assert.Equal(t, binpkg.Undefined(width), got.ExtensionAddress)
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	sb := New(8, 8)
	buf := &binpkg.Buffer{}
	require.NoError(t, sb.Write(binpkg.NewWriter(buf, sb.Config())))
	data := buf.Bytes()
	data[20] ^= 0xFF

	_, err := Read(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrInvalidSuperblock)
}

func TestReadAtUserBlockOffset(t *testing.T) {
	sb := New(8, 8)
	sb.RootGroupAddress = 48
	buf := &binpkg.Buffer{}
	require.NoError(t, sb.Write(binpkg.NewWriter(buf, sb.Config()).At(512)))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, int64(512), got.FileOffset)
	assert.Equal(t, uint64(48), got.RootGroupAddress)
}

// v0Superblock builds the layout h5py writes with default settings.
func v0Superblock(rootAddr uint64) []byte {
	var buf bytes.Buffer
	buf.Write(Signature)
	buf.Write([]byte{0, 0, 0, 0, 0, 8, 8, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	for _, addr := range []uint64{0, ^uint64(0), 2048, ^uint64(0)} {
		binary.Write(&buf, binary.LittleEndian, addr)
	}
	binary.Write(&buf, binary.LittleEndian, uint64(0))
	binary.Write(&buf, binary.LittleEndian, rootAddr)
	buf.Write(make([]byte, 24))
	return buf.Bytes()
}

func TestReadV0(t *testing.T) {
	got, err := Read(bytes.NewReader(v0Superblock(96)))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), got.Version)
	assert.Equal(t, uint16(4), got.GroupLeafNodeK)
	assert.Equal(t, uint16(16), got.GroupInternalNodeK)
	assert.Equal(t, uint64(2048), got.EOFAddress)
	assert.Equal(t, uint64(96), got.RootGroupAddress)

	err = got.Write(binpkg.NewWriter(&binpkg.Buffer{}, got.Config()))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}
