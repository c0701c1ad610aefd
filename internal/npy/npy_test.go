package npy

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/internal/dtype"
	"github.com/robert-malhotra/h5util/internal/message"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.npy")
	data := []float64{1.5, -2, 3, 4, 5, 6}
	require.NoError(t, WriteFile(path, []int{2, 3}, data))

	shape, got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, shape)
	assert.Equal(t, data, got)
}

func TestEncodeHeader(t *testing.T) {
	tests := []struct {
		shape []int
		dict  string
	}{
		{[]int{3}, "{'descr': '<f8', 'fortran_order': False, 'shape': (3,), }"},
		{[]int{2, 3}, "{'descr': '<f8', 'fortran_order': False, 'shape': (2, 3), }"},
		{[]int{}, "{'descr': '<f8', 'fortran_order': False, 'shape': (), }"},
	}
	for _, tt := range tests {
		head := EncodeHeader(Header{Descr: "<f8", Shape: tt.shape})
		assert.Zero(t, len(head)%headerUnits)
		assert.Equal(t, Magic, head[:6])
		assert.Equal(t, []byte{1, 0}, head[6:8])
		n := int(head[8]) | int(head[9])<<8
		assert.Equal(t, len(head)-10, n)
		assert.True(t, bytes.HasPrefix(head[10:], []byte(tt.dict)))
		assert.Equal(t, byte('\n'), head[len(head)-1])

		h, err := ReadHeader(bytes.NewReader(head))
		require.NoError(t, err)
		assert.Equal(t, "<f8", h.Descr)
		assert.False(t, h.FortranOrder)
		assert.Equal(t, len(tt.shape), len(h.Shape))
		assert.Equal(t, Header{Shape: tt.shape}.NumElements(), h.NumElements())
	}
}

// npyBytes builds a file the way numpy would for an arbitrary dtype.
func npyBytes(t *testing.T, h Header, dt *message.Datatype, values []float64) []byte {
	t.Helper()
	raw, err := dtype.Encode(dt, values)
	require.NoError(t, err)
	return append(EncodeHeader(h), raw...)
}

func TestReadDtypes(t *testing.T) {
	values := []float64{0, 1, 2, 127}
	for _, descr := range []string{"<f4", ">f8", "<i1", ">i2", "<i4", "<i8", "|u1", ">u2", "<u4", "<u8"} {
		t.Run(descr, func(t *testing.T) {
			dt, err := Datatype(descr)
			require.NoError(t, err)
			b := npyBytes(t, Header{Descr: descr, Shape: []int{4}}, dt, values)

			shape, got, err := Read(bytes.NewReader(b))
			require.NoError(t, err)
			assert.Equal(t, []int{4}, shape)
			assert.Equal(t, values, got)
		})
	}
}

func TestReadFortranOrder(t *testing.T) {
	// [[1 2 3] [4 5 6]] stored column by column
	b := npyBytes(t, Header{Descr: "<f8", FortranOrder: true, Shape: []int{2, 3}},
		dtype.Float64(), []float64{1, 4, 2, 5, 3, 6})

	shape, got, err := Read(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got)
}

func TestReadErrors(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("not numpy at all")))
	assert.ErrorIs(t, err, ErrNotNPY)

	for _, descr := range []string{"<c16", "<f2", "S5", "<i3"} {
		_, err = Datatype(descr)
		assert.ErrorIs(t, err, ErrUnsupported, descr)
	}
	_, _, err = Read(bytes.NewReader(EncodeHeader(Header{Descr: "<c16", Shape: []int{1}})))
	assert.Error(t, err)

	b := EncodeHeader(Header{Descr: "<f8", Shape: []int{4}})
	_, _, err = Read(bytes.NewReader(append(b, make([]byte, 8)...)))
	assert.Error(t, err, "truncated data")

	assert.Error(t, Write(&bytes.Buffer{}, []int{2, 2}, []float64{1}))
}
