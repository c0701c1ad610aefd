package dtype

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5util/internal/message"
)

func TestDecodeIntegers(t *testing.T) {
	tests := []struct {
		name string
		dt   *message.Datatype
		data []byte
		want []float64
	}{
		{"int8", message.NewFixedPointDatatype(1, true, message.OrderLE), []byte{0xFF, 0x7F}, []float64{-1, 127}},
		{"uint8", message.NewFixedPointDatatype(1, false, message.OrderLE), []byte{0xFF, 0x01}, []float64{255, 1}},
		{"int16be", message.NewFixedPointDatatype(2, true, message.OrderBE), []byte{0xFF, 0xFE, 0x00, 0x02}, []float64{-2, 2}},
		{"int32", message.NewFixedPointDatatype(4, true, message.OrderLE), binary.LittleEndian.AppendUint32(nil, math.MaxUint32), []float64{-1}},
		{"uint64", message.NewFixedPointDatatype(8, false, message.OrderLE), binary.LittleEndian.AppendUint64(nil, 1<<40), []float64{1 << 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.dt, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float64{0, -1.5, math.Pi, 1e300}
	for _, dt := range []*message.Datatype{Float64(), message.NewFloatDatatype(8, message.OrderBE)} {
		data, err := Encode(dt, values)
		require.NoError(t, err)
		got, err := Decode(dt, data)
		require.NoError(t, err)
		assert.Equal(t, values, got)
	}

	f32 := message.NewFloatDatatype(4, message.OrderLE)
	data, err := Encode(f32, []float64{0.5, -2})
	require.NoError(t, err)
	got, err := Decode(f32, data)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -2}, got)
}

func TestConvert(t *testing.T) {
	i16 := message.NewFixedPointDatatype(2, true, message.OrderLE)
	src, err := Encode(i16, []float64{-3, 7})
	require.NoError(t, err)

	out, err := Convert(src, i16, Float64())
	require.NoError(t, err)
	got, err := Decode(Float64(), out)
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 7}, got)

	same, err := Convert(src, i16, message.NewFixedPointDatatype(2, true, message.OrderLE))
	require.NoError(t, err)
	assert.Equal(t, src, same)
}

func TestUnsupported(t *testing.T) {
	_, err := Decode(&message.Datatype{Class: message.ClassString, Size: 8}, make([]byte, 8))
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Decode(message.NewFixedPointDatatype(3, true, message.OrderLE), make([]byte, 3))
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Decode(Float64(), make([]byte, 7))
	require.Error(t, err)
}
