package object

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	h5bin "github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/message"
)

func writeAt(t *testing.T, offset int64, msgs []message.Serializable, minChunk int) []byte {
	t.Helper()
	buf := &h5bin.Buffer{}
	w := h5bin.NewWriter(buf, h5bin.DefaultConfig()).At(offset)
	n, err := Write(w, msgs, minChunk)
	require.NoError(t, err)

	size, err := Size(msgs, h5bin.DefaultConfig(), minChunk)
	require.NoError(t, err)
	assert.Equal(t, int64(size), n)
	return buf.Bytes()
}

func read(t *testing.T, data []byte, addr uint64) (*Header, error) {
	t.Helper()
	return Read(h5bin.NewReader(bytes.NewReader(data), h5bin.DefaultConfig()), addr)
}

func TestDatasetHeaderRoundTrip(t *testing.T) {
	msgs := DatasetMessages(
		message.NewDataspace([]uint64{4, 3}),
		message.NewFloatDatatype(8, message.OrderLE),
		message.NewFillValue(make([]byte, 8)),
		message.NewContiguousLayout(0x400, 96),
	)
	data := writeAt(t, 48, msgs, 0)

	hdr, err := read(t, data, 48)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), hdr.Version)
	assert.True(t, hdr.IsDataset())
	assert.False(t, hdr.IsGroup())
	assert.Equal(t, []uint64{4, 3}, hdr.Dataspace().Dimensions)
	assert.Equal(t, message.ClassFloatPoint, hdr.Datatype().Class)
	assert.NotNil(t, hdr.FillValue())
	assert.Equal(t, uint64(0x400), hdr.DataLayout().Address)
	assert.Nil(t, hdr.FilterPipeline())
}

func TestGroupHeaderPadding(t *testing.T) {
	tests := []struct {
		name     string
		minChunk int
	}{
		{"unpadded", 0},
		{"nil message padding", MinGroupChunkSize},
		{"gap shorter than a message header", 0},
	}
	links := []*message.Link{message.NewHardLink("a", 0x100), message.NewHardLink("bb", 0x200)}
	msgs := GroupMessages(links, 8)
	_, total, err := encodeAll(msgs, h5bin.DefaultConfig())
	require.NoError(t, err)
	tests[2].minChunk = total + 3

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := writeAt(t, 0, msgs, tt.minChunk)
			hdr, err := read(t, data, 0)
			require.NoError(t, err)
			assert.True(t, hdr.IsGroup())
			got := hdr.Links()
			require.Len(t, got, 2)
			assert.Equal(t, "bb", got[1].Name)
			assert.Equal(t, uint64(0x200), got[1].ObjectAddress)
		})
	}
}

func TestChecksumMismatch(t *testing.T) {
	msgs := GroupMessages(nil, 8)
	data := writeAt(t, 0, msgs, 0)
	data[len(data)-6] ^= 0x01

	_, err := read(t, data, 0)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestInvalidHeader(t *testing.T) {
	_, err := read(t, []byte{9, 9, 9, 9, 9, 9, 9, 9}, 0)
	require.ErrorIs(t, err, ErrInvalidHeader)
}

// v1Message lays out one version 1 message with its body padded to 8.
func v1Message(typ message.Type, body []byte) []byte {
	for len(body)%8 != 0 {
		body = append(body, 0)
	}
	out := binary.LittleEndian.AppendUint16(nil, uint16(typ))
	out = binary.LittleEndian.AppendUint16(out, uint16(len(body)))
	out = append(out, 0, 0, 0, 0)
	return append(out, body...)
}

func TestVersion1WithContinuation(t *testing.T) {
	cfg := h5bin.DefaultConfig()
	space, err := message.Encode(message.NewDataspace([]uint64{5}), cfg)
	require.NoError(t, err)
	layout, err := message.Encode(message.NewContiguousLayout(0x900, 40), cfg)
	require.NoError(t, err)

	contBlock := v1Message(message.TypeDataLayout, layout)
	const contAddr = 256
	cont, err := message.Encode(&message.Continuation{Offset: contAddr, Length: uint64(len(contBlock))}, cfg)
	require.NoError(t, err)

	body := append(v1Message(message.TypeDataspace, space), v1Message(message.TypeContinuation, cont)...)
	prefix := []byte{1, 0, 2, 0}
	prefix = binary.LittleEndian.AppendUint32(prefix, 1)
	prefix = binary.LittleEndian.AppendUint32(prefix, uint32(len(body)))
	prefix = append(prefix, 0, 0, 0, 0)

	file := make([]byte, contAddr+len(contBlock))
	copy(file, append(prefix, body...))
	copy(file[contAddr:], contBlock)

	hdr, err := read(t, file, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), hdr.Version)
	assert.Equal(t, uint32(1), hdr.RefCount)
	assert.Equal(t, []uint64{5}, hdr.Dataspace().Dimensions)
	assert.Equal(t, uint64(0x900), hdr.DataLayout().Address)
	assert.Nil(t, hdr.Message(message.TypeContinuation))
}
