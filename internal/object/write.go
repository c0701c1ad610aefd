package object

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/message"
)

// MinGroupChunkSize is the smallest chunk 0 written for group headers,
// matching what h5py produces for an empty group.
const MinGroupChunkSize = 120

// messageHeaderLen is type(1) + size(2) + flags(1).
const messageHeaderLen = 4

// encoded is a serialized message ready to be placed in a chunk.
type encoded struct {
	typ  message.Type
	data []byte
}

func encodeAll(messages []message.Serializable, cfg binary.Config) ([]encoded, int, error) {
	out := make([]encoded, 0, len(messages))
	total := 0
	for _, m := range messages {
		data, err := message.Encode(m, cfg)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding message 0x%04x: %w", uint16(m.Type()), err)
		}
		if len(data) > 0xFFFF {
			return nil, 0, fmt.Errorf("message 0x%04x is %d bytes, larger than a header message can hold", uint16(m.Type()), len(data))
		}
		out = append(out, encoded{m.Type(), data})
		total += messageHeaderLen + len(data)
	}
	return out, total, nil
}

// chunkSizeField returns the width of the chunk 0 size field and the
// header flag bits encoding it.
func chunkSizeField(size int) (int, uint8) {
	switch {
	case size <= 0xFF:
		return 1, 0
	case size <= 0xFFFF:
		return 2, 1
	case size <= 0xFFFFFFFF:
		return 4, 2
	}
	return 8, 3
}

// Size returns the number of bytes Write produces for messages.
func Size(messages []message.Serializable, cfg binary.Config, minChunk int) (int, error) {
	_, total, err := encodeAll(messages, cfg)
	if err != nil {
		return 0, err
	}
	chunk := max(total, minChunk)
	width, _ := chunkSizeField(chunk)
	return 4 + 1 + 1 + width + chunk + 4, nil
}

// Write emits a version 2 object header holding messages at the writer's
// position. Chunk 0 is padded up to minChunk bytes. It returns the number
// of bytes written.
func Write(w *binary.Writer, messages []message.Serializable, minChunk int) (int64, error) {
	enc, total, err := encodeAll(messages, w.Config())
	if err != nil {
		return 0, err
	}
	chunk := max(total, minChunk)
	width, flags := chunkSizeField(chunk)

	buf := &binary.Buffer{}
	bw := binary.NewWriter(buf, w.Config())
	if err := bw.WriteBytes(SignatureV2); err != nil {
		return 0, err
	}
	if err := bw.WriteUint8(2); err != nil {
		return 0, err
	}
	if err := bw.WriteUint8(flags); err != nil {
		return 0, err
	}
	if err := bw.WriteUintN(uint64(chunk), width); err != nil {
		return 0, err
	}
	for _, e := range enc {
		if err := writeMessage(bw, e.typ, e.data); err != nil {
			return 0, err
		}
	}
	if pad := chunk - total; pad >= messageHeaderLen {
		if err := writeMessage(bw, message.TypeNIL, make([]byte, pad-messageHeaderLen)); err != nil {
			return 0, err
		}
	} else if pad > 0 {
		if err := bw.WriteZeros(pad); err != nil {
			return 0, err
		}
	}
	if err := bw.WriteUint32(binary.Lookup3Checksum(buf.Bytes())); err != nil {
		return 0, err
	}

	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

func writeMessage(w *binary.Writer, typ message.Type, data []byte) error {
	if err := w.WriteUint8(uint8(typ)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(len(data))); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

// GroupMessages returns the messages of a compact group holding links.
func GroupMessages(links []*message.Link, offsetSize int) []message.Serializable {
	out := make([]message.Serializable, 0, len(links)+2)
	out = append(out, message.NewLinkInfo(offsetSize), &message.GroupInfo{})
	for _, l := range links {
		out = append(out, l)
	}
	return out
}

// DatasetMessages returns the messages of a dataset header. fill may be nil.
func DatasetMessages(space *message.Dataspace, dtype *message.Datatype, fill *message.FillValue, layout *message.DataLayout) []message.Serializable {
	out := []message.Serializable{space, dtype}
	if fill != nil {
		out = append(out, fill)
	}
	return append(out, layout)
}
