package message

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// Type identifies a header message.
type Type uint16

const (
	TypeNIL            Type = 0x0000
	TypeDataspace      Type = 0x0001
	TypeLinkInfo       Type = 0x0002
	TypeDatatype       Type = 0x0003
	TypeFillValueOld   Type = 0x0004
	TypeFillValue      Type = 0x0005
	TypeLink           Type = 0x0006
	TypeDataLayout     Type = 0x0008
	TypeGroupInfo      Type = 0x000A
	TypeFilterPipeline Type = 0x000B
	TypeAttribute      Type = 0x000C
	TypeContinuation   Type = 0x0010
	TypeSymbolTable    Type = 0x0011
	TypeModTime        Type = 0x0012
)

// ErrTruncated is returned when a message body ends before its fields do.
var ErrTruncated = errors.New("message truncated")

// Message is implemented by every parsed header message.
type Message interface {
	Type() Type
}

// Serializable messages can be written into a new object header.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
}

// Parse decodes one message body.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	r := binary.NewReader(bytes.NewReader(data), cfg)
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(r)
	case TypeDatatype:
		msg, err = parseDatatype(r, len(data))
	case TypeFillValue:
		msg, err = parseFillValue(r)
	case TypeDataLayout:
		msg, err = parseDataLayout(r, len(data))
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(r)
	case TypeLink:
		msg, err = parseLink(r)
	case TypeLinkInfo:
		msg, err = parseLinkInfo(r)
	case TypeSymbolTable:
		msg, err = parseSymbolTable(r)
	case TypeContinuation:
		msg, err = parseContinuation(r)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return msg, nil
}

// Size returns the encoded size of m under cfg.
func Size(m Serializable, cfg binary.Config) (int, error) {
	buf, err := Encode(m, cfg)
	return len(buf), err
}

// Encode serializes m into a fresh byte slice.
func Encode(m Serializable, cfg binary.Config) ([]byte, error) {
	buf := &binary.Buffer{}
	if err := m.Serialize(binary.NewWriter(buf, cfg)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unknown keeps the raw body of a message this package does not decode.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at the next chunk of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

func (m *Continuation) Serialize(w *binary.Writer) error {
	if err := w.WriteOffset(m.Offset); err != nil {
		return err
	}
	return w.WriteLength(m.Length)
}

func parseContinuation(r *binary.Reader) (*Continuation, error) {
	off, err := r.ReadOffset()
	if err != nil {
		return nil, ErrTruncated
	}
	length, err := r.ReadLength()
	if err != nil {
		return nil, ErrTruncated
	}
	return &Continuation{Offset: off, Length: length}, nil
}
