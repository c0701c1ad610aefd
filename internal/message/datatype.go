package message

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// DatatypeClass is the HDF5 datatype class.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

var classNames = map[DatatypeClass]string{
	ClassFixedPoint: "integer",
	ClassFloatPoint: "float",
	ClassTime:       "time",
	ClassString:     "string",
	ClassBitfield:   "bitfield",
	ClassOpaque:     "opaque",
	ClassCompound:   "compound",
	ClassReference:  "reference",
	ClassEnum:       "enum",
	ClassVarLen:     "vlen",
	ClassArray:      "array",
}

func (c DatatypeClass) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder of a numeric datatype.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// Datatype is message 0x0003. Numeric classes are decoded fully; other
// classes keep their raw property bytes.
type Datatype struct {
	Version   uint8
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32
	ByteOrder ByteOrder
	Signed    bool

	BitOffset    uint16
	BitPrecision uint16

	Properties []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsNumeric reports whether values convert to float64.
func (m *Datatype) IsNumeric() bool {
	return m.Class == ClassFixedPoint || m.Class == ClassFloatPoint
}

// Equal reports whether two datatypes have the same memory representation.
func (m *Datatype) Equal(o *Datatype) bool {
	return m.Class == o.Class && m.Size == o.Size && m.ByteOrder == o.ByteOrder && m.Signed == o.Signed
}

func (m *Datatype) String() string {
	order := "LE"
	if m.ByteOrder == OrderBE {
		order = "BE"
	}
	switch m.Class {
	case ClassFixedPoint:
		sign := "u"
		if m.Signed {
			sign = ""
		}
		return fmt.Sprintf("%sint%d %s", sign, m.Size*8, order)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d %s", m.Size*8, order)
	}
	return fmt.Sprintf("%s(%d bytes)", m.Class, m.Size)
}

// NewFloatDatatype returns an IEEE 754 float datatype of 4 or 8 bytes.
func NewFloatDatatype(size uint32, order ByteOrder) *Datatype {
	var sign uint32
	var props []byte
	switch size {
	case 4:
		sign = 31
		// offset, precision, exponent location/size, mantissa location/size, bias
		props = []byte{0, 0, 32, 0, 23, 8, 0, 23, 127, 0, 0, 0}
	default:
		size, sign = 8, 63
		props = []byte{0, 0, 64, 0, 52, 11, 0, 52, 0xff, 0x03, 0, 0}
	}
	return &Datatype{
		Version: 1,
		Class:   ClassFloatPoint,
		// byte order, implied mantissa MSB, sign bit position
		ClassBits:    uint32(order) | 2<<4 | sign<<8,
		Size:         size,
		ByteOrder:    order,
		Signed:       true,
		BitPrecision: uint16(size * 8),
		Properties:   props,
	}
}

// NewFixedPointDatatype returns an integer datatype.
func NewFixedPointDatatype(size uint32, signed bool, order ByteOrder) *Datatype {
	bits := uint32(order)
	if signed {
		bits |= 0x08
	}
	return &Datatype{
		Version:      1,
		Class:        ClassFixedPoint,
		ClassBits:    bits,
		Size:         size,
		ByteOrder:    order,
		Signed:       signed,
		BitPrecision: uint16(size * 8),
	}
}

// Serialize writes a version 1 numeric datatype message.
func (m *Datatype) Serialize(w *binary.Writer) error {
	if !m.IsNumeric() {
		return fmt.Errorf("serializing %s datatype is not supported", m.Class)
	}
	if err := w.WriteUint8(uint8(m.Class) | 1<<4); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(m.ClassBits), 3); err != nil {
		return err
	}
	if err := w.WriteUint32(m.Size); err != nil {
		return err
	}
	if m.Class == ClassFloatPoint {
		return w.WriteBytes(m.Properties)
	}
	if err := w.WriteUint16(m.BitOffset); err != nil {
		return err
	}
	return w.WriteUint16(m.BitPrecision)
}

func parseDatatype(r *binary.Reader, n int) (*Datatype, error) {
	head, err := r.ReadBytes(8)
	if err != nil {
		return nil, ErrTruncated
	}
	dt := &Datatype{
		Version:   head[0] >> 4,
		Class:     DatatypeClass(head[0] & 0x0F),
		ClassBits: uint32(head[1]) | uint32(head[2])<<8 | uint32(head[3])<<16,
	}
	dt.Size = uint32(binary.DecodeUint(r.ByteOrder(), head[4:8]))
	if dt.Properties, err = r.ReadBytes(n - 8); err != nil {
		return nil, ErrTruncated
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield, ClassEnum:
		dt.ByteOrder = ByteOrder(dt.ClassBits & 0x01)
		dt.Signed = dt.ClassBits&0x08 != 0
	case ClassFloatPoint:
		// Bit 6 together with bit 0 marks VAX order, which is not supported
		// by the converters and surfaces there.
		dt.ByteOrder = ByteOrder(dt.ClassBits&0x01 | (dt.ClassBits>>5)&0x02)
		dt.Signed = true
	}
	if dt.IsNumeric() && len(dt.Properties) >= 4 {
		dt.BitOffset = uint16(binary.DecodeUint(r.ByteOrder(), dt.Properties[0:2]))
		dt.BitPrecision = uint16(binary.DecodeUint(r.ByteOrder(), dt.Properties[2:4]))
	}
	return dt, nil
}
