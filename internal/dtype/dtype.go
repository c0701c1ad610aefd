package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/robert-malhotra/h5util/internal/message"
)

// ErrUnsupported is returned for datatypes that do not convert to float64.
var ErrUnsupported = errors.New("unsupported datatype")

// Float64 returns the little-endian IEEE double datatype written for every
// new dataset.
func Float64() *message.Datatype {
	return message.NewFloatDatatype(8, message.OrderLE)
}

// ByteOrder returns the Go byte order of dt.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Check reports whether dt can be converted.
func Check(dt *message.Datatype) error {
	if dt == nil {
		return fmt.Errorf("%w: missing datatype", ErrUnsupported)
	}
	switch dt.Class {
	case message.ClassFixedPoint:
		switch dt.Size {
		case 1, 2, 4, 8:
			return nil
		}
	case message.ClassFloatPoint:
		if dt.ByteOrder > message.OrderBE {
			return fmt.Errorf("%w: VAX float order", ErrUnsupported)
		}
		switch dt.Size {
		case 4, 8:
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, dt)
}

// Decode converts packed elements of type dt into float64 values.
func Decode(dt *message.Datatype, data []byte) ([]float64, error) {
	if err := Check(dt); err != nil {
		return nil, err
	}
	size := int(dt.Size)
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %d byte elements", len(data), size)
	}
	order := ByteOrder(dt)
	out := make([]float64, len(data)/size)
	for i := range out {
		out[i] = decodeOne(dt, order, data[i*size:(i+1)*size])
	}
	return out, nil
}

func decodeOne(dt *message.Datatype, order binary.ByteOrder, b []byte) float64 {
	if dt.Class == message.ClassFloatPoint {
		if len(b) == 4 {
			return float64(math.Float32frombits(order.Uint32(b)))
		}
		return math.Float64frombits(order.Uint64(b))
	}
	var u uint64
	switch len(b) {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(order.Uint16(b))
	case 4:
		u = uint64(order.Uint32(b))
	case 8:
		u = order.Uint64(b)
	}
	if !dt.Signed {
		return float64(u)
	}
	// sign-extend from the element width
	shift := 64 - 8*uint(len(b))
	return float64(int64(u<<shift) >> shift)
}

// Encode packs values as elements of type dt. Integer targets truncate
// toward zero.
func Encode(dt *message.Datatype, values []float64) ([]byte, error) {
	if err := Check(dt); err != nil {
		return nil, err
	}
	size := int(dt.Size)
	order := ByteOrder(dt)
	out := make([]byte, len(values)*size)
	for i, v := range values {
		b := out[i*size : (i+1)*size]
		if dt.Class == message.ClassFloatPoint {
			if size == 4 {
				order.PutUint32(b, math.Float32bits(float32(v)))
			} else {
				order.PutUint64(b, math.Float64bits(v))
			}
			continue
		}
		var u uint64
		if dt.Signed {
			u = uint64(int64(v))
		} else {
			u = uint64(v)
		}
		switch size {
		case 1:
			b[0] = byte(u)
		case 2:
			order.PutUint16(b, uint16(u))
		case 4:
			order.PutUint32(b, uint32(u))
		case 8:
			order.PutUint64(b, u)
		}
	}
	return out, nil
}

// Convert re-encodes packed elements of type from as type to.
func Convert(data []byte, from, to *message.Datatype) ([]byte, error) {
	if from.Equal(to) {
		return data, nil
	}
	values, err := Decode(from, data)
	if err != nil {
		return nil, err
	}
	return Encode(to, values)
}
