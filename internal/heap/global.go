package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

var globalSignature = []byte{'G', 'C', 'O', 'L'}

// MinCollectionSize is the smallest global heap collection the HDF5
// library creates.
const MinCollectionSize = 4096

// ErrNoObject is returned for an index that the collection does not hold.
var ErrNoObject = errors.New("global heap object not found")

// Collection is a global heap collection.
type Collection struct {
	Address uint64
	Size    uint64
	objects map[uint16][]byte
}

// ID locates one object in a global heap.
type ID struct {
	Collection uint64
	Index      uint32
}

func collectionHeaderSize(lengthSize int) int { return 4 + 1 + 3 + lengthSize }

func objectHeaderSize(lengthSize int) int { return 2 + 2 + 4 + lengthSize }

func pad8(n int) int { return (n + 7) &^ 7 }

// ReadCollection reads the collection at address.
func ReadCollection(r *binary.Reader, address uint64) (*Collection, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address %#x", address)
	}
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading global heap: %w", err)
	}
	if !bytes.Equal(sig, globalSignature) {
		return nil, fmt.Errorf("invalid global heap signature %q", sig)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported global heap version %d", version)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	c := &Collection{Address: address, Size: size, objects: make(map[uint16][]byte)}
	end := address + size
	objHdr := uint64(objectHeaderSize(r.LengthSize()))
	for uint64(hr.Pos())+objHdr <= end {
		index, err := hr.ReadUint16()
		if err != nil {
			return nil, err
		}
		if index == 0 {
			break // free space runs to the end of the collection
		}
		hr.Skip(2 + 4) // reference count, reserved
		n, err := hr.ReadLength()
		if err != nil {
			return nil, err
		}
		if uint64(hr.Pos())+n > end {
			return nil, fmt.Errorf("global heap object %d overruns its collection", index)
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		c.objects[index] = data
		hr.Skip(int64(pad8(int(n)) - int(n)))
	}
	return c, nil
}

// Object returns a copy of the object with the given index.
func (c *Collection) Object(index uint32) ([]byte, error) {
	data, ok := c.objects[uint16(index)]
	if index > 0xFFFF || !ok {
		return nil, fmt.Errorf("%w: index %d in collection at %#x", ErrNoObject, index, c.Address)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Len returns the number of objects in the collection.
func (c *Collection) Len() int { return len(c.objects) }

// CollectionSize returns the on-disk size of a collection holding objects,
// including the trailing free space object.
func CollectionSize(objects [][]byte, lengthSize int) uint64 {
	n := collectionHeaderSize(lengthSize)
	for _, obj := range objects {
		n += objectHeaderSize(lengthSize) + pad8(len(obj))
	}
	return uint64(max(pad8(n), MinCollectionSize))
}

// WriteCollection writes objects as a new collection at the writer's
// position. Objects get indexes 1..len(objects) in order. Space left over
// in the collection is described by a free space object with index 0.
func WriteCollection(w *binary.Writer, objects [][]byte) ([]ID, error) {
	address := uint64(w.Pos())
	size := CollectionSize(objects, w.LengthSize())

	buf := &binary.Buffer{}
	bw := binary.NewWriter(buf, w.Config())
	if err := bw.WriteBytes(globalSignature); err != nil {
		return nil, err
	}
	if err := bw.WriteUint8(1); err != nil {
		return nil, err
	}
	if err := bw.WriteZeros(3); err != nil {
		return nil, err
	}
	if err := bw.WriteLength(size); err != nil {
		return nil, err
	}

	ids := make([]ID, 0, len(objects))
	for i, obj := range objects {
		index := uint16(i + 1)
		if err := writeObject(bw, index, 1, obj); err != nil {
			return nil, err
		}
		ids = append(ids, ID{Collection: address, Index: uint32(index)})
	}

	free := int(size) - buf.Len()
	if free >= objectHeaderSize(w.LengthSize()) {
		if err := bw.WriteUint16(0); err != nil {
			return nil, err
		}
		if err := bw.WriteZeros(2 + 4); err != nil {
			return nil, err
		}
		// The free space size counts its own object header.
		if err := bw.WriteLength(uint64(free)); err != nil {
			return nil, err
		}
	}
	if err := bw.WriteZeros(int(size) - buf.Len()); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return nil, err
	}
	return ids, nil
}

func writeObject(w *binary.Writer, index, refs uint16, data []byte) error {
	if err := w.WriteUint16(index); err != nil {
		return err
	}
	if err := w.WriteUint16(refs); err != nil {
		return err
	}
	if err := w.WriteZeros(4); err != nil {
		return err
	}
	if err := w.WriteLength(uint64(len(data))); err != nil {
		return err
	}
	if err := w.WriteBytes(data); err != nil {
		return err
	}
	return w.WriteZeros(pad8(len(data)) - len(data))
}
