package btree

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/heap"
)

// Cache types of a symbol table entry.
const (
	cacheNone    = 0
	cacheObject  = 1
	cacheSymlink = 2
)

// GroupEntry is one member of a symbol table group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	SoftTarget    string
}

// IsSoft reports whether the entry is a soft link.
func (e GroupEntry) IsSoft() bool { return e.SoftTarget != "" }

// ReadGroup lists the members of the group whose B-tree is at address.
// Names are resolved through the group's local heap.
func ReadGroup(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	return readGroupNode(r, address, names, 0)
}

func readGroupNode(r *binary.Reader, address uint64, names *heap.LocalHeap, depth int) ([]GroupEntry, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: group B-tree deeper than %d", ErrInvalidNode, maxDepth)
	}
	n, err := readNode(r, address, nodeGroup)
	if err != nil {
		return nil, err
	}
	var out []GroupEntry
	for i := 0; i < int(n.entries); i++ {
		// key (a heap offset), then child
		if _, err := n.r.ReadLength(); err != nil {
			return nil, err
		}
		child, err := n.r.ReadOffset()
		if err != nil {
			return nil, err
		}
		var entries []GroupEntry
		if n.level == 0 {
			entries, err = readSymbolNode(r, child, names)
		} else {
			entries, err = readGroupNode(r, child, names, depth+1)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table node at %d: %w", address, err)
	}
	if !bytes.Equal(head[:4], snodSignature) {
		return nil, fmt.Errorf("%w: symbol table node signature %q", ErrInvalidNode, head[:4])
	}
	if head[4] != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version %d", head[4])
	}
	count := int(nr.ByteOrder().Uint16(head[6:8]))

	out := make([]GroupEntry, 0, count)
	for i := 0; i < count; i++ {
		e, err := readSymbolEntry(nr, names)
		if err != nil {
			return nil, fmt.Errorf("symbol table entry %d: %w", i, err)
		}
		if e.Name != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// readSymbolEntry reads name offset, header address, cache type, 4 reserved
// bytes and a 16 byte scratch pad.
func readSymbolEntry(r *binary.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	nameOff, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return GroupEntry{}, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return GroupEntry{}, err
	}

	e := GroupEntry{Name: names.String(nameOff), ObjectAddress: addr}
	if cache == cacheSymlink {
		e.SoftTarget = names.String(uint64(r.ByteOrder().Uint32(scratch[:4])))
		e.ObjectAddress = 0
	}
	return e, nil
}
