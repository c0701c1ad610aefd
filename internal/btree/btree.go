package btree

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

var (
	treeSignature = []byte{'T', 'R', 'E', 'E'}
	snodSignature = []byte{'S', 'N', 'O', 'D'}
)

// ErrInvalidNode is returned for a node with a bad signature or type.
var ErrInvalidNode = errors.New("invalid B-tree node")

const (
	nodeGroup = 0
	nodeChunk = 1

	// maxDepth bounds recursion on corrupt trees.
	maxDepth = 64
)

type node struct {
	level   uint8
	entries uint16
	r       *binary.Reader // positioned at the first key
}

func readNode(r *binary.Reader, address uint64, kind uint8) (*node, error) {
	nr := r.At(int64(address))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}
	if !bytes.Equal(head[:4], treeSignature) {
		return nil, fmt.Errorf("%w: signature %q at %d", ErrInvalidNode, head[:4], address)
	}
	if head[4] != kind {
		return nil, fmt.Errorf("%w: node type %d at %d, want %d", ErrInvalidNode, head[4], address, kind)
	}
	nr.Skip(int64(2 * nr.OffsetSize())) // siblings
	return &node{
		level:   head[5],
		entries: nr.ByteOrder().Uint16(head[6:8]),
		r:       nr,
	}, nil
}
