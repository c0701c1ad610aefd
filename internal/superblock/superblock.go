package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/h5util/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the fields of any superblock version that the rest of the
// module needs.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootGroupAddress uint64

	// Version 0/1 only.
	GroupLeafNodeK     uint16
	GroupInternalNodeK uint16
	IndexedStorageK    uint16

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read locates and parses the superblock of r.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, 9)
	for _, off := range searchOffsets {
		n, err := r.ReadAt(sig, off)
		if n < len(sig) {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		var sb *Superblock
		switch version := sig[8]; version {
		case 0, 1:
			sb, err = readV0V1(r, off, version)
		case 2, 3:
			sb, err = readV2V3(r, off)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		if err != nil {
			return nil, err
		}
		sb.FileOffset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// Config returns the binary configuration implied by the superblock.
func (sb *Superblock) Config() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// sizes reads and validates the offset and length width bytes at pos.
func sizes(r io.ReaderAt, pos int64) (uint8, uint8, error) {
	buf := make([]byte, 2)
	if _, err := r.ReadAt(buf, pos); err != nil {
		return 0, 0, err
	}
	cfg := binpkg.Config{ByteOrder: binary.LittleEndian, OffsetSize: int(buf[0]), LengthSize: int(buf[1])}
	if err := cfg.Validate(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return buf[0], buf[1], nil
}

// Version 0/1 layout after the signature:
//
//	version, free-space version, root symtab version, reserved,
//	shared header version, offset size, length size, reserved,
//	group leaf K (2), group internal K (2), consistency flags (4),
//	[v1: indexed storage K (2), reserved (2)],
//	base, free-space info, EOF, driver info addresses,
//	root group symbol table entry.
func readV0V1(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	osz, lsz, err := sizes(r, off+13)
	if err != nil {
		return nil, err
	}
	sb := &Superblock{Version: version, OffsetSize: osz, LengthSize: lsz}

	cur := binpkg.NewReader(r, sb.Config()).At(off + 16)
	if sb.GroupLeafNodeK, err = cur.ReadUint16(); err != nil {
		return nil, err
	}
	if sb.GroupInternalNodeK, err = cur.ReadUint16(); err != nil {
		return nil, err
	}
	flags, err := cur.ReadUint32()
	if err != nil {
		return nil, err
	}
	sb.FileConsistencyFlags = uint8(flags)
	if version == 1 {
		if sb.IndexedStorageK, err = cur.ReadUint16(); err != nil {
			return nil, err
		}
		cur.Skip(2)
	}

	if sb.BaseAddress, err = cur.ReadOffset(); err != nil {
		return nil, err
	}
	if _, err = cur.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.EOFAddress, err = cur.ReadOffset(); err != nil {
		return nil, err
	}
	if _, err = cur.ReadOffset(); err != nil {
		return nil, err
	}

	// Root group symbol table entry: link name offset, then the object
	// header address. The cached B-tree and heap addresses are also present
	// in the root group's symbol table message, which is what gets used.
	if _, err = cur.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootGroupAddress, err = cur.ReadOffset(); err != nil {
		return nil, err
	}
	sb.ExtensionAddress = binpkg.Undefined(int(osz))
	return sb, nil
}

// Version 2/3 layout after the signature:
//
//	version, offset size, length size, consistency flags,
//	base, extension, EOF, root object header addresses, checksum.
func readV2V3(r io.ReaderAt, off int64) (*Superblock, error) {
	osz, lsz, err := sizes(r, off+9)
	if err != nil {
		return nil, err
	}
	size := v2Size(int(osz))
	raw := make([]byte, size)
	if _, err := r.ReadAt(raw, off); err != nil {
		return nil, err
	}
	stored := binary.LittleEndian.Uint32(raw[size-4:])
	if binpkg.Lookup3Checksum(raw[:size-4]) != stored {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}

	sb := &Superblock{Version: raw[8], OffsetSize: osz, LengthSize: lsz, FileConsistencyFlags: raw[11]}
	cur := binpkg.NewReader(bytes.NewReader(raw), sb.Config()).At(12)
	for _, dst := range []*uint64{&sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress} {
		if *dst, err = cur.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

func v2Size(offsetSize int) int {
	return 12 + 4*offsetSize + 4
}
