package superblock

import (
	binpkg "github.com/robert-malhotra/h5util/internal/binary"
)

// New returns a version 3 superblock with the given address widths.
func New(offsetSize, lengthSize int) *Superblock {
	return &Superblock{
		Version:          3,
		OffsetSize:       uint8(offsetSize),
		LengthSize:       uint8(lengthSize),
		ExtensionAddress: binpkg.Undefined(offsetSize),
	}
}

// Size returns the encoded size of a version 2/3 superblock.
func (sb *Superblock) Size() int {
	return v2Size(int(sb.OffsetSize))
}

// Write encodes sb as a version 3 superblock at w's position. Files opened
// from a version 0/1 superblock cannot be rewritten this way.
func (sb *Superblock) Write(w *binpkg.Writer) error {
	if sb.Version < 2 {
		return ErrUnsupportedVersion
	}
	buf := &binpkg.Buffer{}
	bw := binpkg.NewWriter(buf, sb.Config())

	if err := bw.WriteBytes(Signature); err != nil {
		return err
	}
	for _, b := range []uint8{sb.Version, sb.OffsetSize, sb.LengthSize, sb.FileConsistencyFlags} {
		if err := bw.WriteUint8(b); err != nil {
			return err
		}
	}
	for _, addr := range []uint64{sb.BaseAddress, sb.ExtensionAddress, sb.EOFAddress, sb.RootGroupAddress} {
		if err := bw.WriteOffset(addr); err != nil {
			return err
		}
	}
	if err := bw.WriteUint32(binpkg.Lookup3Checksum(buf.Bytes())); err != nil {
		return err
	}
	return w.WriteBytes(buf.Bytes())
}
