package message

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// VirtualMapping maps a selection of a source dataset onto a selection of
// the virtual dataset. A SourceFile of "." refers to the file holding the
// virtual dataset.
type VirtualMapping struct {
	SourceFile       string
	SourceDataset    string
	SourceSelection  Selection
	VirtualSelection Selection
}

const virtualHeapVersion = 0

// EncodeMappings builds the global heap object that a virtual layout
// message points at: version, entry count, the entries and a lookup3
// checksum over everything before it.
func EncodeMappings(mappings []VirtualMapping, cfg binary.Config) ([]byte, error) {
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, cfg)
	if err := w.WriteUint8(virtualHeapVersion); err != nil {
		return nil, err
	}
	if err := w.WriteLength(uint64(len(mappings))); err != nil {
		return nil, err
	}
	for i, m := range mappings {
		if err := w.WriteCString(m.SourceFile); err != nil {
			return nil, err
		}
		if err := w.WriteCString(m.SourceDataset); err != nil {
			return nil, err
		}
		if err := m.SourceSelection.Serialize(w); err != nil {
			return nil, fmt.Errorf("mapping %d source selection: %w", i, err)
		}
		if err := m.VirtualSelection.Serialize(w); err != nil {
			return nil, fmt.Errorf("mapping %d virtual selection: %w", i, err)
		}
	}
	if err := w.WriteUint32(binary.Lookup3Checksum(buf.Bytes())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMappings parses a mapping list stored in a global heap object.
func DecodeMappings(data []byte, cfg binary.Config) ([]VirtualMapping, error) {
	if len(data) < 5 {
		return nil, ErrTruncated
	}
	body := data[:len(data)-4]
	want := cfg.ByteOrder.Uint32(data[len(data)-4:])
	if got := binary.Lookup3Checksum(body); got != want {
		return nil, fmt.Errorf("virtual mapping checksum mismatch: stored 0x%08x, computed 0x%08x", want, got)
	}

	r := binary.NewReader(bytes.NewReader(body), cfg)
	version, err := r.ReadUint8()
	if err != nil {
		return nil, ErrTruncated
	}
	if version != virtualHeapVersion {
		return nil, fmt.Errorf("unsupported virtual mapping version %d", version)
	}
	n, err := r.ReadLength()
	if err != nil {
		return nil, ErrTruncated
	}
	if n > uint64(len(body)) {
		return nil, fmt.Errorf("virtual mapping count %d exceeds block size", n)
	}
	mappings := make([]VirtualMapping, 0, n)
	for i := uint64(0); i < n; i++ {
		var m VirtualMapping
		if m.SourceFile, err = r.ReadCString(); err != nil {
			return nil, ErrTruncated
		}
		if m.SourceDataset, err = r.ReadCString(); err != nil {
			return nil, ErrTruncated
		}
		if m.SourceSelection, err = parseSelection(r); err != nil {
			return nil, fmt.Errorf("mapping %d source selection: %w", i, err)
		}
		if m.VirtualSelection, err = parseSelection(r); err != nil {
			return nil, fmt.Errorf("mapping %d virtual selection: %w", i, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}
