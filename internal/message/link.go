package message

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
)

// LinkType is the kind of a link message.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link is message 0x0006, one named entry of a compact group.
type Link struct {
	LinkType      LinkType
	CreationOrder uint64
	Name          string

	ObjectAddress uint64
	SoftTarget    string
	ExternalFile  string
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

// NewHardLink links name to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{LinkType: LinkTypeHard, Name: name, ObjectAddress: addr}
}

// Serialize writes a version 1 link message.
func (m *Link) Serialize(w *binary.Writer) error {
	width, bits := 1, uint8(0)
	switch n := len(m.Name); {
	case n > 0xFFFF:
		width, bits = 4, 2
	case n > 0xFF:
		width, bits = 2, 1
	}
	flags := bits
	if m.LinkType != LinkTypeHard {
		flags |= 0x08
	}
	if err := w.WriteUint8(1); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if m.LinkType != LinkTypeHard {
		if err := w.WriteUint8(uint8(m.LinkType)); err != nil {
			return err
		}
	}
	if err := w.WriteUintN(uint64(len(m.Name)), width); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(m.Name)); err != nil {
		return err
	}

	switch m.LinkType {
	case LinkTypeHard:
		return w.WriteOffset(m.ObjectAddress)
	case LinkTypeSoft:
		if err := w.WriteUint16(uint16(len(m.SoftTarget))); err != nil {
			return err
		}
		return w.WriteBytes([]byte(m.SoftTarget))
	case LinkTypeExternal:
		// version/flags byte, then two NUL-terminated strings
		value := append([]byte{0}, m.ExternalFile...)
		value = append(append(value, 0), m.ExternalPath...)
		value = append(value, 0)
		if err := w.WriteUint16(uint16(len(value))); err != nil {
			return err
		}
		return w.WriteBytes(value)
	}
	return fmt.Errorf("unknown link type %d", m.LinkType)
}

func parseLink(r *binary.Reader) (*Link, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, ErrTruncated
	}
	if head[0] != 1 {
		return nil, fmt.Errorf("unsupported link version %d", head[0])
	}
	flags := head[1]
	m := &Link{}

	if flags&0x08 != 0 {
		t, err := r.ReadUint8()
		if err != nil {
			return nil, ErrTruncated
		}
		m.LinkType = LinkType(t)
	}
	if flags&0x04 != 0 {
		if m.CreationOrder, err = r.ReadUint64(); err != nil {
			return nil, ErrTruncated
		}
	}
	if flags&0x10 != 0 {
		r.Skip(1) // character set
	}
	nameLen, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, ErrTruncated
	}
	name, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return nil, ErrTruncated
	}
	m.Name = string(name)

	switch m.LinkType {
	case LinkTypeHard:
		if m.ObjectAddress, err = r.ReadOffset(); err != nil {
			return nil, ErrTruncated
		}
		return m, nil
	}

	n, err := r.ReadUint16()
	if err != nil {
		return nil, ErrTruncated
	}
	value, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, ErrTruncated
	}
	switch m.LinkType {
	case LinkTypeSoft:
		m.SoftTarget = string(value)
	case LinkTypeExternal:
		if len(value) < 2 {
			return nil, fmt.Errorf("external link value too short")
		}
		parts := bytes.SplitN(value[1:], []byte{0}, 3)
		m.ExternalFile = string(parts[0])
		if len(parts) > 1 {
			m.ExternalPath = string(parts[1])
		}
	}
	return m, nil
}
