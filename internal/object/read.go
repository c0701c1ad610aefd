package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/message"
)

const flagShared = 0x02

// pending is a continuation block still to be read.
type pending struct {
	offset, length uint64
}

// decode turns a raw message body into a message, keeping shared messages
// as references.
func decode(typ message.Type, flags uint8, data []byte, cfg binary.Config) (message.Message, error) {
	if flags&flagShared != 0 {
		return &Shared{MessageType: typ, Data: data}, nil
	}
	return message.Parse(typ, data, cfg)
}

/*
Version 1 prefix: version(1) reserved(1) message count(2) reference
count(4) header size(4) reserved(4). Each message: type(2) size(2) flags(1)
reserved(3) data, with size already a multiple of 8.
*/
func readV1(r *binary.Reader, address uint64) (*Header, error) {
	head, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	order := r.ByteOrder()
	hdr := &Header{
		Version:  1,
		Address:  address,
		RefCount: order.Uint32(head[4:8]),
	}
	size := uint64(order.Uint32(head[8:12]))

	queue := []pending{{address + 16, size}}
	for n := 0; len(queue) > 0; n++ {
		if n > maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		blk := queue[0]
		queue = queue[1:]
		more, err := hdr.readV1Block(r.At(int64(blk.offset)), blk.offset+blk.length)
		if err != nil {
			return nil, err
		}
		queue = append(queue, more...)
	}
	return hdr, nil
}

func (h *Header) readV1Block(r *binary.Reader, end uint64) ([]pending, error) {
	var conts []pending
	for uint64(r.Pos())+8 <= end {
		typ, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		r.Skip(3)
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		next, err := h.addMessage(message.Type(typ), flags, data, r.Config())
		if err != nil {
			return nil, err
		}
		if next != nil {
			conts = append(conts, *next)
		}
	}
	return conts, nil
}

/*
Version 2 prefix: "OHDR" version(1) flags(1), four timestamps when flag
0x20 is set, two attribute phase values when flag 0x10 is set, then the
size of chunk 0 in 1<<(flags&3) bytes. Each message: type(1) size(2)
flags(1), creation order(2) when flag 0x04 is set, data. Every chunk ends
with a lookup3 checksum.
*/
func readV2(r *binary.Reader, address uint64) (*Header, error) {
	r.Skip(4)
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	hdr := &Header{Version: 2, Address: address, Flags: flags, RefCount: 1}
	if flags&0x20 != 0 {
		r.Skip(16)
	}
	if flags&0x10 != 0 {
		r.Skip(4)
	}
	chunkSize, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}

	start := uint64(r.Pos())
	if err := verifyChunk(r, address, start+chunkSize); err != nil {
		return nil, err
	}
	more, err := hdr.readV2Block(r, start+chunkSize)
	if err != nil {
		return nil, err
	}

	queue := more
	for n := 0; len(queue) > 0; n++ {
		if n > maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		blk := queue[0]
		queue = queue[1:]

		cr := r.At(int64(blk.offset))
		sig, err := cr.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(sig, continuationSignature) {
			return nil, fmt.Errorf("%w: bad continuation signature %q", ErrInvalidHeader, sig)
		}
		end := blk.offset + blk.length - 4
		if err := verifyChunk(cr, blk.offset, end); err != nil {
			return nil, err
		}
		more, err := hdr.readV2Block(cr, end)
		if err != nil {
			return nil, err
		}
		queue = append(queue, more...)
	}
	return hdr, nil
}

// verifyChunk checks the checksum stored at end over [from, end).
func verifyChunk(r *binary.Reader, from, end uint64) error {
	if end < from {
		return fmt.Errorf("%w: chunk ends before it starts", ErrInvalidHeader)
	}
	data, err := r.At(int64(from)).ReadBytes(int(end - from + 4))
	if err != nil {
		return err
	}
	body := data[:len(data)-4]
	stored := r.ByteOrder().Uint32(data[len(data)-4:])
	if got := binary.Lookup3Checksum(body); got != stored {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, stored, got)
	}
	return nil
}

func (h *Header) readV2Block(r *binary.Reader, end uint64) ([]pending, error) {
	headerLen := uint64(4)
	if h.Flags&0x04 != 0 {
		headerLen += 2
	}
	var conts []pending
	// A gap shorter than a message header may follow the last message.
	for uint64(r.Pos())+headerLen <= end {
		typ, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if h.Flags&0x04 != 0 {
			r.Skip(2)
		}
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		next, err := h.addMessage(message.Type(typ), flags, data, r.Config())
		if err != nil {
			return nil, err
		}
		if next != nil {
			conts = append(conts, *next)
		}
	}
	return conts, nil
}

// addMessage records one message and returns the block it continues into,
// if it is a continuation.
func (h *Header) addMessage(typ message.Type, flags uint8, data []byte, cfg binary.Config) (*pending, error) {
	if typ == message.TypeNIL {
		return nil, nil
	}
	msg, err := decode(typ, flags, data, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := msg.(*message.Continuation); ok {
		return &pending{c.Offset, c.Length}, nil
	}
	h.Messages = append(h.Messages, msg)
	return nil, nil
}
