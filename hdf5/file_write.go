package hdf5

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/h5util/internal/alloc"
	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/object"
	"github.com/robert-malhotra/h5util/internal/superblock"
)

// Create creates a new HDF5 file at the given path, truncating any
// existing file. The file gets a version 3 superblock and version 2
// object headers.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	f, err := initFile(path, osFile, options)
	if err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}
	return f, nil
}

func initFile(path string, osFile *os.File, options *fileOptions) (*File, error) {
	sb := superblock.New(options.offsetSize, options.lengthSize)
	cfg := sb.Config()
	writer := binary.NewWriter(section{osFile, 0}, cfg)

	// root group right after the superblock
	rootAddr := uint64(sb.Size())
	rootMessages := object.GroupMessages(nil, options.offsetSize)
	headerSize, err := object.Size(rootMessages, cfg, object.MinGroupChunkSize)
	if err != nil {
		return nil, err
	}
	if _, err := object.Write(writer.At(int64(rootAddr)), rootMessages, object.MinGroupChunkSize); err != nil {
		return nil, fmt.Errorf("writing root group: %w", err)
	}
	sb.RootGroupAddress = rootAddr
	sb.EOFAddress = rootAddr + uint64(headerSize)
	if err := sb.Write(writer.At(0)); err != nil {
		return nil, fmt.Errorf("writing superblock: %w", err)
	}

	f, err := newFile(path, osFile, nil)
	if err != nil {
		return nil, err
	}
	f.makeWritable()
	f.root.size = uint64(headerSize)
	return f, nil
}

// OpenReadWrite opens an existing HDF5 file for reading and writing.
// New objects are appended at the end of the file. A file with a version
// 0 or 1 superblock is upgraded to version 3 when first flushed, and a
// symbol table group becomes a compact group when a link is added to it.
func OpenReadWrite(path string) (*File, error) {
	osFile, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := newFile(path, osFile, nil)
	if err != nil {
		osFile.Close()
		return nil, err
	}
	f.makeWritable()
	return f, nil
}

func (f *File) makeWritable() {
	f.writable = true
	f.writer = binary.NewWriter(section{f.file, f.superblock.FileOffset}, f.superblock.Config())
	f.allocator = alloc.New(f.superblock.EOFAddress)
}

// IsWritable returns true if the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// Flush writes the superblock if anything changed and syncs the file.
func (f *File) Flush() error {
	if !f.writable || !f.dirty {
		return nil
	}
	sb := f.superblock
	if sb.Version < 2 {
		sb.Version = 3
		sb.ExtensionAddress = binary.Undefined(int(sb.OffsetSize))
	}
	sb.BaseAddress = uint64(sb.FileOffset)
	sb.EOFAddress = f.allocator.EOF()
	sb.RootGroupAddress = f.root.addr
	if err := sb.Write(f.writer.At(0)); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	f.dirty = false
	return f.file.Sync()
}

// AllocStats returns allocation statistics.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// checkWritable guards every mutation.
func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}

// allocate reserves size bytes at the end of the file.
func (f *File) allocate(size uint64) uint64 {
	f.dirty = true
	return f.allocator.Alloc(size)
}
