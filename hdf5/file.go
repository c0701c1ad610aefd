package hdf5

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/h5util/internal/alloc"
	"github.com/robert-malhotra/h5util/internal/binary"
	"github.com/robert-malhotra/h5util/internal/object"
	"github.com/robert-malhotra/h5util/internal/superblock"
)

// File represents an open HDF5 file.
type File struct {
	path       string
	abs        string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	groups     map[string]*Group // groups reached through hard links, by path
	closed     bool

	// reg is shared with every file opened through this one.
	reg   *registry
	owner bool

	// Write support fields
	writable  bool
	dirty     bool
	writer    *binary.Writer
	allocator *alloc.Allocator
}

// registry caches the files that external links and virtual datasets
// refer to, so each is opened once per top-level file.
type registry struct {
	files map[string]*File // by absolute path
	// reading holds the virtual datasets being read, to stop cycles.
	reading map[string]bool
}

// section addresses a file relative to its superblock, which is where
// every stored address is measured from.
type section struct {
	f    *os.File
	base int64
}

func (s section) ReadAt(p []byte, off int64) (int, error)  { return s.f.ReadAt(p, s.base+off) }
func (s section) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, s.base+off) }

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := newFile(path, osFile, nil)
	if err != nil {
		osFile.Close()
		return nil, err
	}
	return f, nil
}

// newFile reads the superblock and root group of an opened file. A nil
// registry makes f the owner of a new one.
func newFile(path string, osFile *os.File, reg *registry) (*File, error) {
	sb, err := superblock.Read(osFile)
	if err != nil {
		switch {
		case errors.Is(err, superblock.ErrNotHDF5):
			return nil, fmt.Errorf("%w: %s", ErrNotHDF5, path)
		case errors.Is(err, superblock.ErrUnsupportedVersion):
			return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f := &File{
		path:       path,
		abs:        abs,
		file:       osFile,
		reader:     binary.NewReader(section{osFile, sb.FileOffset}, sb.Config()),
		superblock: sb,
		groups:     make(map[string]*Group),
		reg:        reg,
	}
	if f.reg == nil {
		f.reg = &registry{files: make(map[string]*File), reading: make(map[string]bool)}
		f.owner = true
	}
	f.reg.files[abs] = f

	root, err := f.openGroupAt(sb.RootGroupAddress, "/", nil)
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	f.root = root
	return f, nil
}

// Close closes the HDF5 file and every file opened through it. Pending
// metadata of a writable file is flushed first.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	if f.writable {
		errs = append(errs, f.Flush())
	}
	if f.owner {
		for _, other := range f.reg.files {
			if other != f && !other.closed {
				other.closed = true
				errs = append(errs, other.file.Close())
			}
		}
		f.reg.files = nil
	}
	errs = append(errs, f.file.Close())
	return errors.Join(errs...)
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// OpenGroup opens a group by path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Has reports whether path names an object in the file.
func (f *File) Has(path string) bool {
	if f.closed {
		return false
	}
	_, err := f.root.open(path)
	return err == nil
}

// openGroupAt opens the group at address. Groups with a parent are cached
// by path so that every handle sees header rewrites.
func (f *File) openGroupAt(address uint64, path string, parent *Group) (*Group, error) {
	if parent != nil {
		if g, ok := f.groups[path]; ok {
			return g, nil
		}
	}
	header, err := f.readHeader(address)
	if err != nil {
		return nil, err
	}
	g := &Group{file: f, path: path, header: header, addr: address, parent: parent}
	if parent != nil {
		f.groups[path] = g
	}
	return g, nil
}

func (f *File) readHeader(address uint64) (*object.Header, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		if errors.Is(err, object.ErrUnsupportedVersion) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	return header, nil
}

// findByAbsolutePath navigates an absolute path and returns the file and
// object header address it leads to. visited tracks followed links to
// detect cycles.
func (f *File) findByAbsolutePath(absPath string, visited map[string]bool) (*File, uint64, error) {
	parts := SplitPath(absPath)
	if len(parts) == 0 {
		return f, f.root.addr, nil
	}

	current := f.root
	for i, name := range parts {
		targetFile, addr, err := current.findChild(name, visited)
		if err != nil {
			return nil, 0, fmt.Errorf("resolving %q in path %s: %w", name, absPath, err)
		}
		if i == len(parts)-1 {
			return targetFile, addr, nil
		}
		next, err := targetFile.openGroupAt(addr, "", nil)
		if err != nil {
			return nil, 0, fmt.Errorf("opening group %q: %w", name, err)
		}
		if !next.header.IsGroup() {
			return nil, 0, fmt.Errorf("%w: %q in path %s", ErrNotGroup, name, absPath)
		}
		current = next
	}
	return nil, 0, ErrInvalidPath
}

// openLinkedFile opens a file named by an external link or a virtual
// mapping. An absolute name is used as is; a relative one is tried
// against this file's directory and then the working directory. "."
// names this file. Files are cached for the lifetime of the owner.
func (f *File) openLinkedFile(name string) (*File, error) {
	if name == "." {
		return f, nil
	}
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = []string{filepath.Join(filepath.Dir(f.abs), name)}
		if wd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(wd, name))
		}
	}

	var firstErr error
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return nil, err
		}
		if other, ok := f.reg.files[abs]; ok {
			return other, nil
		}
		osFile, err := os.Open(abs)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		other, err := newFile(abs, osFile, f.reg)
		if err != nil {
			osFile.Close()
			return nil, fmt.Errorf("opening %q: %w", abs, err)
		}
		return other, nil
	}
	return nil, fmt.Errorf("opening %q: %w", name, firstErr)
}

// resolveExternalLink resolves an external link and returns the target's
// file and address. The visited map tracks links to detect cycles across files.
func (f *File) resolveExternalLink(extFile, extPath string, visited map[string]bool) (*File, uint64, error) {
	if len(visited) >= MaxLinkDepth {
		return nil, 0, ErrLinkDepth
	}
	linkKey := extFile + ":" + extPath
	if visited[linkKey] {
		return nil, 0, fmt.Errorf("circular external link detected: %s", linkKey)
	}
	visited[linkKey] = true

	target, err := f.openLinkedFile(extFile)
	if err != nil {
		return nil, 0, err
	}
	targetFile, addr, err := target.findByAbsolutePath(extPath, visited)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving path %q in external file %q: %w", extPath, extFile, err)
	}
	return targetFile, addr, nil
}
