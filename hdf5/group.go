package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/h5util/internal/btree"
	"github.com/robert-malhotra/h5util/internal/heap"
	"github.com/robert-malhotra/h5util/internal/message"
	"github.com/robert-malhotra/h5util/internal/object"
)

// Group represents an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64 // object header address

	// parent holds the hard link to this group. It is nil for the root
	// group and for groups reached through soft or external links.
	parent *Group
	// size of the header when this session wrote it, 0 otherwise.
	size uint64
}

// Name returns the group name (last component of path).
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the full path to this group.
func (g *Group) Path() string {
	return g.path
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}
	group, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, relativePath)
	}
	return group, nil
}

// OpenDataset opens a dataset by relative path.
func (g *Group) OpenDataset(relativePath string) (*Dataset, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}
	dataset, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, relativePath)
	}
	return dataset, nil
}

// Has reports whether the group holds a link called name.
func (g *Group) Has(name string) bool {
	links, err := g.links()
	if err != nil {
		return false
	}
	for _, l := range links {
		if l.Name == name {
			return true
		}
	}
	return false
}

// open opens an object by relative path and returns a *Group or *Dataset.
func (g *Group) open(relativePath string) (any, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	parts := SplitPath(relativePath)
	if len(parts) == 0 {
		return g, nil
	}

	current := g
	visited := make(map[string]bool)
	for i, name := range parts {
		targetFile, addr, err := current.findChild(name, visited)
		if err != nil {
			return nil, fmt.Errorf("finding %q: %w", name, err)
		}
		fullPath := joinPath(current.path, name)

		// only a hard link within the file keeps the group writable
		var parent *Group
		if targetFile == current.file && current.hardLinked(name) {
			parent = current
		}
		header, err := targetFile.readHeader(addr)
		if err != nil {
			return nil, err
		}
		if header.IsDataset() {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %s", ErrNotGroup, fullPath)
			}
			return newDataset(targetFile, fullPath, addr, header)
		}
		next, err := targetFile.openGroupAt(addr, fullPath, parent)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func (g *Group) hardLinked(name string) bool {
	links, err := g.links()
	if err != nil {
		return false
	}
	for _, l := range links {
		if l.Name == name {
			return l.LinkType == message.LinkTypeHard
		}
	}
	return false
}

// findChild resolves the link called name to a file and object address.
func (g *Group) findChild(name string, visited map[string]bool) (*File, uint64, error) {
	links, err := g.links()
	if err != nil {
		return nil, 0, err
	}
	for _, link := range links {
		if link.Name == name {
			return g.resolveLink(link, visited)
		}
	}
	return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, joinPath(g.path, name))
}

// resolveLink resolves a link to get the target object's address.
func (g *Group) resolveLink(link *message.Link, visited map[string]bool) (*File, uint64, error) {
	switch link.LinkType {
	case message.LinkTypeHard:
		return g.file, link.ObjectAddress, nil

	case message.LinkTypeSoft:
		target := link.SoftTarget
		if len(visited) >= MaxLinkDepth {
			return nil, 0, ErrLinkDepth
		}
		if visited[target] {
			return nil, 0, fmt.Errorf("circular soft link detected: %s", target)
		}
		visited[target] = true
		return g.file.findByAbsolutePath(target, visited)

	case message.LinkTypeExternal:
		return g.file.resolveExternalLink(link.ExternalFile, link.ExternalPath, visited)
	}
	return nil, 0, fmt.Errorf("%w: link type %d", ErrUnsupported, link.LinkType)
}

// links lists the group's links. Symbol table groups are presented as
// hard and soft links in B-tree order.
func (g *Group) links() ([]*message.Link, error) {
	if st := g.header.SymbolTable(); st != nil {
		names, err := heap.ReadLocal(g.file.reader, st.LocalHeapAddress)
		if err != nil {
			return nil, fmt.Errorf("reading local heap: %w", err)
		}
		entries, err := btree.ReadGroup(g.file.reader, st.BTreeAddress, names)
		if err != nil {
			return nil, fmt.Errorf("reading B-tree: %w", err)
		}
		out := make([]*message.Link, len(entries))
		for i, e := range entries {
			if e.IsSoft() {
				out[i] = &message.Link{LinkType: message.LinkTypeSoft, Name: e.Name, SoftTarget: e.SoftTarget}
			} else {
				out[i] = message.NewHardLink(e.Name, e.ObjectAddress)
			}
		}
		return out, nil
	}
	if li := g.header.LinkInfo(); li != nil && li.Dense(g.file.reader.OffsetSize()) {
		return nil, fmt.Errorf("%w: dense link storage in group %s", ErrUnsupported, g.path)
	}
	return g.header.Links(), nil
}

// Members returns the names of all members (groups and datasets) in this group.
func (g *Group) Members() ([]string, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(links))
	for i, l := range links {
		names[i] = l.Name
	}
	return names, nil
}

// NumObjects returns the number of objects in this group.
func (g *Group) NumObjects() (int, error) {
	members, err := g.Members()
	if err != nil {
		return 0, err
	}
	return len(members), nil
}
