package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/message"
	"github.com/robert-malhotra/h5util/internal/object"
)

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkNewLink(name); err != nil {
		return nil, err
	}
	f := g.file

	messages := object.GroupMessages(nil, f.writer.OffsetSize())
	addr, size, err := f.writeHeader(messages, object.MinGroupChunkSize)
	if err != nil {
		return nil, fmt.Errorf("writing group header: %w", err)
	}
	if err := g.addLink(message.NewHardLink(name, addr)); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	child, err := f.openGroupAt(addr, joinPath(g.path, name), g)
	if err != nil {
		return nil, err
	}
	child.size = size
	return child, nil
}

// checkNewLink validates a name about to be linked into g.
func (g *Group) checkNewLink(name string) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	if g.Has(name) {
		return fmt.Errorf("%w: %s", ErrExists, joinPath(g.path, name))
	}
	return nil
}

// writeHeader appends an object header holding messages to the file.
func (f *File) writeHeader(messages []message.Serializable, minChunk int) (addr, size uint64, err error) {
	n, err := object.Size(messages, f.writer.Config(), minChunk)
	if err != nil {
		return 0, 0, err
	}
	addr = f.allocate(uint64(n))
	if _, err := object.Write(f.writer.At(int64(addr)), messages, minChunk); err != nil {
		return 0, 0, err
	}
	return addr, uint64(n), nil
}

// addLink adds a link to this group by rewriting its object header.
func (g *Group) addLink(link *message.Link) error {
	links, err := g.links()
	if err != nil {
		return err
	}
	return g.rewriteHeader(append(cloneLinks(links), link))
}

// rewriteHeader writes the group as a compact group holding links at a
// new address, then points the parent link (or the superblock, for the
// root group) at it.
func (g *Group) rewriteHeader(links []*message.Link) error {
	f := g.file
	if g != f.root && g.parent == nil {
		return fmt.Errorf("%w: group %s was not reached through hard links", ErrUnsupported, g.path)
	}

	messages := object.GroupMessages(links, f.writer.OffsetSize())
	addr, size, err := f.writeHeader(messages, object.MinGroupChunkSize)
	if err != nil {
		return err
	}
	header, err := f.readHeader(addr)
	if err != nil {
		return err
	}

	oldAddr, oldSize := g.addr, g.size
	g.addr, g.size, g.header = addr, size, header
	if oldSize > 0 {
		f.allocator.Free(oldAddr, oldSize)
	}

	if g == f.root {
		f.superblock.RootGroupAddress = addr
		return nil
	}
	return g.parent.relink(g.Name(), oldAddr, addr)
}

// relink points the hard link name at newAddr.
func (g *Group) relink(name string, oldAddr, newAddr uint64) error {
	links, err := g.links()
	if err != nil {
		return err
	}
	links = cloneLinks(links)
	for _, l := range links {
		if l.Name == name && l.LinkType == message.LinkTypeHard && l.ObjectAddress == oldAddr {
			l.ObjectAddress = newAddr
			return g.rewriteHeader(links)
		}
	}
	return fmt.Errorf("%w: link %s to %d", ErrNotFound, joinPath(g.path, name), oldAddr)
}

func cloneLinks(links []*message.Link) []*message.Link {
	out := make([]*message.Link, len(links))
	for i, l := range links {
		c := *l
		out[i] = &c
	}
	return out
}
