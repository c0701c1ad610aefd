// Package layout reads the raw data of a dataset from its storage.
//
// Four storage classes are handled behind the [Layout] interface:
//
//   - [Compact]: data kept inside the object header.
//   - [Contiguous]: one block in the file.
//   - [Chunked]: fixed-size chunks indexed by a version 1 B-tree, a single
//     chunk or an implicit index, optionally passed through filters.
//   - [Virtual]: no data of its own; a list of mappings onto datasets in
//     other files, resolved through a [Resolver].
//
// ReadSlice reads one rectangular block. Elements that no storage covers
// read as the dataset's fill value.
//
//	l, err := layout.New(r, layout.Storage{Layout: msg, Space: space, Type: dt}, nil)
//	data, err := l.ReadSlice([]uint64{0, 3}, []uint64{rows, 1})
package layout
