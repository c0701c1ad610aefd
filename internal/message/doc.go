// Package message parses and serializes the header messages stored in HDF5
// object headers.
//
// Only the messages the container layer acts on are decoded: dataspace,
// datatype, fill value, data layout, filter pipeline, the link family and
// the symbol table. Everything else parses to *Unknown and is carried
// through untouched.
//
// The package also owns the two encodings a virtual dataset needs that are
// not header messages themselves: dataspace selections (selection.go) and the
// mapping list stored in the global heap (virtual.go).
package message
