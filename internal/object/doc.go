// Package object reads and writes HDF5 object headers.
//
// Every group and dataset is described by an object header, a list of
// header messages (dataspace, datatype, layout, links) that may spill into
// continuation blocks. Version 1 headers come from files written with the
// pre-1.8 format; version 2 headers start with the "OHDR" signature and
// carry a lookup3 checksum. [Read] detects the version, follows
// continuations and verifies checksums. [Write] emits version 2 headers only.
//
//	hdr, err := object.Read(r, addr)
//	layout := hdr.DataLayout()
package object
