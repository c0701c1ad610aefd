// Package superblock reads and writes the HDF5 superblock, the fixed-format
// record that locates the root group and fixes the file's address widths.
//
// Versions 0 and 1 are read for files produced by h5py and the HDF5 library
// with default settings. Those files reach the root group through a symbol
// table entry embedded in the superblock. Versions 2 and 3 carry a lookup3
// checksum and point straight at the root object header. Files created by
// this module are always written as version 3.
//
// The signature is searched for at byte 0 and at 512, 1024 and 2048, the
// offsets left free for a user block. All addresses in the file are relative
// to the superblock's location.
package superblock
