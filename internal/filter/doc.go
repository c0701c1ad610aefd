// Package filter decodes chunks stored through an HDF5 filter pipeline.
//
// Filters run in reverse pipeline order on read, and a chunk's filter mask
// can skip individual stages. Deflate, shuffle and Fletcher-32 are
// supported, which covers what h5py writes with compression="gzip",
// shuffle=True and fletcher32=True. Other required filters make the
// dataset unreadable; optional ones are skipped.
package filter
