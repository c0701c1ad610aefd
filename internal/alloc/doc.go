// Package alloc hands out file space for new metadata and raw data.
//
// Space is only ever appended at the end of the file. Blocks that a rewrite
// abandons, such as a group header replaced by a larger one, are recorded
// with [Allocator.Free] so the waste can be reported, but are not reused.
package alloc
