package alloc

import "sync"

// Allocator is an append-only allocator over the address space of one file.
type Allocator struct {
	mu sync.Mutex

	eof   uint64
	base  uint64
	stats Stats
}

// Stats summarizes what an Allocator has handed out.
type Stats struct {
	Allocations uint64
	BytesAlloc  uint64
	BytesFreed  uint64
}

// New returns an allocator whose first block starts at eof.
func New(eof uint64) *Allocator {
	return &Allocator{eof: eof, base: eof}
}

// Alloc reserves size bytes at the end of the file and returns their address.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocLocked(size)
}

// AllocAligned is Alloc with the returned address rounded up to alignment.
func (a *Allocator) AllocAligned(size, alignment uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if alignment > 1 {
		if rem := a.eof % alignment; rem != 0 {
			a.eof += alignment - rem
		}
	}
	return a.allocLocked(size)
}

func (a *Allocator) allocLocked(size uint64) uint64 {
	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size
	a.stats.Allocations++
	a.stats.BytesAlloc += size
	return addr
}

// Free records that a block is no longer referenced.
func (a *Allocator) Free(addr, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if addr >= a.base {
		a.stats.BytesFreed += size
	}
}

// EOF returns the address one past the last allocated byte.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Stats returns a snapshot of the allocation counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
