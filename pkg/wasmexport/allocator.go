// Package wasmexport provides helper routines for the WASM compute module:
// a linear-memory arena allocator, raw memory access, and result-record
// encoding for returning byte buffers to the host.
package wasmexport

import "unsafe"

// arenaSize is the fixed size of the pre-allocated arena. The arena is never
// reallocated so that pointers handed to the host stay valid.
const arenaSize = 1 << 20

var (
	arena     []byte
	arenaBase uintptr
	offset    uint32
)

func init() {
	arena = make([]byte, arenaSize)
	arenaBase = uintptr(unsafe.Pointer(&arena[0]))
}

// Alloc reserves n bytes in the arena, rounded up to align, and returns the
// linear-memory address of the reservation. Returns 0 when the arena is
// exhausted or n is zero. align values that are not powers of two fall back
// to 8-byte alignment.
func Alloc(n, align uint32) uint32 {
	if n == 0 {
		return 0
	}
	if align == 0 || align&(align-1) != 0 {
		align = 8
	}

	reserved := (n + align - 1) &^ (align - 1)
	if offset+reserved < offset || offset+reserved > arenaSize {
		return 0
	}

	ptr := uint32(arenaBase + uintptr(offset))
	offset += reserved

	return ptr
}

// Free releases the buffer at ptr.
// The arena is reclaimed wholesale via Reset, so this is a no-op.
func Free(ptr, n, align uint32) {
	_ = ptr
	_ = n
	_ = align
}

// Reset reclaims the whole arena. Callers must first copy out any arena
// bytes they still need; buffers handed to the host before the previous
// entry point returned are dead by the time Reset runs.
func Reset() {
	offset = 0
}

// Used reports the number of arena bytes currently reserved.
func Used() uint32 {
	return offset
}
