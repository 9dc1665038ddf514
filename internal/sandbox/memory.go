// Package sandbox hosts the WASM compute module and marshals byte buffers
// across its memory boundary.
package sandbox

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// recordSize is the size of a result record: two little-endian 32-bit words
// holding the payload pointer and length.
const recordSize = 8

// boundary is the narrow capability interface over the compute module's
// private memory. Everything above it deals in byte slices and export names,
// never in raw addresses of a concrete runtime.
type boundary interface {
	// Allocate reserves n bytes of module-owned memory.
	Allocate(ctx context.Context, n uint32) (uint32, error)

	// Write copies data into module memory at ptr.
	Write(ptr uint32, data []byte) error

	// Read returns a host-owned copy of n bytes of module memory at ptr.
	Read(ptr, n uint32) ([]byte, error)

	// Invoke calls a cached export with primitive arguments and returns its
	// scalar result, or 0 for exports with no result.
	Invoke(ctx context.Context, name string, args ...uint64) (uint64, error)

	// Free releases a buffer previously returned by Allocate. Deallocator
	// faults are logged by the implementation, not propagated; by the time a
	// buffer is freed the call is either already failing or already done.
	Free(ctx context.Context, ptr, n uint32)
}

// buffers tracks the module-memory allocations made for one call so that
// every one of them is released exactly once, on every exit path.
type buffers struct {
	b     boundary
	spans []span
}

type span struct {
	ptr uint32
	n   uint32
}

func newBuffers(b boundary) *buffers {
	return &buffers{b: b}
}

// writeIn allocates module memory for data, copies it in, and records the
// span for release. Zero-length inputs are passed as a null (0, 0) pair
// without touching the allocator.
func (bu *buffers) writeIn(ctx context.Context, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}

	n := uint32(len(data))
	ptr, err := bu.b.Allocate(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("allocate %d bytes: %w", n, err)
	}
	bu.spans = append(bu.spans, span{ptr: ptr, n: n})

	if err := bu.b.Write(ptr, data); err != nil {
		return 0, fmt.Errorf("write %d bytes: %w", n, err)
	}

	return ptr, nil
}

// release frees every recorded span. Safe to defer unconditionally; it runs
// once per recorded allocation regardless of how the call exited.
func (bu *buffers) release(ctx context.Context) {
	for _, s := range bu.spans {
		bu.b.Free(ctx, s.ptr, s.n)
	}
	bu.spans = bu.spans[:0]
}

// decodeResult reads the result record a compute export returned, reads the
// UTF-8 payload it points at, and frees both the payload and the record.
func decodeResult(ctx context.Context, b boundary, record uint64) (string, error) {
	if record == 0 {
		return "", errors.New("module returned null result record")
	}

	recPtr := uint32(record)
	defer b.Free(ctx, recPtr, recordSize)

	rec, err := b.Read(recPtr, recordSize)
	if err != nil {
		return "", fmt.Errorf("read result record: %w", err)
	}

	dataPtr := binary.LittleEndian.Uint32(rec[:4])
	dataLen := binary.LittleEndian.Uint32(rec[4:])
	if dataLen == 0 {
		return "", errors.New("result record has zero length")
	}
	defer b.Free(ctx, dataPtr, dataLen)

	data, err := b.Read(dataPtr, dataLen)
	if err != nil {
		return "", fmt.Errorf("read result payload: %w", err)
	}
	if !utf8.Valid(data) {
		return "", errors.New("result payload is not valid UTF-8")
	}

	return string(data), nil
}
