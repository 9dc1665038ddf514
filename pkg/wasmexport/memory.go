package wasmexport

import "unsafe"

// Bytes returns a view of length bytes of linear memory at ptr. The view
// aliases module memory and is only valid until the next Reset overwrites
// the region; callers that need the data afterwards must copy it.
//
//nolint:gosec // raw linear-memory access is the point of this package.
func Bytes(ptr, length uint32) []byte {
	if length == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}

// CopyBytes returns a heap copy of length bytes of linear memory at ptr,
// safe to keep across Reset.
func CopyBytes(ptr, length uint32) []byte {
	if length == 0 {
		return []byte{}
	}

	return append([]byte(nil), Bytes(ptr, length)...)
}

// Write copies data into linear memory at ptr.
func Write(ptr uint32, data []byte) {
	copy(Bytes(ptr, uint32(len(data))), data)
}
