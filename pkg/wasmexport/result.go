package wasmexport

import "encoding/binary"

// recordSize is the size of the result record the host decodes: two
// little-endian 32-bit words, [data pointer, data length].
const recordSize = 8

// putRecord encodes the (ptr, length) pair into buf as the host expects it.
func putRecord(buf []byte, ptr, length uint32) {
	binary.LittleEndian.PutUint32(buf[:4], ptr)
	binary.LittleEndian.PutUint32(buf[4:recordSize], length)
}

// WriteResult copies data into the arena followed by the 8-byte result
// record pointing at it, and returns the record's address for the host to
// decode. Returns 0 when allocation fails, which the host reports as a
// compute failure.
func WriteResult(data []byte) uint32 {
	ptr := Alloc(uint32(len(data)), 1)
	if ptr == 0 && len(data) > 0 {
		return 0
	}
	Write(ptr, data)

	rec := Alloc(recordSize, 4)
	if rec == 0 {
		return 0
	}

	var words [recordSize]byte
	putRecord(words[:], ptr, uint32(len(data)))
	Write(rec, words[:])

	return rec
}
