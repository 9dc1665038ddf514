package keyedhash

import "lukechampine.com/blake3"

// blake3Keyed runs BLAKE3 in keyed mode. Keyed mode requires exactly 32 key
// bytes, so an arbitrary-length caller key is first reduced with plain
// BLAKE3-256.
func blake3Keyed(key, data []byte, outLen int) []byte {
	derived := blake3.Sum256(key)

	h := blake3.New(outLen, derived[:])
	h.Write(data)

	return h.Sum(nil)
}

// Blake3Keyed256 computes a BLAKE3 keyed-mode digest with 256-bit output.
func Blake3Keyed256(key, data []byte) []byte {
	return blake3Keyed(key, data, 32)
}

// Blake3Keyed512 computes a BLAKE3 keyed-mode digest with 512-bit output.
func Blake3Keyed512(key, data []byte) []byte {
	return blake3Keyed(key, data, 64)
}
