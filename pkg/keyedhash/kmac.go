// Package keyedhash implements the keyed hash primitives behind passcode
// derivation: NIST SP 800-185 KMAC over cSHAKE128/256 and BLAKE3 keyed mode.
package keyedhash

import "golang.org/x/crypto/sha3"

// Sponge rates in bytes for the two cSHAKE variants, per FIPS 202.
const (
	rateCShake128 = 168
	rateCShake256 = 136
)

// kmacFunctionName is the SP 800-185 function-name string N for KMAC.
var kmacFunctionName = []byte("KMAC")

// leftEncode encodes x as a byte string with the length octet first,
// per SP 800-185 section 2.3.1.
func leftEncode(x uint64) []byte {
	if x == 0 {
		return []byte{1, 0}
	}

	var temp [8]byte
	for i := 7; i >= 0; i-- {
		temp[i] = byte(x & 0xff)
		x >>= 8
	}

	start := 0
	for start < 8 && temp[start] == 0 {
		start++
	}
	n := 8 - start

	out := make([]byte, n+1)
	out[0] = byte(n)
	copy(out[1:], temp[start:])

	return out
}

// rightEncode is leftEncode with the length octet last.
func rightEncode(x uint64) []byte {
	if x == 0 {
		return []byte{0, 1}
	}

	var temp [8]byte
	for i := 7; i >= 0; i-- {
		temp[i] = byte(x & 0xff)
		x >>= 8
	}

	start := 0
	for start < 8 && temp[start] == 0 {
		start++
	}
	n := 8 - start

	out := make([]byte, n+1)
	copy(out, temp[start:])
	out[n] = byte(n)

	return out
}

// encodeString prepends the bit length of data, per SP 800-185 section 2.3.2.
func encodeString(data []byte) []byte {
	encoded := leftEncode(uint64(len(data) * 8))

	out := make([]byte, len(encoded)+len(data))
	copy(out, encoded)
	copy(out[len(encoded):], data)

	return out
}

// bytepad prefixes data with left_encode(w) and zero-pads the result to a
// multiple of w bytes, per SP 800-185 section 2.3.3.
func bytepad(data []byte, w int) []byte {
	wEncoded := leftEncode(uint64(w))
	totalLen := len(wEncoded) + len(data)

	padLen := w - (totalLen % w)
	if padLen == w {
		padLen = 0
	}

	out := make([]byte, totalLen+padLen)
	copy(out, wEncoded)
	copy(out[len(wEncoded):], data)

	return out
}

// KMAC128 computes KMAC over cSHAKE128 with the given key, customization
// string and message, returning outputLen bytes.
func KMAC128(key, customization, data []byte, outputLen int) []byte {
	return kmac(key, customization, data, outputLen, rateCShake128, sha3.NewCShake128)
}

// KMAC256 computes KMAC over cSHAKE256 with the given key, customization
// string and message, returning outputLen bytes.
func KMAC256(key, customization, data []byte, outputLen int) []byte {
	return kmac(key, customization, data, outputLen, rateCShake256, sha3.NewCShake256)
}

func kmac(
	key, customization, data []byte,
	outputLen, rate int,
	newCShake func(n, s []byte) sha3.ShakeHash,
) []byte {
	paddedKey := bytepad(encodeString(key), rate)

	h := newCShake(kmacFunctionName, customization)
	h.Write(paddedKey)
	h.Write(data)
	h.Write(rightEncode(uint64(outputLen * 8)))

	out := make([]byte, outputLen)
	h.Read(out)

	return out
}
