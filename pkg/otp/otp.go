package otp

// Stateless free functions on the process-wide default Engine. Each one is a
// single full round trip: the key, label and challenge are marshaled, the
// keyed hash runs, and the 12-character hexadecimal passcode comes back.

// Sha3Kmac128 computes a SHA3-KMAC-128 passcode over data with the given key
// and customization label.
func Sha3Kmac128(key, label, data []byte) (string, error) {
	return Default().Sha3Kmac128(key, label, data)
}

// Sha3Kmac256 computes a SHA3-KMAC-256 passcode over data with the given key
// and customization label.
func Sha3Kmac256(key, label, data []byte) (string, error) {
	return Default().Sha3Kmac256(key, label, data)
}

// Blake3KeyedMode128 computes a BLAKE3 keyed-mode passcode with 128-bit
// security over data with the given key.
func Blake3KeyedMode128(key, data []byte) (string, error) {
	return Default().Blake3KeyedMode128(key, data)
}

// Blake3KeyedMode256 computes a BLAKE3 keyed-mode passcode with 256-bit
// security over data with the given key.
func Blake3KeyedMode256(key, data []byte) (string, error) {
	return Default().Blake3KeyedMode256(key, data)
}
