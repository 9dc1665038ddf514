// Package otp computes short deterministic one-time passcodes from a secret
// key and a challenge value using interchangeable keyed-hash algorithms.
//
// The actual computation runs on one of three interchangeable backends: a
// sandboxed WASM compute module, a subprocess bridge to the Node.js
// implementation, or the in-process native primitives. Backends are selected
// once per Engine and produce byte-identical passcodes.
//
// Basic usage:
//
//	pc, err := otp.New(otp.BLAKE3KeyedMode256, key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pc.Close()
//
//	code, err := pc.Compute(challenge)
package otp

// Algorithm identifies one of the supported keyed-hash algorithms. The
// numeric values are the wire discriminants passed across the compute
// boundary; they must not be renumbered.
type Algorithm uint32

// The closed set of supported algorithms.
const (
	SHA3KMAC128 Algorithm = iota
	SHA3KMAC256
	BLAKE3KeyedMode128
	BLAKE3KeyedMode256
)

var algorithmNames = map[Algorithm]string{
	SHA3KMAC128:        "SHA3-KMAC-128",
	SHA3KMAC256:        "SHA3-KMAC-256",
	BLAKE3KeyedMode128: "BLAKE3-Keyed-Mode-128",
	BLAKE3KeyedMode256: "BLAKE3-Keyed-Mode-256",
}

// String returns the canonical display name, or "Unknown" for any value
// outside the closed set. It never fails.
func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}

	return "Unknown"
}

// Valid reports whether a is a member of the closed algorithm set.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]

	return ok
}

// Algorithms returns the closed set in discriminant order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA3KMAC128, SHA3KMAC256, BLAKE3KeyedMode128, BLAKE3KeyedMode256}
}
