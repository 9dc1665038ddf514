package keyedhash

import "encoding/hex"

// PasscodeLabel is the fixed KMAC customization string used by the stateful
// passcode path. It is part of the domain separation, not a secret, and must
// match every other implementation of the contract.
const PasscodeLabel = "authorization"

// OTPLength is the fixed passcode width in hexadecimal characters.
const OTPLength = 12

// OTP derives the fixed-width passcode from a digest: the lowercase
// hexadecimal encoding of its first six bytes. Digest length does not affect
// the result beyond the sixth byte, which is what keeps every algorithm
// variant at the same output width.
func OTP(digest []byte) string {
	if len(digest) < OTPLength/2 {
		padded := make([]byte, OTPLength/2)
		copy(padded, digest)
		digest = padded
	}

	return hex.EncodeToString(digest[:OTPLength/2])
}
