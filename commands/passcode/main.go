// Command passcode is the sandboxed compute module. It is built for
// wasip1 and loaded by the host runtime, which calls the exported entry
// points below through linear memory.
package main

import (
	"github.com/snowmerak/passcode/pkg/keyedhash"
	"github.com/snowmerak/passcode/pkg/wasmexport"
)

// Algorithm discriminants on the wire. These must stay aligned with the
// host's registry.
const (
	algSha3Kmac128 uint32 = iota
	algSha3Kmac256
	algBlake3Keyed128
	algBlake3Keyed256
)

// instances holds live passcode state keyed by the opaque handle handed
// to the host. Handle 0 is reserved as the failure value.
var (
	instances         = map[uint64]instance{}
	nextHandle uint64 = 1
)

type instance struct {
	algorithm uint32
	key       []byte
}

//export allocate
func allocate(size, align uint32) uint32 {
	return wasmexport.Alloc(size, align)
}

//export deallocate
func deallocate(ptr, size, align uint32) {
	wasmexport.Free(ptr, size, align)
}

//export sha3_kmac_128
func sha3Kmac128(keyPtr, keyLen, labelPtr, labelLen, dataPtr, dataLen uint32) uint32 {
	key, label, data := copyTriple(keyPtr, keyLen, labelPtr, labelLen, dataPtr, dataLen)
	wasmexport.Reset()

	return writeOTP(keyedhash.KMAC128(key, label, data, 32))
}

//export sha3_kmac_256
func sha3Kmac256(keyPtr, keyLen, labelPtr, labelLen, dataPtr, dataLen uint32) uint32 {
	key, label, data := copyTriple(keyPtr, keyLen, labelPtr, labelLen, dataPtr, dataLen)
	wasmexport.Reset()

	return writeOTP(keyedhash.KMAC256(key, label, data, 32))
}

//export blake3_keyed_mode_128
func blake3Keyed128(keyPtr, keyLen, dataPtr, dataLen uint32) uint32 {
	key := wasmexport.CopyBytes(keyPtr, keyLen)
	data := wasmexport.CopyBytes(dataPtr, dataLen)
	wasmexport.Reset()

	return writeOTP(keyedhash.Blake3Keyed256(key, data))
}

//export blake3_keyed_mode_256
func blake3Keyed256(keyPtr, keyLen, dataPtr, dataLen uint32) uint32 {
	key := wasmexport.CopyBytes(keyPtr, keyLen)
	data := wasmexport.CopyBytes(dataPtr, dataLen)
	wasmexport.Reset()

	return writeOTP(keyedhash.Blake3Keyed512(key, data))
}

//export passcode_new
func passcodeNew(algorithm, keyPtr, keyLen uint32) uint64 {
	if algorithm > algBlake3Keyed256 {
		return 0
	}

	key := wasmexport.CopyBytes(keyPtr, keyLen)
	wasmexport.Reset()

	handle := nextHandle
	nextHandle++
	instances[handle] = instance{algorithm: algorithm, key: key}

	return handle
}

//export passcode_compute
func passcodeCompute(handle uint64, dataPtr, dataLen uint32) uint32 {
	inst, ok := instances[handle]
	if !ok {
		return 0
	}

	data := wasmexport.CopyBytes(dataPtr, dataLen)
	wasmexport.Reset()

	label := []byte(keyedhash.PasscodeLabel)

	var digest []byte
	switch inst.algorithm {
	case algSha3Kmac128:
		digest = keyedhash.KMAC128(inst.key, label, data, 32)
	case algSha3Kmac256:
		digest = keyedhash.KMAC256(inst.key, label, data, 32)
	case algBlake3Keyed128:
		digest = keyedhash.Blake3Keyed256(inst.key, data)
	case algBlake3Keyed256:
		digest = keyedhash.Blake3Keyed512(inst.key, data)
	default:
		return 0
	}

	return writeOTP(digest)
}

//export passcode_free
func passcodeFree(handle uint64) {
	delete(instances, handle)
}

// copyTriple lifts the three stateless-call arguments off the arena before
// Reset reclaims the host-written buffers.
func copyTriple(keyPtr, keyLen, labelPtr, labelLen, dataPtr, dataLen uint32) ([]byte, []byte, []byte) {
	key := wasmexport.CopyBytes(keyPtr, keyLen)
	label := wasmexport.CopyBytes(labelPtr, labelLen)
	data := wasmexport.CopyBytes(dataPtr, dataLen)

	return key, label, data
}

func writeOTP(digest []byte) uint32 {
	return wasmexport.WriteResult([]byte(keyedhash.OTP(digest)))
}

func main() {}
