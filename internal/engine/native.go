package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/snowmerak/passcode/pkg/keyedhash"
)

// nativeBackend computes passcodes in-process with the pure Go primitives.
// It is always available and serves as the reference for the other backends.
// Instances live in a host-side handle table, so "marshaling" the key is
// just retaining it.
type nativeBackend struct {
	mu        sync.Mutex
	next      uint64
	instances map[uint64]nativeInstance
}

type nativeInstance struct {
	algorithm uint32
	key       []byte
}

func newNativeBackend() *nativeBackend {
	return &nativeBackend{
		next:      1,
		instances: make(map[uint64]nativeInstance),
	}
}

func (n *nativeBackend) Name() string { return "native" }

func (n *nativeBackend) Compute(
	_ context.Context,
	algorithm uint32,
	key, label, data []byte,
) (string, error) {
	var digest []byte
	switch algorithm {
	case AlgSha3Kmac128:
		digest = keyedhash.KMAC128(key, label, data, 32)
	case AlgSha3Kmac256:
		digest = keyedhash.KMAC256(key, label, data, 32)
	case AlgBlake3Keyed128:
		digest = keyedhash.Blake3Keyed256(key, data)
	case AlgBlake3Keyed256:
		digest = keyedhash.Blake3Keyed512(key, data)
	default:
		return "", fmt.Errorf("unknown algorithm discriminant %d", algorithm)
	}

	return keyedhash.OTP(digest), nil
}

func (n *nativeBackend) NewInstance(
	_ context.Context,
	algorithm uint32,
	key []byte,
) (uint64, error) {
	if algorithm > AlgBlake3Keyed256 {
		return 0, fmt.Errorf("unknown algorithm discriminant %d", algorithm)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	handle := n.next
	n.next++
	n.instances[handle] = nativeInstance{
		algorithm: algorithm,
		key:       append([]byte(nil), key...),
	}

	return handle, nil
}

func (n *nativeBackend) ComputeInstance(
	ctx context.Context,
	handle uint64,
	data []byte,
) (string, error) {
	n.mu.Lock()
	inst, ok := n.instances[handle]
	n.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown instance handle %d", handle)
	}

	return n.Compute(ctx, inst.algorithm, inst.key, []byte(keyedhash.PasscodeLabel), data)
}

func (n *nativeBackend) FreeInstance(_ context.Context, handle uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.instances[handle]; !ok {
		return fmt.Errorf("unknown instance handle %d", handle)
	}
	delete(n.instances, handle)

	return nil
}

func (n *nativeBackend) Close(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.instances = make(map[uint64]nativeInstance)

	return nil
}
