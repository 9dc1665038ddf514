// Package engine defines the compute backend contract shared by the
// sandboxed WASM module, the subprocess bridge, and the in-process native
// implementation, and selects one of them at startup.
package engine

import "context"

// Wire discriminants for the algorithm argument of the constructor and
// stateless entry points. They are the boundary contract: the registry in
// pkg/otp and the compute module's own dispatch use the same values.
const (
	AlgSha3Kmac128 uint32 = iota
	AlgSha3Kmac256
	AlgBlake3Keyed128
	AlgBlake3Keyed256
)

// Backend is the four-operation compute contract plus the stateful instance
// operations. Every implementation must produce byte-identical passcodes for
// identical inputs; they differ only in where the computation runs.
type Backend interface {
	// Name identifies the backend in logs and diagnostics.
	Name() string

	// Compute runs the stateless contract: one keyed hash over data selected
	// by the wire discriminant, truncated and hex-encoded to the fixed
	// passcode width. The label only participates for the KMAC variants.
	Compute(ctx context.Context, algorithm uint32, key, label, data []byte) (string, error)

	// NewInstance binds (algorithm, key) to backend-side state and returns an
	// opaque handle valid only for this backend instance.
	NewInstance(ctx context.Context, algorithm uint32, key []byte) (uint64, error)

	// ComputeInstance computes a passcode against a bound instance using the
	// fixed passcode label for the KMAC variants.
	ComputeInstance(ctx context.Context, handle uint64, data []byte) (string, error)

	// FreeInstance releases the state behind a handle. A handle must not be
	// used after it is freed.
	FreeInstance(ctx context.Context, handle uint64) error

	// Close releases the backend itself, invalidating all its handles.
	Close(ctx context.Context) error
}
