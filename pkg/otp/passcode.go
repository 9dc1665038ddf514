package otp

import (
	"fmt"
	"sync"
)

// Passcode binds one (algorithm, key) pair to one backend-side instance so
// the key crosses the compute boundary once, at construction, instead of on
// every call. The handle it holds is only meaningful within the Engine that
// produced it and does not survive that Engine's lifetime.
type Passcode struct {
	engine    *Engine
	algorithm Algorithm
	handle    uint64

	mu     sync.Mutex
	closed bool
}

// New constructs a Passcode on the process-wide default Engine.
func New(algorithm Algorithm, key []byte) (*Passcode, error) {
	return Default().NewPasscode(algorithm, key)
}

// NewPasscode validates the inputs, marshals the key once, and constructs
// the backend-side instance. The key is validated before any boundary
// interaction; a rejected call has no side effects.
func (e *Engine) NewPasscode(algorithm Algorithm, key []byte) (*Passcode, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key is nil", ErrInvalidKey)
	}
	if !algorithm.Valid() {
		return nil, fmt.Errorf("%w: discriminant %d", ErrInvalidAlgorithm, uint32(algorithm))
	}

	handle, err := e.backend.NewInstance(e.ctx, uint32(algorithm), key)
	if err != nil {
		return nil, computeFailure(err)
	}

	return &Passcode{engine: e, algorithm: algorithm, handle: handle}, nil
}

// Compute derives the 12-character hexadecimal passcode for a challenge.
// The challenge is ephemeral: it is validated, marshaled for the duration of
// the call, and released before Compute returns.
func (p *Passcode) Compute(challenge []byte) (string, error) {
	if challenge == nil {
		return "", fmt.Errorf("%w: challenge is nil", ErrInvalidData)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}

	code, err := p.engine.backend.ComputeInstance(p.engine.ctx, p.handle, challenge)
	if err != nil {
		return "", computeFailure(err)
	}

	return code, nil
}

// Algorithm returns the algorithm this Passcode was constructed with.
func (p *Passcode) Algorithm() Algorithm {
	return p.algorithm
}

// AlgorithmName returns the canonical algorithm display name. It never
// fails.
func (p *Passcode) AlgorithmName() string {
	return p.algorithm.String()
}

// Close releases the backend-side instance state. Closing an already closed
// Passcode is a no-op.
func (p *Passcode) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.engine.backend.FreeInstance(p.engine.ctx, p.handle); err != nil {
		return computeFailure(err)
	}

	return nil
}
