package otp

import (
	"context"
	"fmt"
	"sync"

	"github.com/snowmerak/passcode/internal/engine"
)

// Engine owns one selected compute backend. An Engine is expensive to build
// when the sandbox backend is selected (the module binary is parsed and
// validated), so it should be constructed once and shared; its methods are
// safe for concurrent use.
type Engine struct {
	//nolint:containedctx // stored intentionally so the public surface stays
	// free of contexts; every boundary call is a synchronous round trip.
	ctx     context.Context
	backend engine.Backend
}

type engineOptions struct {
	ctx           context.Context
	mode          string
	modulePath    string
	bridgeCommand string
	bridgeScript  string
}

// Option configures an Engine under construction.
type Option func(*engineOptions)

// WithContext sets the context used for every boundary call the Engine
// makes. Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *engineOptions) { o.ctx = ctx }
}

// WithMode pins the backend: "sandbox", "bridge", "native", or "auto" to
// probe in that order. Defaults to auto.
func WithMode(mode string) Option {
	return func(o *engineOptions) { o.mode = mode }
}

// WithModulePath sets the path of the compute module binary for the sandbox
// backend. Defaults to "passcode.wasm" in the working directory.
func WithModulePath(path string) Option {
	return func(o *engineOptions) { o.modulePath = path }
}

// WithBridge configures the subprocess bridge: the interpreter command and
// the path of the Node.js implementation it loads.
func WithBridge(command, script string) Option {
	return func(o *engineOptions) { o.bridgeCommand = command; o.bridgeScript = script }
}

// NewEngine selects a backend per the options and returns an Engine bound to
// it. In auto mode selection cannot fail: the native backend is always
// available as the last resort.
func NewEngine(opts ...Option) (*Engine, error) {
	o := engineOptions{
		ctx:           context.Background(),
		mode:          engine.ModeAuto,
		modulePath:    "passcode.wasm",
		bridgeCommand: "node",
	}
	for _, opt := range opts {
		opt(&o)
	}

	backend, err := engine.Select(o.ctx, engine.Config{
		Mode:          o.mode,
		ModulePath:    o.modulePath,
		BridgeCommand: o.bridgeCommand,
		BridgeScript:  o.bridgeScript,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{ctx: o.ctx, backend: backend}, nil
}

var (
	defaultEngine *Engine
	defaultOnce   sync.Once
)

// Default returns the process-wide shared Engine, building it with default
// options on first use. The shared Engine lives until process exit and is
// never closed; callers needing explicit lifecycle control should construct
// their own with NewEngine.
func Default() *Engine {
	defaultOnce.Do(func() {
		// Auto mode cannot fail.
		defaultEngine, _ = NewEngine()
	})

	return defaultEngine
}

// BackendName identifies the backend this Engine selected.
func (e *Engine) BackendName() string {
	return e.backend.Name()
}

// Close releases the backend and invalidates every Passcode constructed from
// this Engine.
func (e *Engine) Close() error {
	return e.backend.Close(e.ctx)
}

// Sha3Kmac128 computes a stateless SHA3-KMAC-128 passcode over data with the
// given key and customization label.
func (e *Engine) Sha3Kmac128(key, label, data []byte) (string, error) {
	return e.compute(SHA3KMAC128, key, label, data)
}

// Sha3Kmac256 computes a stateless SHA3-KMAC-256 passcode over data with the
// given key and customization label.
func (e *Engine) Sha3Kmac256(key, label, data []byte) (string, error) {
	return e.compute(SHA3KMAC256, key, label, data)
}

// Blake3KeyedMode128 computes a stateless BLAKE3 keyed-mode passcode with
// 128-bit security over data with the given key.
func (e *Engine) Blake3KeyedMode128(key, data []byte) (string, error) {
	return e.compute(BLAKE3KeyedMode128, key, nil, data)
}

// Blake3KeyedMode256 computes a stateless BLAKE3 keyed-mode passcode with
// 256-bit security over data with the given key.
func (e *Engine) Blake3KeyedMode256(key, data []byte) (string, error) {
	return e.compute(BLAKE3KeyedMode256, key, nil, data)
}

func (e *Engine) compute(alg Algorithm, key, label, data []byte) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: key is nil", ErrInvalidKey)
	}
	if data == nil {
		return "", fmt.Errorf("%w: challenge is nil", ErrInvalidData)
	}

	code, err := e.backend.Compute(e.ctx, uint32(alg), key, label, data)
	if err != nil {
		return "", computeFailure(err)
	}

	return code, nil
}
