package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Names of the module exports the runtime resolves at load time.
const (
	ExportAllocate        = "allocate"
	ExportDeallocate      = "deallocate"
	ExportPasscodeNew     = "passcode_new"
	ExportPasscodeCompute = "passcode_compute"
	ExportPasscodeFree    = "passcode_free"
	ExportSha3Kmac128     = "sha3_kmac_128"
	ExportSha3Kmac256     = "sha3_kmac_256"
	ExportBlake3Keyed128  = "blake3_keyed_mode_128"
	ExportBlake3Keyed256  = "blake3_keyed_mode_256"
)

// requiredExports lists every export a conforming compute module must have,
// beyond the allocator pair resolved separately.
var requiredExports = []string{
	ExportPasscodeNew,
	ExportPasscodeCompute,
	ExportPasscodeFree,
	ExportSha3Kmac128,
	ExportSha3Kmac256,
	ExportBlake3Keyed128,
	ExportBlake3Keyed256,
}

// bufferAlign is the alignment passed to the module allocator. Inputs and
// results are plain byte buffers, so byte alignment suffices.
const bufferAlign = 1

// Runtime hosts one instantiation of the compute module. Instantiation is
// expensive, so a Runtime is loaded once and shared; a single mutex
// serialises each full write, invoke, read, free sequence because the module
// allocator is not reentrant-safe.
type Runtime struct {
	runtime wazero.Runtime
	module  api.Module
	b       boundary
	mu      sync.Mutex
}

// Load compiles and instantiates the compute module from its binary image
// and resolves every required export.
func Load(ctx context.Context, wasm []byte) (*Runtime, error) {
	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile module: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName("passcode").
		WithStartFunctions() // resolve exports ourselves, run nothing on load.

	module, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate module: %w", err)
	}

	b, err := newModuleBoundary(module)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	log.Info().
		Str("event", "module_loaded").
		Int("image_bytes", len(wasm)).
		Msg("compute module instantiated")

	return &Runtime{runtime: rt, module: module, b: b}, nil
}

// LoadFile reads the module binary from path and loads it.
func LoadFile(ctx context.Context, path string) (*Runtime, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module image: %w", err)
	}

	return Load(ctx, wasm)
}

// ComputeKMAC runs one of the KMAC stateless exports: inputs are written
// into module memory, the export is invoked, the result record is decoded,
// and every input buffer is freed whether or not the invoke succeeded.
func (r *Runtime) ComputeKMAC(
	ctx context.Context,
	export string,
	key, label, data []byte,
) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bu := newBuffers(r.b)
	defer bu.release(ctx)

	keyPtr, err := bu.writeIn(ctx, key)
	if err != nil {
		return "", err
	}
	labelPtr, err := bu.writeIn(ctx, label)
	if err != nil {
		return "", err
	}
	dataPtr, err := bu.writeIn(ctx, data)
	if err != nil {
		return "", err
	}

	record, err := r.b.Invoke(ctx, export,
		uint64(keyPtr), uint64(len(key)),
		uint64(labelPtr), uint64(len(label)),
		uint64(dataPtr), uint64(len(data)),
	)
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", export, err)
	}

	return decodeResult(ctx, r.b, record)
}

// ComputeKeyed runs one of the BLAKE3 keyed-mode stateless exports, which
// take no label.
func (r *Runtime) ComputeKeyed(
	ctx context.Context,
	export string,
	key, data []byte,
) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bu := newBuffers(r.b)
	defer bu.release(ctx)

	keyPtr, err := bu.writeIn(ctx, key)
	if err != nil {
		return "", err
	}
	dataPtr, err := bu.writeIn(ctx, data)
	if err != nil {
		return "", err
	}

	record, err := r.b.Invoke(ctx, export,
		uint64(keyPtr), uint64(len(key)),
		uint64(dataPtr), uint64(len(data)),
	)
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", export, err)
	}

	return decodeResult(ctx, r.b, record)
}

// NewInstance marshals the key once and invokes the constructor export,
// returning the opaque handle the module bound to (algorithm, key). The
// handle is only meaningful within this Runtime's instantiation.
func (r *Runtime) NewInstance(ctx context.Context, algorithm uint32, key []byte) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bu := newBuffers(r.b)
	defer bu.release(ctx)

	keyPtr, err := bu.writeIn(ctx, key)
	if err != nil {
		return 0, err
	}

	handle, err := r.b.Invoke(ctx, ExportPasscodeNew,
		uint64(algorithm), uint64(keyPtr), uint64(len(key)),
	)
	if err != nil {
		return 0, fmt.Errorf("invoke %s: %w", ExportPasscodeNew, err)
	}
	if handle == 0 {
		return 0, errors.New("module rejected instance construction")
	}

	return handle, nil
}

// ComputeInstance marshals only the challenge and invokes the stateful
// compute export against a previously constructed instance.
func (r *Runtime) ComputeInstance(ctx context.Context, handle uint64, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bu := newBuffers(r.b)
	defer bu.release(ctx)

	dataPtr, err := bu.writeIn(ctx, data)
	if err != nil {
		return "", err
	}

	record, err := r.b.Invoke(ctx, ExportPasscodeCompute,
		handle, uint64(dataPtr), uint64(len(data)),
	)
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", ExportPasscodeCompute, err)
	}

	return decodeResult(ctx, r.b, record)
}

// FreeInstance releases module-side instance state for a handle.
func (r *Runtime) FreeInstance(ctx context.Context, handle uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.b.Invoke(ctx, ExportPasscodeFree, handle); err != nil {
		return fmt.Errorf("invoke %s: %w", ExportPasscodeFree, err)
	}

	return nil
}

// Close shuts the underlying WASM runtime down, invalidating every handle
// this Runtime produced.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// moduleBoundary implements boundary over a wazero module instance with
// cached export handles.
type moduleBoundary struct {
	module  api.Module
	alloc   api.Function
	dealloc api.Function
	exports map[string]api.Function
}

func newModuleBoundary(module api.Module) (*moduleBoundary, error) {
	if module.Memory() == nil {
		return nil, errors.New("module exports no memory")
	}

	alloc := module.ExportedFunction(ExportAllocate)
	if alloc == nil {
		return nil, fmt.Errorf("module does not export %q", ExportAllocate)
	}
	dealloc := module.ExportedFunction(ExportDeallocate)
	if dealloc == nil {
		return nil, fmt.Errorf("module does not export %q", ExportDeallocate)
	}

	exports := make(map[string]api.Function, len(requiredExports))
	for _, name := range requiredExports {
		fn := module.ExportedFunction(name)
		if fn == nil {
			return nil, fmt.Errorf("module does not export %q", name)
		}
		exports[name] = fn
	}

	return &moduleBoundary{
		module:  module,
		alloc:   alloc,
		dealloc: dealloc,
		exports: exports,
	}, nil
}

func (m *moduleBoundary) Allocate(ctx context.Context, n uint32) (uint32, error) {
	results, err := m.alloc.Call(ctx, uint64(n), bufferAlign)
	if err != nil {
		return 0, fmt.Errorf("module allocator: %w", err)
	}
	if len(results) < 1 {
		return 0, errors.New("module allocator returned no result")
	}

	ptr := api.DecodeU32(results[0])
	if ptr == 0 {
		return 0, errors.New("module allocator exhausted")
	}

	return ptr, nil
}

func (m *moduleBoundary) Write(ptr uint32, data []byte) error {
	if !m.module.Memory().Write(ptr, data) {
		return errors.New("memory write out of range")
	}

	return nil
}

func (m *moduleBoundary) Read(ptr, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	view, ok := m.module.Memory().Read(ptr, n)
	if !ok {
		return nil, errors.New("memory read out of range")
	}

	// Read returns a view into module memory; copy before the region is freed.
	return append([]byte(nil), view...), nil
}

func (m *moduleBoundary) Invoke(ctx context.Context, name string, args ...uint64) (uint64, error) {
	fn, ok := m.exports[name]
	if !ok {
		return 0, fmt.Errorf("unknown export %q", name)
	}

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("export %s trapped: %w", name, err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	return results[0], nil
}

func (m *moduleBoundary) Free(ctx context.Context, ptr, n uint32) {
	if _, err := m.dealloc.Call(ctx, uint64(ptr), uint64(n), bufferAlign); err != nil {
		log.Debug().
			Err(err).
			Uint32("ptr", ptr).
			Uint32("len", n).
			Msg("module deallocator failed")
	}
}
