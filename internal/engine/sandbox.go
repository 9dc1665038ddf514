package engine

import (
	"context"
	"fmt"

	"github.com/snowmerak/passcode/internal/sandbox"
)

// sandboxBackend runs the contract inside the wazero-hosted compute module.
type sandboxBackend struct {
	rt *sandbox.Runtime
}

func newSandboxBackend(ctx context.Context, modulePath string) (*sandboxBackend, error) {
	rt, err := sandbox.LoadFile(ctx, modulePath)
	if err != nil {
		return nil, err
	}

	return &sandboxBackend{rt: rt}, nil
}

func (s *sandboxBackend) Name() string { return "sandbox" }

func (s *sandboxBackend) Compute(
	ctx context.Context,
	algorithm uint32,
	key, label, data []byte,
) (string, error) {
	switch algorithm {
	case AlgSha3Kmac128:
		return s.rt.ComputeKMAC(ctx, sandbox.ExportSha3Kmac128, key, label, data)
	case AlgSha3Kmac256:
		return s.rt.ComputeKMAC(ctx, sandbox.ExportSha3Kmac256, key, label, data)
	case AlgBlake3Keyed128:
		return s.rt.ComputeKeyed(ctx, sandbox.ExportBlake3Keyed128, key, data)
	case AlgBlake3Keyed256:
		return s.rt.ComputeKeyed(ctx, sandbox.ExportBlake3Keyed256, key, data)
	default:
		return "", fmt.Errorf("unknown algorithm discriminant %d", algorithm)
	}
}

func (s *sandboxBackend) NewInstance(
	ctx context.Context,
	algorithm uint32,
	key []byte,
) (uint64, error) {
	return s.rt.NewInstance(ctx, algorithm, key)
}

func (s *sandboxBackend) ComputeInstance(
	ctx context.Context,
	handle uint64,
	data []byte,
) (string, error) {
	return s.rt.ComputeInstance(ctx, handle, data)
}

func (s *sandboxBackend) FreeInstance(ctx context.Context, handle uint64) error {
	return s.rt.FreeInstance(ctx, handle)
}

func (s *sandboxBackend) Close(ctx context.Context) error {
	return s.rt.Close(ctx)
}
