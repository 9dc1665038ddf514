package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Backend selection modes.
const (
	ModeAuto    = "auto"
	ModeSandbox = "sandbox"
	ModeBridge  = "bridge"
	ModeNative  = "native"
)

// Config carries everything backend probing needs.
type Config struct {
	// Mode pins a backend, or ModeAuto to probe.
	Mode string

	// ModulePath locates the compute module binary for the sandbox backend.
	ModulePath string

	// BridgeCommand and BridgeScript configure the subprocess bridge.
	BridgeCommand string
	BridgeScript  string
}

// Select picks a backend once, at startup. In auto mode it probes the
// sandbox first, then the bridge, and falls back to the native backend,
// which is always available; auto selection therefore never fails. A pinned
// mode fails when its backend is unavailable.
func Select(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Mode {
	case "", ModeAuto:
		if b, err := newSandboxBackend(ctx, cfg.ModulePath); err == nil {
			logSelected(b)
			return b, nil
		} else {
			log.Debug().Err(err).Str("module", cfg.ModulePath).Msg("sandbox backend unavailable")
		}

		if b, err := newBridgeBackend(cfg.BridgeCommand, cfg.BridgeScript); err == nil {
			logSelected(b)
			return b, nil
		} else {
			log.Debug().Err(err).Msg("bridge backend unavailable")
		}

		b := newNativeBackend()
		logSelected(b)

		return b, nil

	case ModeSandbox:
		b, err := newSandboxBackend(ctx, cfg.ModulePath)
		if err != nil {
			return nil, fmt.Errorf("sandbox backend: %w", err)
		}
		logSelected(b)

		return b, nil

	case ModeBridge:
		b, err := newBridgeBackend(cfg.BridgeCommand, cfg.BridgeScript)
		if err != nil {
			return nil, fmt.Errorf("bridge backend: %w", err)
		}
		logSelected(b)

		return b, nil

	case ModeNative:
		b := newNativeBackend()
		logSelected(b)

		return b, nil

	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Mode)
	}
}

func logSelected(b Backend) {
	log.Info().
		Str("event", "backend_selected").
		Str("backend", b.Name()).
		Msg("compute backend ready")
}
