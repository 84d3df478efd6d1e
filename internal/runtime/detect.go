package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/podtools/podns/internal/logging"
)

// probeTimeout bounds the connectivity probes run during detection.
const probeTimeout = 2 * time.Second

// Factories are package variables so detection order and failure
// handling can be exercised in tests without local daemons.
var (
	newContainerd = func(ctx context.Context, logger *slog.Logger) (Runtime, error) {
		return NewContainerd(ctx, logger)
	}
	newDocker = func(ctx context.Context, logger *slog.Logger) (Runtime, error) {
		return NewDocker(ctx, logger)
	}
)

// Detect resolves the requested mode to a connected Runtime.
//
// An explicit mode probes only that runtime and fails with
// ErrRuntimeUnavailable when the socket is missing or the daemon
// unreachable. Auto mode probes containerd first, then Docker; the
// priority is fixed because containerd is the more common
// Kubernetes-native runtime. Probes are read-only.
func Detect(ctx context.Context, mode Mode, logger *slog.Logger) (Runtime, error) {
	switch mode {
	case ModeContainerd:
		rt, err := newContainerd(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
		}
		return rt, nil

	case ModeDocker:
		rt, err := newDocker(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
		}
		return rt, nil

	case ModeAuto:
		rt, err := newContainerd(ctx, logger)
		if err == nil {
			logger.Debug("Detected runtime", logging.Runtime(string(KindContainerd)))
			return rt, nil
		}
		logger.Debug("Containerd probe failed", logging.Err(err))

		rt, err = newDocker(ctx, logger)
		if err == nil {
			logger.Debug("Detected runtime", logging.Runtime(string(KindDocker)))
			return rt, nil
		}
		logger.Debug("Docker probe failed", logging.Err(err))

		return nil, fmt.Errorf("%w: probed containerd and docker", ErrNoRuntimeDetected)
	}

	return nil, fmt.Errorf("unsupported runtime mode %q", mode)
}
