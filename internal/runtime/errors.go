package runtime

import "errors"

// Sentinel errors for runtime detection and PID resolution.
var (
	// ErrRuntimeUnavailable indicates an explicitly requested runtime is
	// missing or its daemon is unreachable.
	ErrRuntimeUnavailable = errors.New("runtime unavailable")

	// ErrNoRuntimeDetected indicates the automatic probe found no
	// usable runtime.
	ErrNoRuntimeDetected = errors.New("no container runtime detected")

	// ErrContainerIDNotFound indicates the label-match scan produced no
	// container for the requested pod/namespace/container triple.
	ErrContainerIDNotFound = errors.New("container identifier not found")

	// ErrPidUnavailable indicates the runtime could not produce a
	// usable (positive) process ID for the container.
	ErrPidUnavailable = errors.New("pid unavailable")
)
