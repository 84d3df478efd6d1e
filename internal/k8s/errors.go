package k8s

import "errors"

// Sentinel errors for the pod-resolution stage. Callers match them with
// errors.Is; the wrapped message carries the remediation detail.
var (
	// ErrPodNotFound indicates the API lookup failed or returned no pod.
	ErrPodNotFound = errors.New("pod not found")

	// ErrPodNotRunning indicates the pod exists but its aggregate phase
	// is not Running.
	ErrPodNotRunning = errors.New("pod not running")

	// ErrContainerIndexOutOfRange indicates the requested container
	// ordinal is not within the pod's declared container list.
	ErrContainerIndexOutOfRange = errors.New("container index out of range")

	// ErrContainerNotRunning indicates the selected container is not
	// both ready and in the running sub-state.
	ErrContainerNotRunning = errors.New("container not running")

	// ErrContainerIDNotFound indicates no runtime-native container
	// identifier could be produced for the selected container.
	ErrContainerIDNotFound = errors.New("container identifier not found")
)
