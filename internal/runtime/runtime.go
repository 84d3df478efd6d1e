package runtime

import (
	"context"
	"fmt"
)

// Kind identifies a concrete container runtime. The enumeration is
// closed: once detection resolves a Kind it is never "auto" and never
// re-dispatched by string comparison downstream.
type Kind string

const (
	KindContainerd Kind = "containerd"
	KindDocker     Kind = "docker"
)

// Mode is the requested runtime selection: a concrete Kind or automatic
// detection.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeContainerd Mode = Mode(KindContainerd)
	ModeDocker     Mode = Mode(KindDocker)
)

// ParseMode validates a --runtime flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeContainerd, ModeDocker:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unsupported runtime %q (want containerd, docker, or auto)", s)
}

// Kubernetes CRI container label keys, set by the kubelet on every
// container it manages. Both containerd (in the k8s.io namespace) and
// Docker carry them.
const (
	labelPodName       = "io.kubernetes.pod.name"
	labelPodNamespace  = "io.kubernetes.pod.namespace"
	labelContainerName = "io.kubernetes.container.name"
)

// Runtime is the capability contract a detected runtime satisfies.
// Exactly two implementations exist: Containerd and Docker.
type Runtime interface {
	// Kind returns the concrete runtime kind.
	Kind() Kind

	// LookupContainerID finds the runtime-native identifier of the
	// container belonging to the given pod, namespace, and container
	// name, by exact match on the three CRI labels. The scan order is
	// deterministic and the first full match wins.
	LookupContainerID(ctx context.Context, pod, namespace, container string) (string, error)

	// ResolvePID returns the host-visible leading PID of the container
	// with the given runtime-native identifier.
	ResolvePID(ctx context.Context, containerID string) (int, error)

	// Close releases the runtime client connection.
	Close() error
}

// matchLabels reports whether all three CRI labels are present and equal
// to the requested pod, namespace, and container name.
func matchLabels(labels map[string]string, pod, namespace, container string) bool {
	return labels[labelPodName] == pod &&
		labels[labelPodNamespace] == namespace &&
		labels[labelContainerName] == container
}

// checkPID validates a runtime-reported PID. Runtimes signal "no
// process" as zero (Docker reports 0 for an exited container); anything
// non-positive maps to ErrPidUnavailable so an absent PID can never be
// mistaken for a resolvable one.
func checkPID(pid int) (int, error) {
	if pid <= 0 {
		return 0, fmt.Errorf("%w: runtime reported pid %d", ErrPidUnavailable, pid)
	}
	return pid, nil
}
