package logging

import (
	"log/slog"
	"os"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation   = "operation"
	KeyNamespace   = "namespace"
	KeyPod         = "pod"
	KeyContainer   = "container"
	KeyRuntime     = "runtime"
	KeyContainerID = "container_id"
	KeyPID         = "pid"
	KeyStatus      = "status"
	KeyError       = "error"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Setup builds the process-wide logger. All diagnostics go to stderr so
// they never interleave with the shell the tool hands off to. With
// verbose enabled the level drops to Debug.
func Setup(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithRuntime returns a logger with the runtime attribute set.
func WithRuntime(logger *slog.Logger, runtime string) *slog.Logger {
	return logger.With(slog.String(KeyRuntime, runtime))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Namespace returns a slog attribute for the Kubernetes namespace.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Pod returns a slog attribute for the pod name.
func Pod(name string) slog.Attr {
	return slog.String(KeyPod, name)
}

// Container returns a slog attribute for the container name.
func Container(name string) slog.Attr {
	return slog.String(KeyContainer, name)
}

// Runtime returns a slog attribute for the container runtime kind.
func Runtime(kind string) slog.Attr {
	return slog.String(KeyRuntime, kind)
}

// ContainerID returns a slog attribute for a runtime-native container ID.
func ContainerID(id string) slog.Attr {
	return slog.String(KeyContainerID, id)
}

// PID returns a slog attribute for a host process ID.
func PID(pid int) slog.Attr {
	return slog.Int(KeyPID, pid)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
