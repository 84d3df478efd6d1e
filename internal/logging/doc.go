// Package logging provides structured logging utilities for podns.
//
// It centralizes slog attribute construction so that pipeline stages log
// the same keys for the same concepts (pod, namespace, container,
// runtime, pid), and provides a small Logger interface plus a slog-backed
// adapter for packages that should stay decoupled from the concrete
// logging implementation.
//
// All output goes to stderr: stdout is reserved for the interactive
// shell the tool eventually execs into.
package logging
