// Package runtime detects the local container runtime and resolves
// runtime-native container identifiers to host PIDs.
//
// Two runtimes are supported, containerd and Docker, behind the closed
// Runtime interface. Detection is either explicit or automatic; the
// automatic probe tries containerd before Docker because containerd is
// the more common Kubernetes-native runtime. A runtime counts as
// available only when its API socket exists and a lightweight
// connectivity probe (version/ping) succeeds.
//
// For containerd, PID resolution lists the tasks known to the runtime
// and picks the row whose container ID matches exactly, falling back to
// a per-task detail query. For Docker, a single container inspection
// yields the PID; Docker reports PID 0 for an exited container.
package runtime
