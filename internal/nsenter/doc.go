// Package nsenter hands terminal control to a process inside another
// process's network namespace.
//
// The attach step verifies that the nsenter tool exists and that the
// target PID's /proc/<pid>/ns/net handle is still present, then replaces
// the current process image with nsenter joined to that namespace,
// running an interactive shell. The handle check closes (but cannot
// eliminate) the window in which the target process exits after PID
// resolution; when it loses that race the attach fails instead of
// entering the wrong namespace.
package nsenter
