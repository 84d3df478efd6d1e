// Package cmd provides the command-line interface for podns.
//
// The root command runs the resolution pipeline: it resolves a pod and
// container to a host PID via the Kubernetes API and the detected
// container runtime, then replaces the process with nsenter attached to
// that PID's network namespace.
//
// Command Structure:
//
//	podns <pod-name> [namespace] [flags]   # Resolve and attach
//	podns version                          # Shows version information
//	podns self-update                      # Updates to latest release
//	podns help [command]                   # Shows help information
//
// Flags on the root command:
//
//	-c, --container int    container index within the pod (default 0)
//	-r, --runtime string   containerd, docker, or auto (default "auto")
//	-v, --verbose          debug-level diagnostics on stderr
//	    --pid-ns           also join the container's PID namespace
//	    --kubeconfig path  explicit kubeconfig location
//	    --context name     kubeconfig context override
//	    --in-cluster       use service account credentials
//
// On success the process image is replaced and podns never returns; any
// detection, resolution, or attachment failure exits 1 with a message
// on stderr.
package cmd
