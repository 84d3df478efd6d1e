package k8s

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/podtools/podns/internal/logging"
)

// Client defines the interface for the Kubernetes operations the
// pipeline needs. It is deliberately narrow: a single pod lookup per
// invocation, no resource management.
type Client interface {
	// GetPod retrieves a pod by namespace and name.
	GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error)

	// CurrentContext returns the kubeconfig context in use, or
	// InClusterContext when running with service account credentials.
	CurrentContext() string
}

// ClientConfig holds configuration for the Kubernetes client.
type ClientConfig struct {
	// Kubeconfig settings
	KubeconfigPath string
	Context        string

	// InCluster uses service account authentication instead of a kubeconfig.
	InCluster bool

	// Performance settings
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	// Logging
	Logger logging.Logger
}
