package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// kubernetesClient implements the Client interface using client-go.
type kubernetesClient struct {
	config *ClientConfig

	clientset  kubernetes.Interface
	restConfig *rest.Config

	kubeconfigData *clientcmdapi.Config
	currentContext string
}

// NewClient creates a new Kubernetes client with the given configuration.
func NewClient(config *ClientConfig) (*kubernetesClient, error) {
	if config == nil {
		return nil, fmt.Errorf("client configuration is required")
	}

	// Set defaults
	if config.QPSLimit == 0 {
		config.QPSLimit = DefaultQPSLimit
	}
	if config.BurstLimit == 0 {
		config.BurstLimit = DefaultBurstLimit
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout * time.Second
	}

	client := &kubernetesClient{
		config: config,
	}

	// Handle authentication mode
	if config.InCluster {
		client.currentContext = InClusterContext

		if err := client.validateInClusterEnvironment(); err != nil {
			return nil, fmt.Errorf("in-cluster authentication not available: %w", err)
		}

		if config.Logger != nil {
			config.Logger.Info("Using in-cluster authentication")
		}
	} else {
		if err := client.loadKubeconfig(); err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}

		if config.Context != "" {
			client.currentContext = config.Context
		} else {
			client.currentContext = client.kubeconfigData.CurrentContext
		}

		if _, exists := client.kubeconfigData.Contexts[client.currentContext]; !exists && client.currentContext != "" {
			return nil, fmt.Errorf("context %q does not exist in kubeconfig", client.currentContext)
		}

		if config.Logger != nil {
			config.Logger.Info("Using kubeconfig authentication", "context", client.currentContext)
		}
	}

	restConfig, err := client.buildRestConfig()
	if err != nil {
		return nil, err
	}
	restConfig.QPS = config.QPSLimit
	restConfig.Burst = config.BurstLimit
	restConfig.Timeout = config.Timeout
	client.restConfig = restConfig

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}
	client.clientset = clientset

	return client, nil
}

// validateInClusterEnvironment checks if the required in-cluster authentication files are present.
func (c *kubernetesClient) validateInClusterEnvironment() error {
	if _, err := os.Stat(DefaultTokenPath); os.IsNotExist(err) {
		return fmt.Errorf("service account token not found at %s", DefaultTokenPath)
	}

	if _, err := os.Stat(DefaultCACertPath); os.IsNotExist(err) {
		return fmt.Errorf("service account CA certificate not found at %s", DefaultCACertPath)
	}

	return nil
}

// loadKubeconfig loads the kubeconfig from the specified path or default locations.
func (c *kubernetesClient) loadKubeconfig() error {
	{
		kconf := os.Getenv("KUBECONFIG")
		if strings.HasPrefix(kconf, "~/") {
			uhd, _ := os.UserHomeDir()
			kconf = filepath.Join(uhd, kconf[2:])
		}

		if kconf != "" && c.config.KubeconfigPath == "" {
			c.config.KubeconfigPath = kconf
		}
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if c.config.KubeconfigPath != "" {
		loadingRules.ExplicitPath = c.config.KubeconfigPath
	}

	config := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{},
	)

	rawConfig, err := config.RawConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	c.kubeconfigData = &rawConfig

	return nil
}

// buildRestConfig builds a rest.Config for the selected context or the
// in-cluster environment.
func (c *kubernetesClient) buildRestConfig() (*rest.Config, error) {
	if c.config.InCluster {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster config: %w", err)
		}
		return restConfig, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if c.config.KubeconfigPath != "" {
		loadingRules.ExplicitPath = c.config.KubeconfigPath
	}

	overrides := &clientcmd.ConfigOverrides{}
	if c.currentContext != "" {
		overrides.CurrentContext = c.currentContext
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)
	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create rest config for context %q: %w", c.currentContext, err)
	}
	return restConfig, nil
}

// CurrentContext returns the kubeconfig context in use.
func (c *kubernetesClient) CurrentContext() string {
	return c.currentContext
}

// GetPod retrieves a pod by namespace and name. Any API failure,
// including a 404, maps to ErrPodNotFound: from the pipeline's point of
// view an unreachable API server and a missing pod end the run the same
// way.
func (c *kubernetesClient) GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	if c.config.Logger != nil {
		c.config.Logger.Debug("Fetching pod", "namespace", namespace, "pod", name)
	}

	pod, err := c.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrPodNotFound, namespace, name, err)
	}
	if pod == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrPodNotFound, namespace, name)
	}
	return pod, nil
}
