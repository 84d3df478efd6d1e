package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/containerd/containerd"
	tasks "github.com/containerd/containerd/api/services/tasks/v1"
	"github.com/containerd/containerd/namespaces"
	"google.golang.org/grpc"

	"github.com/podtools/podns/internal/logging"
)

const (
	// containerdSocket is the default containerd API socket path.
	containerdSocket = "/run/containerd/containerd.sock"

	// k8sNamespace is the containerd namespace the kubelet runs
	// containers in.
	k8sNamespace = "k8s.io"
)

// containerdClient is the slice of *containerd.Client this package uses.
type containerdClient interface {
	Version(ctx context.Context) (containerd.Version, error)
	Containers(ctx context.Context, filters ...string) ([]containerd.Container, error)
	Close() error
}

// taskService is the slice of the containerd tasks service this package
// uses: the task list (primary PID lookup) and the per-task detail query
// (fallback).
type taskService interface {
	List(ctx context.Context, req *tasks.ListTasksRequest, opts ...grpc.CallOption) (*tasks.ListTasksResponse, error)
	Get(ctx context.Context, req *tasks.GetRequest, opts ...grpc.CallOption) (*tasks.GetResponse, error)
}

// Containerd implements Runtime against a containerd daemon.
type Containerd struct {
	client containerdClient
	tasks  taskService
	logger *slog.Logger
}

var _ Runtime = (*Containerd)(nil)

// NewContainerd connects to the local containerd daemon and verifies it
// is reachable. The socket must exist and a version round trip must
// succeed within the probe timeout.
func NewContainerd(ctx context.Context, logger *slog.Logger) (*Containerd, error) {
	if _, err := os.Stat(containerdSocket); err != nil {
		return nil, fmt.Errorf("containerd socket %s not present: %w", containerdSocket, err)
	}

	client, err := containerd.New(containerdSocket)
	if err != nil {
		return nil, fmt.Errorf("connecting to containerd at %s: %w", containerdSocket, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := client.Version(probeCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("containerd version probe failed: %w", err)
	}

	return &Containerd{
		client: client,
		tasks:  client.TaskService(),
		logger: logging.WithRuntime(logger, string(KindContainerd)),
	}, nil
}

// Kind returns KindContainerd.
func (c *Containerd) Kind() Kind {
	return KindContainerd
}

// LookupContainerID scans the containers in the k8s.io namespace and
// returns the ID of the first one whose three CRI labels match exactly.
// The list is sorted by ID before the scan so the "first match wins"
// policy is deterministic rather than an accident of iteration order.
func (c *Containerd) LookupContainerID(ctx context.Context, pod, namespace, container string) (string, error) {
	ctx = namespaces.WithNamespace(ctx, k8sNamespace)

	containers, err := c.client.Containers(ctx)
	if err != nil {
		return "", fmt.Errorf("listing containerd containers: %w", err)
	}
	sort.Slice(containers, func(i, j int) bool {
		return containers[i].ID() < containers[j].ID()
	})

	c.logger.Debug("Scanning containerd containers for label match",
		logging.Pod(pod), logging.Namespace(namespace), logging.Container(container),
		slog.Int("candidates", len(containers)))

	for _, ctr := range containers {
		labels, err := ctr.Labels(ctx)
		if err != nil {
			return "", fmt.Errorf("fetching labels of containerd container %s: %w", ctr.ID(), err)
		}
		if matchLabels(labels, pod, namespace, container) {
			c.logger.Debug("Label match", logging.ContainerID(ctr.ID()))
			return ctr.ID(), nil
		}
	}

	return "", fmt.Errorf("%w: no containerd container labeled for container %q of pod %s/%s",
		ErrContainerIDNotFound, container, namespace, pod)
}

// ResolvePID returns the leading PID of the task backing the given
// container. The primary method walks the task list and requires exact
// ID equality, never a prefix or substring match, so a sibling container
// whose ID extends this one can never be picked up. When the list yields
// nothing usable, a per-task detail query is tried for the same ID.
func (c *Containerd) ResolvePID(ctx context.Context, containerID string) (int, error) {
	ctx = namespaces.WithNamespace(ctx, k8sNamespace)

	if resp, err := c.tasks.List(ctx, &tasks.ListTasksRequest{}); err == nil {
		for _, t := range resp.Tasks {
			if t.ID != containerID {
				continue
			}
			if pid, err := checkPID(int(t.Pid)); err == nil {
				return pid, nil
			}
			// Listed but without a usable PID; the detail query below
			// is the documented fallback.
			break
		}
	} else {
		c.logger.Debug("Task list failed, falling back to task detail query", logging.Err(err))
	}

	resp, err := c.tasks.Get(ctx, &tasks.GetRequest{ContainerID: containerID})
	if err != nil {
		return 0, fmt.Errorf("%w: containerd task %s: %v", ErrPidUnavailable, containerID, err)
	}
	if resp.Process == nil {
		return 0, fmt.Errorf("%w: containerd task %s has no process", ErrPidUnavailable, containerID)
	}
	pid, err := checkPID(int(resp.Process.Pid))
	if err != nil {
		return 0, fmt.Errorf("containerd task %s: %w", containerID, err)
	}
	return pid, nil
}

// Close closes the containerd client connection.
func (c *Containerd) Close() error {
	return c.client.Close()
}
