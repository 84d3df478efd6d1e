package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/podtools/podns/internal/logging"
)

// dockerSocket is the default Docker daemon socket path, used for the
// presence check when DOCKER_HOST does not point elsewhere.
const dockerSocket = "/var/run/docker.sock"

// dockerAPI is the slice of the Docker client this package uses.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	Close() error
}

// Docker implements Runtime against a Docker daemon.
type Docker struct {
	cli    dockerAPI
	logger *slog.Logger
}

var _ Runtime = (*Docker)(nil)

// NewDocker connects to the local Docker daemon and verifies it is
// reachable. With the default socket transport the socket must exist;
// a ping round trip must succeed within the probe timeout either way.
func NewDocker(ctx context.Context, logger *slog.Logger) (*Docker, error) {
	if os.Getenv(client.EnvOverrideHost) == "" {
		if _, err := os.Stat(dockerSocket); err != nil {
			return nil, fmt.Errorf("docker socket %s not present: %w", dockerSocket, err)
		}
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := cli.Ping(probeCtx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("docker ping failed: %w", err)
	}

	return &Docker{
		cli:    cli,
		logger: logging.WithRuntime(logger, string(KindDocker)),
	}, nil
}

// Kind returns KindDocker.
func (d *Docker) Kind() Kind {
	return KindDocker
}

// LookupContainerID lists the running containers carrying the three CRI
// labels for the requested pod, namespace, and container name, and
// returns the ID of the first match. The label filter is applied server
// side; the scan rechecks exact equality and keeps the daemon's return
// order, first full match wins.
func (d *Docker) LookupContainerID(ctx context.Context, pod, namespace, containerName string) (string, error) {
	f := filters.NewArgs(
		filters.Arg("label", labelPodName+"="+pod),
		filters.Arg("label", labelPodNamespace+"="+namespace),
		filters.Arg("label", labelContainerName+"="+containerName),
	)

	summaries, err := d.cli.ContainerList(ctx, container.ListOptions{Filters: f})
	if err != nil {
		return "", fmt.Errorf("listing docker containers: %w", err)
	}

	d.logger.Debug("Scanning docker containers for label match",
		logging.Pod(pod), logging.Namespace(namespace), logging.Container(containerName),
		slog.Int("candidates", len(summaries)))

	for _, s := range summaries {
		if matchLabels(s.Labels, pod, namespace, containerName) {
			d.logger.Debug("Label match", logging.ContainerID(s.ID))
			return s.ID, nil
		}
	}

	return "", fmt.Errorf("%w: no docker container labeled for container %q of pod %s/%s",
		ErrContainerIDNotFound, containerName, namespace, pod)
}

// ResolvePID inspects the container and returns its PID. Docker reports
// PID 0 for an exited container, which maps to ErrPidUnavailable.
func (d *Docker) ResolvePID(ctx context.Context, containerID string) (int, error) {
	info, err := d.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return 0, fmt.Errorf("%w: inspecting docker container %s: %v", ErrPidUnavailable, containerID, err)
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return 0, fmt.Errorf("%w: docker container %s has no state", ErrPidUnavailable, containerID)
	}
	pid, err := checkPID(info.State.Pid)
	if err != nil {
		return 0, fmt.Errorf("docker container %s: %w", containerID, err)
	}
	return pid, nil
}

// Close closes the Docker client connection.
func (d *Docker) Close() error {
	return d.cli.Close()
}
