package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"

	"github.com/podtools/podns/internal/k8s"
	"github.com/podtools/podns/internal/logging"
	"github.com/podtools/podns/internal/runtime"
)

// Request holds the invocation parameters. It is constructed once from
// the CLI arguments and never mutated; stage results flow through local
// values, not ambient state.
type Request struct {
	PodName        string
	Namespace      string
	ContainerIndex int
	RuntimeMode    runtime.Mode
}

// PodGetter is the slice of the Kubernetes client the pipeline needs.
type PodGetter interface {
	GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error)
}

// Attacher is the terminal stage contract. Attach only returns on
// failure; success replaces the process image.
type Attacher interface {
	Attach(pid int) error
}

// DetectFunc resolves a runtime mode to a connected runtime.
type DetectFunc func(ctx context.Context, mode runtime.Mode, logger *slog.Logger) (runtime.Runtime, error)

// Pipeline bundles the stage dependencies.
type Pipeline struct {
	Pods     PodGetter
	Detect   DetectFunc
	Attacher Attacher
	Logger   *slog.Logger
}

// Run executes the resolution pipeline for the given request. Each
// stage either produces the input the next stage needs or terminates
// the whole run.
func (p *Pipeline) Run(ctx context.Context, req Request) error {
	logger := p.Logger.With(logging.Pod(req.PodName), logging.Namespace(req.Namespace))

	rt, err := p.Detect(ctx, req.RuntimeMode, p.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	logger.Debug("Runtime detected", logging.Runtime(string(rt.Kind())))

	pod, err := p.Pods.GetPod(ctx, req.Namespace, req.PodName)
	if err != nil {
		return err
	}

	record, err := k8s.ResolveContainer(pod, req.ContainerIndex)
	if err != nil {
		return err
	}
	logger.Debug("Container selected",
		logging.Container(record.Name), slog.Int("index", req.ContainerIndex))

	// Prefer the identifier the orchestrator already reported; fall
	// back to the runtime's label scan when the status carried none.
	containerID := record.RuntimeID
	if containerID == "" {
		logger.Debug("No runtime ID in pod status, scanning runtime labels")
		containerID, err = rt.LookupContainerID(ctx, req.PodName, req.Namespace, record.Name)
		if err != nil {
			return err
		}
	}
	logger.Debug("Container identifier mapped", logging.ContainerID(containerID))

	pid, err := rt.ResolvePID(ctx, containerID)
	if err != nil {
		return err
	}
	logger.Info("Resolved container process",
		logging.Container(record.Name), logging.ContainerID(containerID), logging.PID(pid))

	// One-way handoff: on success nothing below this call runs.
	if err := p.Attacher.Attach(pid); err != nil {
		return fmt.Errorf("attaching to pid %d: %w", pid, err)
	}
	return nil
}
