package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/podtools/podns/internal/k8s"
	"github.com/podtools/podns/internal/nsenter"
	"github.com/podtools/podns/internal/runtime"
)

type fakePodGetter struct {
	pod    *corev1.Pod
	err    error
	called bool
}

func (f *fakePodGetter) GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.pod, nil
}

type fakeRuntime struct {
	kind runtime.Kind

	lookupID  string
	lookupErr error
	lookups   int

	pids   map[string]int
	pidErr error

	closed bool
}

func (f *fakeRuntime) Kind() runtime.Kind { return f.kind }

func (f *fakeRuntime) LookupContainerID(ctx context.Context, pod, namespace, container string) (string, error) {
	f.lookups++
	return f.lookupID, f.lookupErr
}

func (f *fakeRuntime) ResolvePID(ctx context.Context, containerID string) (int, error) {
	if f.pidErr != nil {
		return 0, f.pidErr
	}
	pid, ok := f.pids[containerID]
	if !ok {
		return 0, fmt.Errorf("%w: unknown container %s", runtime.ErrPidUnavailable, containerID)
	}
	return pid, nil
}

func (f *fakeRuntime) Close() error {
	f.closed = true
	return nil
}

type fakeAttacher struct {
	pid int
	err error
}

func (f *fakeAttacher) Attach(pid int) error {
	f.pid = pid
	return f.err
}

func detectStub(rt runtime.Runtime, err error) DetectFunc {
	return func(ctx context.Context, mode runtime.Mode, logger *slog.Logger) (runtime.Runtime, error) {
		return rt, err
	}
}

// podFixture builds a running pod whose containers are all ready, with
// runtime-qualified IDs of the form containerd://cid-<name>.
func podFixture(containers ...string) *corev1.Pod {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: "default"},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}
	for _, name := range containers {
		pod.Spec.Containers = append(pod.Spec.Containers, corev1.Container{Name: name})
		pod.Status.ContainerStatuses = append(pod.Status.ContainerStatuses, corev1.ContainerStatus{
			Name:        name,
			Ready:       true,
			State:       corev1.ContainerState{Running: &corev1.ContainerStateRunning{}},
			ContainerID: "containerd://cid-" + name,
		})
	}
	return pod
}

func newPipeline(pods PodGetter, rt runtime.Runtime, attacher Attacher) *Pipeline {
	return &Pipeline{
		Pods:     pods,
		Detect:   detectStub(rt, nil),
		Attacher: attacher,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

func TestRunResolvesAndAttaches(t *testing.T) {
	// Pod web-1 in default with one running container app on
	// containerd; the task list knows cid-app as PID 4321.
	rt := &fakeRuntime{
		kind: runtime.KindContainerd,
		pids: map[string]int{"cid-app": 4321},
	}
	attacher := &fakeAttacher{}
	p := newPipeline(&fakePodGetter{pod: podFixture("app")}, rt, attacher)

	err := p.Run(t.Context(), Request{
		PodName:     "web-1",
		Namespace:   "default",
		RuntimeMode: runtime.ModeAuto,
	})
	require.NoError(t, err)
	assert.Equal(t, 4321, attacher.pid)
	assert.True(t, rt.closed)
	assert.Zero(t, rt.lookups, "direct identifier must skip the label scan")
}

func TestRunContainerIndexOutOfRange(t *testing.T) {
	rt := &fakeRuntime{kind: runtime.KindContainerd}
	attacher := &fakeAttacher{}
	p := newPipeline(&fakePodGetter{pod: podFixture("app", "sidecar")}, rt, attacher)

	err := p.Run(t.Context(), Request{
		PodName:        "web-1",
		Namespace:      "default",
		ContainerIndex: 2,
		RuntimeMode:    runtime.ModeAuto,
	})
	assert.ErrorIs(t, err, k8s.ErrContainerIndexOutOfRange)
	assert.Contains(t, err.Error(), "app, sidecar")
	assert.Zero(t, attacher.pid, "must not attach after a failed selection")
}

func TestRunPidUnavailable(t *testing.T) {
	// Docker reports PID 0 for the container; the runtime surfaces
	// ErrPidUnavailable and the pipeline stops there.
	rt := &fakeRuntime{
		kind:   runtime.KindDocker,
		pidErr: fmt.Errorf("%w: runtime reported pid 0", runtime.ErrPidUnavailable),
	}
	attacher := &fakeAttacher{}
	p := newPipeline(&fakePodGetter{pod: podFixture("app")}, rt, attacher)

	err := p.Run(t.Context(), Request{
		PodName:     "web-1",
		Namespace:   "default",
		RuntimeMode: runtime.ModeDocker,
	})
	assert.ErrorIs(t, err, runtime.ErrPidUnavailable)
	assert.Zero(t, attacher.pid)
}

func TestRunDetectionFailsBeforePodLookup(t *testing.T) {
	pods := &fakePodGetter{pod: podFixture("app")}
	p := &Pipeline{
		Pods:     pods,
		Detect:   detectStub(nil, fmt.Errorf("%w: ctr absent", runtime.ErrRuntimeUnavailable)),
		Attacher: &fakeAttacher{},
		Logger:   slog.New(slog.DiscardHandler),
	}

	err := p.Run(t.Context(), Request{
		PodName:     "web-1",
		Namespace:   "default",
		RuntimeMode: runtime.ModeContainerd,
	})
	assert.ErrorIs(t, err, runtime.ErrRuntimeUnavailable)
	assert.False(t, pods.called, "pod lookup must not run when detection fails")
}

func TestRunPodErrorsPropagate(t *testing.T) {
	t.Run("pod not found", func(t *testing.T) {
		rt := &fakeRuntime{kind: runtime.KindContainerd}
		p := newPipeline(&fakePodGetter{err: fmt.Errorf("%w: default/web-1", k8s.ErrPodNotFound)}, rt, &fakeAttacher{})

		err := p.Run(t.Context(), Request{PodName: "web-1", Namespace: "default", RuntimeMode: runtime.ModeAuto})
		assert.ErrorIs(t, err, k8s.ErrPodNotFound)
		assert.True(t, rt.closed)
	})

	t.Run("pod not running", func(t *testing.T) {
		pod := podFixture("app")
		pod.Status.Phase = corev1.PodPending
		p := newPipeline(&fakePodGetter{pod: pod}, &fakeRuntime{kind: runtime.KindContainerd}, &fakeAttacher{})

		err := p.Run(t.Context(), Request{PodName: "web-1", Namespace: "default", RuntimeMode: runtime.ModeAuto})
		assert.ErrorIs(t, err, k8s.ErrPodNotRunning)
		assert.Contains(t, err.Error(), "Pending")
	})
}

func TestRunLabelMatchFallback(t *testing.T) {
	pod := podFixture("app")
	pod.Status.ContainerStatuses[0].ContainerID = ""

	t.Run("scan supplies the identifier", func(t *testing.T) {
		rt := &fakeRuntime{
			kind:     runtime.KindContainerd,
			lookupID: "cid-from-labels",
			pids:     map[string]int{"cid-from-labels": 77},
		}
		attacher := &fakeAttacher{}
		p := newPipeline(&fakePodGetter{pod: pod}, rt, attacher)

		err := p.Run(t.Context(), Request{PodName: "web-1", Namespace: "default", RuntimeMode: runtime.ModeAuto})
		require.NoError(t, err)
		assert.Equal(t, 1, rt.lookups)
		assert.Equal(t, 77, attacher.pid)
	})

	t.Run("scan failure aborts the run", func(t *testing.T) {
		rt := &fakeRuntime{
			kind:      runtime.KindContainerd,
			lookupErr: fmt.Errorf("%w: nothing labeled", runtime.ErrContainerIDNotFound),
		}
		attacher := &fakeAttacher{}
		p := newPipeline(&fakePodGetter{pod: pod}, rt, attacher)

		err := p.Run(t.Context(), Request{PodName: "web-1", Namespace: "default", RuntimeMode: runtime.ModeAuto})
		assert.ErrorIs(t, err, runtime.ErrContainerIDNotFound)
		assert.Zero(t, attacher.pid)
	})
}

func TestRunAttachFailure(t *testing.T) {
	rt := &fakeRuntime{
		kind: runtime.KindContainerd,
		pids: map[string]int{"cid-app": 4321},
	}
	attacher := &fakeAttacher{err: fmt.Errorf("%w: /proc/4321/ns/net", nsenter.ErrNamespaceHandleMissing)}
	p := newPipeline(&fakePodGetter{pod: podFixture("app")}, rt, attacher)

	err := p.Run(t.Context(), Request{PodName: "web-1", Namespace: "default", RuntimeMode: runtime.ModeAuto})
	assert.ErrorIs(t, err, nsenter.ErrNamespaceHandleMissing)
}
