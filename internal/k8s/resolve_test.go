package k8s

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// runningPod builds a pod fixture with the given containers, all ready
// and running, with runtime-qualified IDs.
func runningPod(containers ...string) *corev1.Pod {
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
			ContainerID: "containerd://id-" + name,
		})
	}
	return pod
}

func TestResolveContainer(t *testing.T) {
	t.Run("selects container by ordinal", func(t *testing.T) {
		pod := runningPod("app", "sidecar")

		record, err := ResolveContainer(pod, 1)
		require.NoError(t, err)
		assert.Equal(t, "sidecar", record.Name)
		assert.Equal(t, "id-sidecar", record.RuntimeID)
		assert.True(t, record.Ready)
		assert.True(t, record.Running)
	})

	t.Run("status order does not need to match pod spec order", func(t *testing.T) {
		pod := runningPod("app", "sidecar")
		pod.Status.ContainerStatuses[0], pod.Status.ContainerStatuses[1] =
			pod.Status.ContainerStatuses[1], pod.Status.ContainerStatuses[0]

		record, err := ResolveContainer(pod, 0)
		require.NoError(t, err)
		assert.Equal(t, "app", record.Name)
		assert.Equal(t, "id-app", record.RuntimeID)
	})

	t.Run("rejects non-running phases", func(t *testing.T) {
		phases := []corev1.PodPhase{
			corev1.PodPending, corev1.PodSucceeded, corev1.PodFailed, corev1.PodUnknown,
		}
		for _, phase := range phases {
			pod := runningPod("app")
			pod.Status.Phase = phase

			_, err := ResolveContainer(pod, 0)
			assert.ErrorIs(t, err, ErrPodNotRunning)
			assert.Contains(t, err.Error(), string(phase))
		}
	})

	t.Run("index out of range lists container names", func(t *testing.T) {
		pod := runningPod("app", "sidecar")

		_, err := ResolveContainer(pod, 2)
		assert.ErrorIs(t, err, ErrContainerIndexOutOfRange)
		assert.Contains(t, err.Error(), "app, sidecar")
	})

	t.Run("negative index is out of range", func(t *testing.T) {
		_, err := ResolveContainer(runningPod("app"), -1)
		assert.ErrorIs(t, err, ErrContainerIndexOutOfRange)
	})

	t.Run("container without status is not running", func(t *testing.T) {
		pod := runningPod("app")
		pod.Status.ContainerStatuses = nil

		_, err := ResolveContainer(pod, 0)
		assert.ErrorIs(t, err, ErrContainerNotRunning)
	})

	t.Run("not ready container fails", func(t *testing.T) {
		pod := runningPod("app")
		pod.Status.ContainerStatuses[0].Ready = false

		_, err := ResolveContainer(pod, 0)
		assert.ErrorIs(t, err, ErrContainerNotRunning)
	})

	t.Run("waiting container fails", func(t *testing.T) {
		pod := runningPod("app")
		pod.Status.ContainerStatuses[0].State = corev1.ContainerState{
			Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"},
		}

		_, err := ResolveContainer(pod, 0)
		assert.ErrorIs(t, err, ErrContainerNotRunning)
	})

	t.Run("missing container ID leaves RuntimeID empty", func(t *testing.T) {
		pod := runningPod("app")
		pod.Status.ContainerStatuses[0].ContainerID = ""

		record, err := ResolveContainer(pod, 0)
		require.NoError(t, err)
		assert.Empty(t, record.RuntimeID)
	})
}

func TestParseContainerID(t *testing.T) {
	tests := []struct {
		name      string
		qualified string
		want      string
		wantErr   bool
	}{
		{"containerd scheme", "containerd://abc123", "abc123", false},
		{"docker scheme", "docker://deadbeef", "deadbeef", false},
		{"no scheme passes through", "abc123", "abc123", false},
		{"idempotent on stripped input", "abc123", "abc123", false},
		{"empty input", "", "", true},
		{"scheme only", "containerd://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContainerID(tt.qualified)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrContainerIDNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseContainerIDIdempotent(t *testing.T) {
	once, err := ParseContainerID("containerd://abc123")
	require.NoError(t, err)
	twice, err := ParseContainerID(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}
