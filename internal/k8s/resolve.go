package k8s

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// ContainerRecord describes the container selected from a pod, with the
// status fields the rest of the pipeline needs. RuntimeID is the bare
// runtime-native identifier; it is empty when the orchestrator has not
// (yet) reported one, in which case the label-match strategy applies.
type ContainerRecord struct {
	Name      string
	RuntimeID string
	Ready     bool
	Running   bool
}

// ResolveContainer validates the pod's lifecycle phase and selects the
// container at the given ordinal from the pod's declared container list.
//
// The pod must be in the Running aggregate phase. The index is validated
// against the pod spec's container list (declaration order); the error
// for an out-of-range index lists the valid container names. Container
// statuses are matched by name because their order is not guaranteed to
// follow the pod spec.
func ResolveContainer(pod *corev1.Pod, index int) (ContainerRecord, error) {
	if phase := pod.Status.Phase; phase != corev1.PodRunning {
		return ContainerRecord{}, fmt.Errorf("%w: pod %s/%s is in phase %q",
			ErrPodNotRunning, pod.Namespace, pod.Name, phase)
	}

	containers := pod.Spec.Containers
	if index < 0 || index >= len(containers) {
		return ContainerRecord{}, fmt.Errorf("%w: index %d, pod %s/%s has %d container(s): %s",
			ErrContainerIndexOutOfRange, index, pod.Namespace, pod.Name,
			len(containers), strings.Join(containerNames(pod), ", "))
	}

	record := ContainerRecord{Name: containers[index].Name}

	status, ok := containerStatus(pod, record.Name)
	if !ok {
		// No status yet: the container cannot be running.
		return ContainerRecord{}, fmt.Errorf("%w: container %q of pod %s/%s has no reported status",
			ErrContainerNotRunning, record.Name, pod.Namespace, pod.Name)
	}

	record.Ready = status.Ready
	record.Running = status.State.Running != nil
	if !record.Ready || !record.Running {
		return ContainerRecord{}, fmt.Errorf("%w: container %q of pod %s/%s (ready=%t, running=%t)",
			ErrContainerNotRunning, record.Name, pod.Namespace, pod.Name, record.Ready, record.Running)
	}

	if status.ContainerID != "" {
		id, err := ParseContainerID(status.ContainerID)
		if err != nil {
			return ContainerRecord{}, err
		}
		record.RuntimeID = id
	}

	return record, nil
}

// ParseContainerID strips the URI-style scheme prefix from a
// runtime-qualified container ID as reported in a pod's container status
// (for example "containerd://abc123" or "docker://abc123"). Input
// without a scheme passes through unchanged, so the function is
// idempotent.
func ParseContainerID(qualified string) (string, error) {
	id := qualified
	if i := strings.Index(qualified, "://"); i >= 0 {
		id = qualified[i+len("://"):]
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty identifier in %q", ErrContainerIDNotFound, qualified)
	}
	return id, nil
}

// containerNames returns the pod's container names in declaration order.
func containerNames(pod *corev1.Pod) []string {
	names := make([]string, 0, len(pod.Spec.Containers))
	for _, c := range pod.Spec.Containers {
		names = append(names, c.Name)
	}
	return names
}

// containerStatus finds the status entry for the named container.
func containerStatus(pod *corev1.Pod, name string) (corev1.ContainerStatus, bool) {
	for _, s := range pod.Status.ContainerStatuses {
		if s.Name == name {
			return s, true
		}
	}
	return corev1.ContainerStatus{}, false
}
