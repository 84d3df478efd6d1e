// Package k8s implements the pod-resolution stage of the pipeline.
//
// It wraps client-go behind a small Client interface, loads cluster
// credentials from a kubeconfig (or the in-cluster service account), and
// turns a (pod, namespace, container index) reference into a validated
// ContainerRecord: the pod must be Running, the index must be in range,
// and the selected container must be ready and running.
//
// The package also implements the direct container-identifier strategy:
// parsing the runtime-qualified ID string reported in the pod's
// container status (for example "containerd://<hex>") into the bare
// runtime-native identifier.
package k8s
