// Package pipeline wires the resolution stages together.
//
// A Request carries the immutable invocation parameters; Run executes
// the stages strictly in order (runtime detection, pod resolution,
// container identifier mapping, PID resolution, namespace attachment),
// with each stage producing exactly the input the next one needs. There
// are no retries and no partial results: the first failure aborts the
// run, and a successful final stage replaces the process image, so Run
// returning nil is unreachable in practice.
package pipeline
