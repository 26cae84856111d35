/*
Package observability exposes the conversation engine to Prometheus.

A Recorder turns lifecycle hooks into counters and also counts what happens
around the engine: sessions started, inputs rejected by the lifecycle
service, and finalizers that failed. Each Recorder owns its registry so tests
and multiple servers in one process do not collide.
*/
package observability
