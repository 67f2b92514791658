// Package server hosts the Fiber HTTP service and its request middleware
// chain. It bootstraps Fiber, attaches recover and request-id middlewares,
// injects the corridor service built from config, and exposes the app
// constructor that the binary entrypoint reuses. Route handlers live in the
// routes subpackage so they can be registered against a test app directly.
// Future phases may extend this package with TLS or admin surfaces, so keep
// exports narrow and accept explicit dependencies.
package server
