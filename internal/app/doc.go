// Package app owns the application-layer dispatcher of the hub link.
//
// Ownership boundary:
// - application context lifecycle (Init/Deinit)
// - negotiated service registry
// - datagram length validation and routing
// - built-in loopback, discovery and non-handle endpoints
//
// Dispatch is synchronous and run-to-completion. A Context must not receive
// concurrent ProcessDatagram calls, and the registry is frozen once the first
// datagram has been processed.
package app
