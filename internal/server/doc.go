// Package server implements the WebSocket transport of the walkie-talkie relay.
//
// The implementation is organized into specialized files for configuration,
// clients, routing, listeners, and HTTP handlers. Every accepted connection
// becomes a Client whose lifecycle is reported to a relay.Supervisor, so
// connections from the plain and the TLS listener share one broadcast domain.
package server
