// Package server implements a line-oriented chat relay.
//
// Clients connect over TCP (or WebSocket on the side HTTP listener), join
// named channels, and exchange newline-terminated text lines. A single Hub
// goroutine owns the bounded connection and channel registries and runs the
// HEART/BLEED liveness cycle, so registry state is never shared between
// goroutines.
//
// The implementation is organized into specialized files for configuration,
// registries, framing, protocol parsing, the hub loop, transports, and HTTP
// handlers.
package server
