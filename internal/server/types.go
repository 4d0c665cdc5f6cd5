// Package server defines shared error values, event types, and utility
// helpers that are reused across client and hub logic.
package server

import (
	"errors"
	"strings"
)

var (
	// ErrAdmissionFull is returned when a connection registry is at capacity.
	ErrAdmissionFull = errors.New("server: connection registry full")

	// ErrChannelJoin is the parent of every join rejection.
	ErrChannelJoin = errors.New("server: channel join rejected")
	// ErrChannelLimit means the channel does not exist and no new channel fits.
	ErrChannelLimit = joinError("channel limit reached")
	// ErrChannelFull means the channel exists but has no free member slot.
	ErrChannelFull = joinError("channel is full")

	// ErrDecode marks a line that is not valid UTF-8 text.
	ErrDecode = errors.New("server: line is not valid text")
	// ErrMalformed marks a line with an unknown verb or wrong field count.
	ErrMalformed = errors.New("server: malformed command")
	// ErrLineTooLong is a transport failure: the peer sent more than the
	// per-line cap without a terminator.
	ErrLineTooLong = errors.New("server: line exceeds maximum length")
)

func joinError(msg string) error {
	return &channelJoinError{msg: msg}
}

type channelJoinError struct{ msg string }

func (e *channelJoinError) Error() string        { return "server: " + e.msg }
func (e *channelJoinError) Is(target error) bool { return target == ErrChannelJoin }

// Role tells which kind of peer a connection registry holds.
type Role int

const (
	// RoleClient is an end-user connection.
	RoleClient Role = iota
	// RoleServer is reserved for relay-to-relay links, which are not served.
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Eviction reasons, used for logs and the evictions metric.
const (
	reasonPeerClosed       = "peer_closed"
	reasonReadError        = "read_error"
	reasonLineTooLong      = "line_too_long"
	reasonWriteError       = "write_error"
	reasonSendFailed       = "send_failed"
	reasonHeartbeatTimeout = "heartbeat_timeout"
	reasonProbeFailed      = "probe_failed"
	reasonShutdown         = "shutdown"
)

// inboundLine is one framed line read by a client's read pump.
type inboundLine struct {
	client *Client
	line   []byte
}

// transportFailure reports that a client's transport broke.
type transportFailure struct {
	client *Client
	reason string
	err    error
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
