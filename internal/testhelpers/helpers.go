// Package testhelpers provides common utilities and helper functions for testing the relay.
//
// It provides functions for dialing the relay over TCP or WebSocket, sending
// protocol lines, and asserting what a peer receives, to reduce code
// duplication in test files.
package testhelpers

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds every blocking helper.
const DefaultTimeout = 2 * time.Second

// LineConn is a TCP client speaking the relay's line protocol.
type LineConn struct {
	net.Conn
	r *bufio.Reader
}

// DialTCP connects to addr and fails the test on error. The connection is
// closed when the test ends.
func DialTCP(t *testing.T, addr string) *LineConn {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &LineConn{Conn: conn, r: bufio.NewReader(conn)}
}

// Send writes line followed by "\n".
func (c *LineConn) Send(t *testing.T, line string) {
	t.Helper()
	if err := c.SetWriteDeadline(time.Now().Add(DefaultTimeout)); err != nil {
		t.Fatalf("Failed to set write deadline: %v", err)
	}
	if _, err := c.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Failed to send %q: %v", line, err)
	}
}

// ReadLine returns the next line including its terminator.
func (c *LineConn) ReadLine(timeout time.Duration) (string, error) {
	if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	return c.r.ReadString('\n')
}

// ExpectLineSkipping reads lines until one equals want, discarding lines
// for which skip returns true. Anything else fails the test.
func (c *LineConn) ExpectLineSkipping(t *testing.T, want string, skip func(string) bool) {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		got, err := c.ReadLine(time.Until(deadline))
		if err != nil {
			t.Fatalf("Expected line %q, got error: %v", want, err)
		}
		if got == want {
			return
		}
		if skip != nil && skip(got) {
			continue
		}
		t.Fatalf("Expected line %q, got %q", want, got)
	}
	t.Fatalf("Timed out waiting for line %q", want)
}

// ExpectNoLine fails the test if a line not matching skip arrives within wait.
func (c *LineConn) ExpectNoLine(t *testing.T, wait time.Duration, skip func(string) bool) {
	t.Helper()
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		got, err := c.ReadLine(time.Until(deadline))
		if err != nil {
			if IsTimeout(err) {
				return
			}
			t.Fatalf("Unexpected read error: %v", err)
		}
		if skip != nil && skip(got) {
			continue
		}
		t.Fatalf("Expected no line, got %q", got)
	}
}

// ExpectClosed reads until the relay closes the connection and returns the
// lines that arrived before it did.
func (c *LineConn) ExpectClosed(t *testing.T, timeout time.Duration) []string {
	t.Helper()
	var lines []string
	deadline := time.Now().Add(timeout)
	for {
		got, err := c.ReadLine(time.Until(deadline))
		if got != "" {
			lines = append(lines, got)
		}
		if err == nil {
			continue
		}
		if IsTimeout(err) {
			t.Fatalf("Connection still open after %s; received %q", timeout, lines)
		}
		if errors.Is(err, io.EOF) || isReset(err) {
			return lines
		}
		t.Fatalf("Unexpected read error: %v", err)
	}
}

// IsHeartbeat reports whether line is a relay heartbeat probe.
func IsHeartbeat(line string) bool { return line == "HEART\n" }

// IsNotice reports whether line is a connect or offline announcement.
func IsNotice(line string) bool {
	return strings.HasPrefix(line, "Client connected, ") || strings.HasPrefix(line, "Client offline, ")
}

// IsHeartbeatOrNotice combines IsHeartbeat and IsNotice.
func IsHeartbeatOrNotice(line string) bool { return IsHeartbeat(line) || IsNotice(line) }

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isReset(err error) bool {
	return strings.Contains(err.Error(), "connection reset by peer")
}

// ConnectWebSocket creates a WebSocket connection to the specified URL with
// the given Origin header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultTimeout,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// ReceiveWebSocketLine reads one text message.
func ReceiveWebSocketLine(conn *websocket.Conn, timeout time.Duration) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	_, data, err := conn.ReadMessage()
	return string(data), err
}
