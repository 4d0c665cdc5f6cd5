// Package server adapts TCP and WebSocket connections to the line-oriented
// Transport the hub works with.
package server

import (
	"bytes"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is one peer endpoint. ReadLine is only called from the client's
// read pump and Write only from its write pump; Close may be called from the
// hub at any time and must unblock both.
type Transport interface {
	// ReadLine blocks until one complete line arrives and returns it without
	// its terminator.
	ReadLine() ([]byte, error)
	// Write sends one "\n"-terminated line.
	Write(line []byte) error
	Close() error
	RemoteAddr() net.Addr
}

type tcpTransport struct {
	conn         net.Conn
	lines        *LineReader
	writeTimeout time.Duration
}

// NewTCPTransport frames conn into lines of at most maxLine bytes.
func NewTCPTransport(conn net.Conn, maxLine int, writeTimeout time.Duration) Transport {
	return &tcpTransport{
		conn:         conn,
		lines:        NewLineReader(conn, maxLine),
		writeTimeout: writeTimeout,
	}
}

func (t *tcpTransport) ReadLine() ([]byte, error) { return t.lines.ReadLine() }

func (t *tcpTransport) Write(line []byte) error {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := t.conn.Write(line)
	return err
}

func (t *tcpTransport) Close() error        { return t.conn.Close() }
func (t *tcpTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

// wsTransport usually carries one protocol line per WebSocket message. A
// message holding several "\n"-separated lines yields each of them in order.
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	// pending holds lines left over from the last multi-line message.
	pending [][]byte
}

// NewWebSocketTransport limits inbound messages to maxLine bytes; larger
// messages fail the read the way an overlong TCP line does. Each outbound
// line is sent as its own text message without the terminator.
func NewWebSocketTransport(conn *websocket.Conn, maxLine int, writeTimeout time.Duration) Transport {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	conn.SetReadLimit(int64(maxLine))
	return &wsTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *wsTransport) ReadLine() ([]byte, error) {
	for len(t.pending) == 0 {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		data = bytes.TrimSuffix(data, []byte{'\n'})
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			t.pending = append(t.pending, bytes.TrimSuffix(line, []byte{'\r'}))
		}
	}

	line := t.pending[0]
	t.pending[0] = nil
	t.pending = t.pending[1:]
	return line, nil
}

func (t *wsTransport) Write(line []byte) error {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}
	return t.conn.WriteMessage(websocket.TextMessage, bytes.TrimSuffix(line, []byte{'\n'}))
}

func (t *wsTransport) Close() error        { return t.conn.Close() }
func (t *wsTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }
