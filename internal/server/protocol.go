// Package server parses and formats the relay's line protocol.
package server

import (
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

// Verb is a protocol command word.
type Verb string

const (
	VerbBleed Verb = "BLEED"
	VerbJoin  Verb = "JOIN"
	VerbPart  Verb = "PART"
	VerbMsg   Verb = "MSG"
	VerbHeart Verb = "HEART"
)

// maxFields is the most fields a line is split into; MSG text keeps its spaces.
const maxFields = 4

// arity is the closed set of commands a peer may send, keyed by verb.
var arity = map[Verb]int{
	VerbBleed: 1,
	VerbJoin:  2,
	VerbPart:  2,
	VerbMsg:   4,
}

// Command is one parsed client line.
type Command struct {
	Verb    Verb
	Channel string
	// Tag is MSG's second field. It is forwarded untouched and never interpreted.
	Tag  string
	Text string
	// Raw is the line as received, without its terminator.
	Raw string
}

// ParseLine decodes one line. It returns ErrDecode for bytes that are not
// valid UTF-8 and ErrMalformed for an unknown verb or a wrong field count.
func ParseLine(line []byte) (Command, error) {
	if !utf8.Valid(line) {
		return Command{}, ErrDecode
	}

	raw := string(line)
	fields := strings.SplitN(raw, " ", maxFields)
	verb := Verb(fields[0])

	want, ok := arity[verb]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown verb %q", ErrMalformed, fields[0])
	}
	if len(fields) != want {
		return Command{}, fmt.Errorf("%w: %s takes %d fields, got %d", ErrMalformed, verb, want, len(fields))
	}

	cmd := Command{Verb: verb, Raw: raw}
	switch verb {
	case VerbJoin, VerbPart:
		cmd.Channel = fields[1]
	case VerbMsg:
		cmd.Tag = fields[1]
		cmd.Channel = fields[2]
		cmd.Text = fields[3]
	}
	return cmd, nil
}

// Line returns the command as it is relayed to other members.
func (c Command) Line() []byte {
	return []byte(c.Raw + "\n")
}

var heartbeatProbe = []byte(string(VerbHeart) + "\n")

func connectedNotice(ip, port string) []byte {
	return []byte(fmt.Sprintf("Client connected, IP: %s, port: %s\n", ip, port))
}

func offlineNotice(ip, port string) []byte {
	return []byte(fmt.Sprintf("Client offline, IP: %s, port: %s\n", ip, port))
}

// splitAddr returns the host and port of addr as they appear in notices.
func splitAddr(addr net.Addr) (string, string) {
	if addr == nil {
		return "", ""
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), ""
	}
	return host, port
}
