// Package server decides which browser origins may open a WebSocket.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

var errOriginIncomplete = errors.New("origin needs a scheme and a host")

// originPolicy is built once from Config.AllowedOrigins and read-only after.
type originPolicy struct {
	any     bool
	origins map[string]struct{}
}

// newOriginPolicy skips blank and unparsable entries; "*" allows any origin.
func newOriginPolicy(entries []string, log *slog.Logger) *originPolicy {
	p := &originPolicy{origins: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch entry {
		case "":
		case "*":
			p.any = true
		default:
			origin, err := canonicalOrigin(entry)
			if err != nil {
				log.Warn("config.origin.invalid", "origin", entry, "err", err)
				continue
			}
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

// canonicalOrigin reduces raw to lower-case scheme://host[:port].
func canonicalOrigin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errOriginIncomplete
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}

// allows rejects a request without an Origin header even under "*".
func (p *originPolicy) allows(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" {
		return false
	}
	if p.any {
		return true
	}
	origin, err := canonicalOrigin(header)
	if err != nil {
		return false
	}
	_, ok := p.origins[origin]
	return ok
}
