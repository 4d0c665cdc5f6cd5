package server

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestAppRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.HTTPAddr = "127.0.0.1:0"

	app := NewApp(cfg, newLogger(io.Discard, "error"))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() err=%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if app.Hub().ClientCount() != 0 {
		t.Fatalf("ClientCount()=%d after shutdown", app.Hub().ClientCount())
	}
}

func TestAppRunFailsWhenPortTaken(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() err=%v", err)
	}
	defer taken.Close()

	cfg := defaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = taken.Addr().(*net.TCPAddr).Port
	cfg.HTTPAddr = ""

	err = NewApp(cfg, newLogger(io.Discard, "error")).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "listen") {
		t.Fatalf("Run() err=%v want a listen error", err)
	}
}
