// Package server runs the relay: the TCP listener, the hub event loop, and
// the optional side HTTP listener, started and stopped as one unit.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App owns one relay process worth of components.
type App struct {
	cfg     Config
	log     *slog.Logger
	hub     *Hub
	metrics *Metrics
}

// NewApp wires a hub and metrics from cfg.
func NewApp(cfg Config, log *slog.Logger) *App {
	cfg = cfg.sanitize()
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	metrics := NewMetrics()
	return &App{
		cfg:     cfg,
		log:     log,
		hub:     NewHub(cfg, log, metrics),
		metrics: metrics,
	}
}

// Hub returns the app's event loop.
func (a *App) Hub() *Hub { return a.hub }

// Run binds every listener, then serves until ctx is cancelled or a
// component fails. Bind errors are returned before anything is served.
func (a *App) Run(ctx context.Context) error {
	ln, err := ListenTCP(a.cfg)
	if err != nil {
		return err
	}

	var (
		httpSrv *http.Server
		httpLn  net.Listener
	)
	if a.cfg.HTTPAddr != "" {
		httpLn, err = net.Listen("tcp", a.cfg.HTTPAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen http %s: %w", a.cfg.HTTPAddr, err)
		}
		httpSrv = CreateServer(a.cfg.HTTPAddr, SetupRoutes(a.hub, a.log))
	}

	a.log.Info("server.start",
		"addr", ln.Addr().String(),
		"http_addr", a.cfg.HTTPAddr,
		"max_clients", a.cfg.MaxClients,
		"heartbeat_interval", a.cfg.HeartbeatInterval,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run()
		return nil
	})
	g.Go(func() error {
		return a.hub.Serve(ln)
	})
	if httpSrv != nil {
		g.Go(func() error {
			if err := httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("server.stop")
		var errs []error
		if httpSrv != nil {
			errs = append(errs, ShutdownServer(httpSrv, shutdownTimeout, a.log))
		}
		errs = append(errs, a.hub.Shutdown(shutdownTimeout))
		return errors.Join(errs...)
	})

	err = g.Wait()
	a.log.Info("server.stopped")
	return err
}
