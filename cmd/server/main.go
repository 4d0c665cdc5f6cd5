package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/linerelay/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		return err
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "address to bind the relay to")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "relay TCP port")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "health/metrics/websocket listen address (empty disables)")
	flag.StringVar(&cfg.LogLevel, "log.level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.Parse()

	logger := server.NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.NewApp(*cfg, logger).Run(ctx)
}
