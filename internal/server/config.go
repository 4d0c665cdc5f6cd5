// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay.
package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
)

// RateLimitConfig defines the parameters for per-connection line rate
// limiting. A zero Burst disables the limiter.
type RateLimitConfig struct {
	Burst          int           `env:"RELAY_RATE_LIMIT_BURST,default=0"`
	RefillInterval time.Duration `env:"RELAY_RATE_LIMIT_REFILL_INTERVAL,default=1s"`
}

// Config holds the relay's listen addresses, capacities, and liveness settings.
type Config struct {
	Host     string `env:"RELAY_HOST,default=::"`
	Port     int    `env:"RELAY_PORT,default=7000"`
	HTTPAddr string `env:"RELAY_HTTP_ADDR,default=:8080"`
	LogLevel string `env:"RELAY_LOG_LEVEL,default=info"`

	AllowedOrigins []string `env:"RELAY_ALLOWED_ORIGINS,default=http://localhost:8080"`

	MaxClients           int `env:"RELAY_MAX_CLIENTS,default=10000"`
	MaxChannels          int `env:"RELAY_MAX_CHANNELS,default=30000"`
	MaxMembersPerChannel int `env:"RELAY_MAX_MEMBERS_PER_CHANNEL,default=10000"`

	HeartbeatInterval time.Duration `env:"RELAY_HEARTBEAT_INTERVAL,default=2s"`
	// MissedHeartbeats is how many probes in a row may go unanswered; the
	// connection is evicted on the sweep after that.
	MissedHeartbeats int `env:"RELAY_MISSED_HEARTBEATS,default=2"`

	MaxLineBytes  int           `env:"RELAY_MAX_LINE_BYTES,default=1024"`
	SendQueueSize int           `env:"RELAY_SEND_QUEUE,default=256"`
	WriteTimeout  time.Duration `env:"RELAY_WRITE_TIMEOUT,default=10s"`

	RateLimit RateLimitConfig
}

const (
	defaultPort              = 7000
	defaultHeartbeatInterval = 2 * time.Second
	defaultMissedHeartbeats  = 2
	defaultSendQueueSize     = 256
	defaultWriteTimeout      = 10 * time.Second
	defaultRefillInterval    = time.Second
)

func defaultConfig() Config {
	return Config{
		Host:     "::",
		Port:     defaultPort,
		HTTPAddr: ":8080",
		LogLevel: "info",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxClients:           DefaultMaxClients,
		MaxChannels:          DefaultMaxChannels,
		MaxMembersPerChannel: DefaultMaxMembersPerChannel,
		HeartbeatInterval:    defaultHeartbeatInterval,
		MissedHeartbeats:     defaultMissedHeartbeats,
		MaxLineBytes:         DefaultMaxLineBytes,
		SendQueueSize:        defaultSendQueueSize,
		WriteTimeout:         defaultWriteTimeout,
		RateLimit: RateLimitConfig{
			RefillInterval: defaultRefillInterval,
		},
	}
}

// sanitize replaces out-of-range values with defaults. A zero Port is kept so
// the OS can pick one.
func (cfg Config) sanitize() Config {
	if cfg.Port < 0 || cfg.Port > 65535 {
		cfg.Port = defaultPort
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.MaxChannels <= 0 {
		cfg.MaxChannels = DefaultMaxChannels
	}
	if cfg.MaxMembersPerChannel <= 0 {
		cfg.MaxMembersPerChannel = DefaultMaxMembersPerChannel
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.MissedHeartbeats <= 0 {
		cfg.MissedHeartbeats = defaultMissedHeartbeats
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = defaultSendQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.RateLimit.Burst < 0 {
		cfg.RateLimit.Burst = 0
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaultRefillInterval
	}
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// Address returns the TCP address the relay binds to.
func (cfg Config) Address() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// NewConfigFromEnv creates a Config from RELAY_* environment variables.
// Unset variables fall back to their defaults; a value that does not parse
// is an error.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg = cfg.sanitize()
	return &cfg, nil
}
