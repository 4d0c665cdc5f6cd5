package server

import (
	"reflect"
	"testing"
	"time"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("RELAY_HOST", "127.0.0.1")
	t.Setenv("RELAY_PORT", "7100")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "http://a.test;http://b.test")
	t.Setenv("RELAY_HEARTBEAT_INTERVAL", "500ms")
	t.Setenv("RELAY_MAX_CLIENTS", "3")
	t.Setenv("RELAY_RATE_LIMIT_BURST", "20")

	cfg, err := NewConfigFromEnv()
	if err != nil {
		t.Fatalf("NewConfigFromEnv() err=%v", err)
	}

	if cfg.Address() != "127.0.0.1:7100" {
		t.Fatalf("Address()=%q", cfg.Address())
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins=%q want=%q", cfg.AllowedOrigins, want)
	}
	if cfg.HeartbeatInterval != 500*time.Millisecond {
		t.Fatalf("HeartbeatInterval=%v", cfg.HeartbeatInterval)
	}
	if cfg.MaxClients != 3 {
		t.Fatalf("MaxClients=%d", cfg.MaxClients)
	}
	if cfg.RateLimit.Burst != 20 || cfg.RateLimit.RefillInterval != time.Second {
		t.Fatalf("RateLimit=%+v", cfg.RateLimit)
	}
	if cfg.MissedHeartbeats != defaultMissedHeartbeats || cfg.MaxLineBytes != DefaultMaxLineBytes {
		t.Fatalf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestNewConfigFromEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"RELAY_PORT":               "not-a-port",
		"RELAY_HEARTBEAT_INTERVAL": "soon",
		"RELAY_MAX_CLIENTS":        "lots",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			cfg, err := NewConfigFromEnv()
			if err == nil {
				t.Fatalf("%s=%q accepted, cfg=%+v", key, value, cfg)
			}
		})
	}
}

func TestDefaultConfigAddress(t *testing.T) {
	t.Parallel()

	if got := defaultConfig().Address(); got != "[::]:7000" {
		t.Fatalf("Address()=%q want=%q", got, "[::]:7000")
	}
}

func TestConfigSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    func(*Config)
		check func(Config) bool
	}{
		{
			name:  "zero port kept",
			in:    func(c *Config) { c.Port = 0 },
			check: func(c Config) bool { return c.Port == 0 },
		},
		{
			name:  "port out of range",
			in:    func(c *Config) { c.Port = 70000 },
			check: func(c Config) bool { return c.Port == defaultPort },
		},
		{
			name:  "non-positive capacities",
			in:    func(c *Config) { c.MaxClients, c.MaxChannels, c.MaxMembersPerChannel = 0, -1, 0 },
			check: func(c Config) bool {
				return c.MaxClients == DefaultMaxClients &&
					c.MaxChannels == DefaultMaxChannels &&
					c.MaxMembersPerChannel == DefaultMaxMembersPerChannel
			},
		},
		{
			name:  "liveness settings",
			in:    func(c *Config) { c.HeartbeatInterval, c.MissedHeartbeats = -time.Second, 0 },
			check: func(c Config) bool {
				return c.HeartbeatInterval == defaultHeartbeatInterval && c.MissedHeartbeats == defaultMissedHeartbeats
			},
		},
		{
			name:  "negative burst disables limiting",
			in:    func(c *Config) { c.RateLimit = RateLimitConfig{Burst: -5} },
			check: func(c Config) bool {
				return c.RateLimit.Burst == 0 && c.RateLimit.RefillInterval == defaultRefillInterval
			},
		},
		{
			name:  "queue and line sizes",
			in:    func(c *Config) { c.SendQueueSize, c.MaxLineBytes, c.WriteTimeout = 0, 0, 0 },
			check: func(c Config) bool {
				return c.SendQueueSize == defaultSendQueueSize &&
					c.MaxLineBytes == DefaultMaxLineBytes &&
					c.WriteTimeout == defaultWriteTimeout
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tc.in(&cfg)
			if got := cfg.sanitize(); !tc.check(got) {
				t.Fatalf("sanitize() = %+v", got)
			}
		})
	}
}

func TestConfigSanitizeCopiesOrigins(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	out := cfg.sanitize()
	out.AllowedOrigins[0] = "http://changed.test"
	if cfg.AllowedOrigins[0] == "http://changed.test" {
		t.Fatal("sanitize shares the origin slice with its input")
	}
}
