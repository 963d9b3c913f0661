package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %v, want :8080", cfg.ListenPort)
	}
	if cfg.BasePort != 1986 {
		t.Errorf("BasePort = %v, want 1986", cfg.BasePort)
	}
	if cfg.RoutingMode != RoutingDynamic {
		t.Errorf("RoutingMode = %v, want %v", cfg.RoutingMode, RoutingDynamic)
	}
	if cfg.PingInterval != time.Second {
		t.Errorf("PingInterval = %v, want 1s", cfg.PingInterval)
	}
	if cfg.TerminateOnExit {
		t.Error("TerminateOnExit should default to false")
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled without KIDRA_REDIS_ADDR")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KIDRA_LISTEN_PORT", ":9000")
	t.Setenv("KIDRA_ROUTING_MODE", "STATIC")
	t.Setenv("KIDRA_BASE_PORT", "4000")
	t.Setenv("KIDRA_PING_INTERVAL", "250ms")
	t.Setenv("KIDRA_REDIS_ADDR", "localhost:6379")
	t.Setenv("KIDRA_ALLOWED_CIDRS", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("KIDRA_TRUST_PROXY", "true")

	cfg := Load()

	if cfg.ListenPort != ":9000" {
		t.Errorf("ListenPort = %v, want :9000", cfg.ListenPort)
	}
	if cfg.RoutingMode != RoutingStatic {
		t.Errorf("RoutingMode = %v, want %v", cfg.RoutingMode, RoutingStatic)
	}
	if cfg.BasePort != 4000 {
		t.Errorf("BasePort = %v, want 4000", cfg.BasePort)
	}
	if cfg.PingInterval != 250*time.Millisecond {
		t.Errorf("PingInterval = %v, want 250ms", cfg.PingInterval)
	}
	if !cfg.RedisEnabled() {
		t.Error("Redis should be enabled when KIDRA_REDIS_ADDR is set")
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy should be enabled by KIDRA_TRUST_PROXY=true")
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v, want 2 entries", cfg.AllowedCIDRS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown routing mode", mutate: func(c *Config) { c.RoutingMode = "magic" }, wantErr: true},
		{name: "ping interval too short", mutate: func(c *Config) { c.PingInterval = 10 * time.Millisecond }, wantErr: true},
		{name: "ping interval too long", mutate: func(c *Config) { c.PingInterval = 2 * time.Second }, wantErr: true},
		{name: "ping interval lower bound", mutate: func(c *Config) { c.PingInterval = MinPingInterval }},
		{name: "zero ping timeout", mutate: func(c *Config) { c.PingTimeout = 0 }, wantErr: true},
		{name: "zero forward timeout", mutate: func(c *Config) { c.ForwardTimeout = 0 }, wantErr: true},
		{name: "health sweep disabled", mutate: func(c *Config) { c.HealthInterval = 0 }},
		{name: "base port out of range", mutate: func(c *Config) { c.BasePort = 70000 }, wantErr: true},
		{name: "bad cidr", mutate: func(c *Config) { c.AllowedCIDRS = []string{"10.0.0.0/99"} }, wantErr: true},
		{name: "single ip", mutate: func(c *Config) { c.AllowedCIDRS = []string{"::1"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() should have failed")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{input: "", expected: nil},
		{input: "a", expected: []string{"a"}},
		{input: ` a , "b",, 'c' `, expected: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim(%q)[%d] = %v, want %v", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}
