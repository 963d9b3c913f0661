package config

import (
	"errors"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Routing modes for POST /{service}.
const (
	RoutingDynamic = "dynamic" // one parameterised route, lookup per request
	RoutingStatic  = "static"  // one route per registered service, built at startup
)

const (
	MinPingInterval = 100 * time.Millisecond
	MaxPingInterval = time.Second
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Service catalogue
	ServiceFile string // path to a services.yaml (empty = built-in catalogue)
	BasePort    int    // first "auto" port is BasePort+1
	RoutingMode string // RoutingDynamic | RoutingStatic

	// Backends
	ForwardTimeout  time.Duration // per-request timeout when proxying a POST
	SchemaTimeout   time.Duration // per-backend timeout when fetching openapi.json
	PingInterval    time.Duration // delay between readiness probes during boot
	PingTimeout     time.Duration // max duration of a single readiness probe
	HealthInterval  time.Duration // interval of the background health sweep (0 = disabled)
	TerminateOnExit bool          // kill spawned services on shutdown
	SkipAutostart   bool          // never spawn, only route (services are managed elsewhere)

	// Redis usage stats (optional, empty address = disabled)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict /metrics and /infra to these networks
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("KIDRA_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("KIDRA_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("KIDRA_LOG_LEVEL", "info"),
		PrettyLog: mustBool("KIDRA_PRETTY_LOG", true),

		// Service catalogue
		ServiceFile: getenv("KIDRA_SERVICE_FILE", ""),
		BasePort:    getenvInt("KIDRA_BASE_PORT", 1986),
		RoutingMode: strings.ToLower(getenv("KIDRA_ROUTING_MODE", RoutingDynamic)),

		// Backends
		ForwardTimeout:  mustDuration("KIDRA_FORWARD_TIMEOUT", 60*time.Second),
		SchemaTimeout:   mustDuration("KIDRA_SCHEMA_TIMEOUT", 30*time.Second),
		PingInterval:    mustDuration("KIDRA_PING_INTERVAL", time.Second),
		PingTimeout:     mustDuration("KIDRA_PING_TIMEOUT", 2*time.Second),
		HealthInterval:  mustDuration("KIDRA_HEALTH_INTERVAL", time.Minute),
		TerminateOnExit: mustBool("KIDRA_TERMINATE_ON_EXIT", false),
		SkipAutostart:   mustBool("KIDRA_SKIP_AUTOSTART", false),

		// Redis settings
		RedisAddr:           getenv("KIDRA_REDIS_ADDR", ""),
		RedisUser:           getenv("KIDRA_REDIS_USERNAME", ""),
		RedisPassword:       getenv("KIDRA_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("KIDRA_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("KIDRA_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("KIDRA_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("KIDRA_TRUST_PROXY", false),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.RoutingMode != RoutingDynamic && c.RoutingMode != RoutingStatic {
		errs = append(errs, fmt.Errorf("KIDRA_ROUTING_MODE must be %q or %q, got %q",
			RoutingDynamic, RoutingStatic, c.RoutingMode))
	}
	if c.PingInterval < MinPingInterval || c.PingInterval > MaxPingInterval {
		errs = append(errs, fmt.Errorf("KIDRA_PING_INTERVAL must be between %s and %s, got %s",
			MinPingInterval, MaxPingInterval, c.PingInterval))
	}
	if c.PingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("KIDRA_PING_TIMEOUT must be positive, got %s", c.PingTimeout))
	}
	if c.ForwardTimeout <= 0 {
		errs = append(errs, fmt.Errorf("KIDRA_FORWARD_TIMEOUT must be positive, got %s", c.ForwardTimeout))
	}
	if c.SchemaTimeout <= 0 {
		errs = append(errs, fmt.Errorf("KIDRA_SCHEMA_TIMEOUT must be positive, got %s", c.SchemaTimeout))
	}
	if c.HealthInterval < 0 {
		errs = append(errs, fmt.Errorf("KIDRA_HEALTH_INTERVAL must not be negative, got %s", c.HealthInterval))
	}
	if c.BasePort < 0 || c.BasePort >= 65535 {
		errs = append(errs, fmt.Errorf("KIDRA_BASE_PORT out of range: %d", c.BasePort))
	}
	for _, cidr := range c.AllowedCIDRS {
		if _, err := parsePrefixOrAddr(cidr); err != nil {
			errs = append(errs, fmt.Errorf("KIDRA_ALLOWED_CIDRS: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RedisEnabled reports whether usage stats should be recorded.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func parsePrefixOrAddr(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
