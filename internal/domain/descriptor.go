package domain

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultPingSubdomain is the health endpoint every backend serves.
	DefaultPingSubdomain = "_ping"
	// DefaultSchemaSubdomain is where backends publish their OpenAPI document.
	DefaultSchemaSubdomain = "openapi.json"
	// DefaultBootTimeout bounds how long a launched backend may take to answer its ping.
	DefaultBootTimeout = 600 * time.Second
)

// validName is a literal URL segment; it never contains router pattern characters.
var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ErrInvalidDescriptor is returned by Validate for malformed descriptors.
var ErrInvalidDescriptor = errors.New("invalid service descriptor")

// ServiceDescriptor is the static configuration record for one backend.
//
// It is a plain value: copy it freely, never share its maps. The registry
// keeps its own deep copy (see Clone) so a registered descriptor cannot be
// mutated after configuration time.
type ServiceDescriptor struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is the routing key. The backend is exposed as POST /{Name}.
	Name string

	// Binary is the executable launched when Autostart is set.
	// Empty means the gateway never launches this backend.
	Binary string

	// ─────────────────────────────
	// Network location
	// ─────────────────────────────

	// Host is the backend host. Remote hosts may carry a path prefix,
	// e.g. "wlo.yovisto.com/services".
	Host string

	// Port is empty for remote HTTPS backends and set for local HTTP ones.
	Port string

	PostSubdomain   string
	PingSubdomain   string
	SchemaSubdomain string // empty means the backend publishes no API description

	// ─────────────────────────────
	// Launch
	// ─────────────────────────────

	// BootTimeout is the readiness budget after spawning. Zero waits forever.
	BootTimeout time.Duration

	Autostart bool

	// AdditionalArgs become --key=value flags on the command line.
	AdditionalArgs map[string]string

	// ─────────────────────────────
	// Request / response adapters
	// ─────────────────────────────

	// RawTextField, when set, makes the gateway send the value of this JSON
	// field as a plain UTF-8 text body instead of forwarding the JSON payload.
	RawTextField string

	// ResponseDefaults are added to successful JSON object responses when the
	// backend leaves the key out.
	ResponseDefaults map[string]any
}

// NewDescriptor returns a descriptor with the documented defaults applied.
func NewDescriptor(name, binary, host, port, postSubdomain string) ServiceDescriptor {
	return ServiceDescriptor{
		Name:            name,
		Binary:          binary,
		Host:            host,
		Port:            port,
		PostSubdomain:   postSubdomain,
		PingSubdomain:   DefaultPingSubdomain,
		SchemaSubdomain: DefaultSchemaSubdomain,
		BootTimeout:     DefaultBootTimeout,
		Autostart:       true,
	}
}

// HasPort reports whether the backend is a local HTTP target.
func (d ServiceDescriptor) HasPort() bool { return d.Port != "" }

// IsRemote reports whether the backend is reached over HTTPS without a port.
func (d ServiceDescriptor) IsRemote() bool { return !d.HasPort() }

// PostAddress is the full URL POST requests are forwarded to.
func (d ServiceDescriptor) PostAddress() string {
	return MakeAddress(d.Host, d.Port, d.PostSubdomain)
}

// PingAddress is the full URL of the backend's health endpoint.
func (d ServiceDescriptor) PingAddress() string {
	return MakeAddress(d.Host, d.Port, d.PingSubdomain)
}

// SchemaAddress is the full URL of the backend's API description.
func (d ServiceDescriptor) SchemaAddress() string {
	return MakeAddress(d.Host, d.Port, d.SchemaSubdomain)
}

// HasSchema reports whether the backend publishes an API description.
func (d ServiceDescriptor) HasSchema() bool { return d.SchemaSubdomain != "" }

// HostPort returns "host:port" for local backends and "" for remote ones.
func (d ServiceDescriptor) HostPort() string {
	if !d.HasPort() {
		return ""
	}
	return d.Host + ":" + d.Port
}

// LaunchArgs returns the command line flags used to start the backend.
// Additional arguments follow --port in key order.
func (d ServiceDescriptor) LaunchArgs() []string {
	args := make([]string, 0, 1+len(d.AdditionalArgs))
	args = append(args, "--port="+d.Port)
	for _, key := range sortedKeys(d.AdditionalArgs) {
		args = append(args, fmt.Sprintf("--%s=%s", key, d.AdditionalArgs[key]))
	}
	return args
}

// Validate checks the fields that the rest of the gateway relies on.
func (d ServiceDescriptor) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidDescriptor)
	case !validName.MatchString(d.Name):
		return fmt.Errorf("%w: name %q must be a single path segment of letters, digits, '.', '_' or '-'", ErrInvalidDescriptor, d.Name)
	case d.Host == "":
		return fmt.Errorf("%w: %s: host is empty", ErrInvalidDescriptor, d.Name)
	case d.BootTimeout < 0:
		return fmt.Errorf("%w: %s: negative boot timeout", ErrInvalidDescriptor, d.Name)
	case d.Autostart && d.Binary == "":
		return fmt.Errorf("%w: %s: autostart requires a binary", ErrInvalidDescriptor, d.Name)
	case d.Autostart && !d.HasPort():
		return fmt.Errorf("%w: %s: autostart requires a port", ErrInvalidDescriptor, d.Name)
	}
	for key := range d.AdditionalArgs {
		if key == "" || key == "port" {
			return fmt.Errorf("%w: %s: invalid additional argument %q", ErrInvalidDescriptor, d.Name, key)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias the maps.
func (d ServiceDescriptor) Clone() ServiceDescriptor {
	d.AdditionalArgs = maps.Clone(d.AdditionalArgs)
	d.ResponseDefaults = maps.Clone(d.ResponseDefaults)
	return d
}
