package servicefile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/registry"
)

const (
	portAuto = "auto"
	portSame = "same"
)

// Mapper converts catalogue entries to domain descriptors
type Mapper struct {
	defaultBasePort int
}

// NewMapper creates a mapper; defaultBasePort is used when the file sets no base_port.
func NewMapper(defaultBasePort int) *Mapper {
	return &Mapper{defaultBasePort: defaultBasePort}
}

// MapServices converts the catalogue to descriptors, preserving file order.
func (m *Mapper) MapServices(config CatalogueConfig) ([]domain.ServiceDescriptor, error) {
	base := m.defaultBasePort
	if config.BasePort != nil {
		base = *config.BasePort
	}
	ports := registry.NewPortSequence(base)

	descriptors := make([]domain.ServiceDescriptor, 0, len(config.Services))
	for i, props := range config.Services {
		d, err := m.mapService(props, ports)
		if err != nil {
			return nil, fmt.Errorf("service #%d (%s): %w", i+1, props.Name, err)
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

func (m *Mapper) mapService(props ServiceProps, ports *registry.PortSequence) (domain.ServiceDescriptor, error) {
	port, err := resolvePort(props.Port, ports)
	if err != nil {
		return domain.ServiceDescriptor{}, err
	}

	d := domain.NewDescriptor(
		strings.TrimSpace(props.Name),
		props.Binary,
		props.Host,
		port,
		props.PostSubdomain,
	)

	if props.PingSubdomain != nil {
		d.PingSubdomain = *props.PingSubdomain
	}
	if props.SchemaSubdomain != nil {
		d.SchemaSubdomain = *props.SchemaSubdomain
	}
	if props.Autostart != nil {
		d.Autostart = *props.Autostart
	}

	timeout, err := parseBootTimeout(props.BootTimeout)
	if err != nil {
		return domain.ServiceDescriptor{}, err
	}
	d.BootTimeout = timeout

	d.AdditionalArgs = props.AdditionalArgs
	d.RawTextField = props.RawTextField
	d.ResponseDefaults = props.ResponseDefaults

	return d, nil
}

func resolvePort(raw string, ports *registry.PortSequence) (string, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return "", nil
	case portAuto:
		return ports.Next(), nil
	case portSame:
		return ports.Current(), nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", raw)
	}
	return raw, nil
}

// parseBootTimeout accepts "", "none", a Go duration or a plain number of seconds.
func parseBootTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return domain.DefaultBootTimeout, nil
	case "none", "null", "0":
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative boot_timeout %q", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid boot_timeout %q: %w", raw, err)
	}
	return d, nil
}
