package servicefile

// CatalogueConfig is the top-level structure of the service catalogue file.
type CatalogueConfig struct {
	// BasePort seeds the port sequence used by "port: auto" entries.
	BasePort *int           `yaml:"base_port,omitempty"`
	Services []ServiceProps `yaml:"services"`
}

// ServiceProps describes one backend as written in the catalogue.
// Pointer fields distinguish "left out" (use the default) from an explicit value.
type ServiceProps struct {
	Name   string `yaml:"name"`
	Binary string `yaml:"binary,omitempty"`
	Host   string `yaml:"host"`

	// Port is a number, "auto" (next port of the sequence), "same" (the port
	// assigned last) or empty for a remote HTTPS service.
	Port string `yaml:"port,omitempty"`

	PostSubdomain   string  `yaml:"post_subdomain"`
	PingSubdomain   *string `yaml:"ping_subdomain,omitempty"`
	SchemaSubdomain *string `yaml:"schema_subdomain,omitempty"`

	// BootTimeout is a Go duration ("90s"), a number of seconds, or "none".
	BootTimeout string `yaml:"boot_timeout,omitempty"`
	Autostart   *bool  `yaml:"autostart,omitempty"`

	AdditionalArgs   map[string]string `yaml:"additional_args,omitempty"`
	RawTextField     string            `yaml:"raw_text_field,omitempty"`
	ResponseDefaults map[string]any    `yaml:"response_defaults,omitempty"`
}
