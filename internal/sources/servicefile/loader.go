package servicefile

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Loader handles loading and parsing of the service catalogue file
type Loader struct {
	filePath string
}

// NewLoader creates a new catalogue loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the catalogue file
func (l *Loader) Load() (CatalogueConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return CatalogueConfig{}, fmt.Errorf("failed to read service file: %w", err)
	}

	return Parse(data)
}

// Parse decodes catalogue YAML after expanding ${VAR} references.
func Parse(data []byte) (CatalogueConfig, error) {
	data = expandEnvVars(data)

	var config CatalogueConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return CatalogueConfig{}, fmt.Errorf("failed to parse service yaml: %w", err)
	}
	if len(config.Services) == 0 {
		return CatalogueConfig{}, fmt.Errorf("service file declares no services")
	}

	return config, nil
}

// expandEnvVars replaces ${VAR_NAME} with the environment value.
// Unset variables expand to an empty string.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}
