// config/yaml.go
//go:build !rp2040 && !rp2350

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAMLFile overlays a host-side YAML file on the defaults. Used by the
// simulation entry point; device builds carry embedded JSON instead.
// A missing file yields the defaults; a malformed file is treated the same
// way, with the parse error returned for logging.
func LoadYAMLFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}
