package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TemplateConfig is the config written by configgen.
func TemplateConfig() Config {
	cfg := DefaultConfig()
	cfg.CorsOrigins = []string{"http://localhost:3000"}
	cfg.Services = []ServiceConfig{
		{
			Name:      "echo",
			UUID:      "8a1d3c5e-0b7f-4e2a-9c64-1f0e2d3c4b5a",
			Version:   "1.0.0",
			MinLength: 3,
			Mode:      ModeEcho,
		},
		{
			Name:          "sensor.sink",
			UUID:          "3f2b6c1d-9e8a-4f70-b5d4-c2a1e0f9d8c7",
			Version:       "0.3.1",
			MinLength:     4,
			Mode:          ModeSink,
			Notifications: true,
		},
	}
	return cfg
}

func Template() ([]byte, error) {
	out, err := toml.Marshal(TemplateConfig())
	if err != nil {
		return nil, fmt.Errorf("config template encode failed: %w", err)
	}
	return out, nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, template, 0o600)
}
