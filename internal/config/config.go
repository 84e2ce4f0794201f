package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/protocol/header"
)

const (
	ModeEcho = "echo"
	ModeSink = "sink"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the hublinkd runtime configuration.
type Config struct {
	Name        string          `toml:"name"`
	LinkAddr    string          `toml:"link_addr"`
	StatusAddr  string          `toml:"status_addr"`
	CorsOrigins []string        `toml:"cors_origins"`
	MaxServices int             `toml:"max_services"`
	MaxDatagram int             `toml:"max_datagram_bytes"`
	Services    []ServiceConfig `toml:"services"`
}

// ServiceConfig declares one negotiated service registered at startup.
type ServiceConfig struct {
	Name          string `toml:"name"`
	UUID          string `toml:"uuid"`
	Version       string `toml:"version"`
	MinLength     int    `toml:"min_length"`
	Mode          string `toml:"mode"`
	Notifications bool   `toml:"notifications"`
}

func DefaultConfig() Config {
	return Config{
		Name:        "hublink",
		LinkAddr:    ":7400",
		StatusAddr:  ":7401",
		CorsOrigins: []string{},
		MaxServices: app.DefaultMaxServices,
		MaxDatagram: 4096,
		Services:    []ServiceConfig{},
	}
}

// Load reads path and overlays the keys it defines onto DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("link_addr") {
		cfg.LinkAddr = strings.TrimSpace(raw.LinkAddr)
	}
	if meta.IsDefined("status_addr") {
		cfg.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("max_services") {
		cfg.MaxServices = raw.MaxServices
	}
	if meta.IsDefined("max_datagram_bytes") {
		cfg.MaxDatagram = raw.MaxDatagram
	}
	if meta.IsDefined("services") {
		cfg.Services = normalizeServices(raw.Services)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func normalizeServices(in []ServiceConfig) []ServiceConfig {
	out := make([]ServiceConfig, 0, len(in))
	for _, svc := range in {
		svc.Name = strings.TrimSpace(svc.Name)
		svc.UUID = strings.ToLower(strings.TrimSpace(svc.UUID))
		svc.Version = strings.TrimSpace(svc.Version)
		svc.Mode = strings.ToLower(strings.TrimSpace(svc.Mode))
		if svc.Mode == "" {
			svc.Mode = ModeSink
		}
		out = append(out, svc)
	}
	return out
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.LinkAddr) == "" {
		return fmt.Errorf("%w: link_addr is required", ErrInvalidConfig)
	}
	if cfg.MaxServices < 1 || cfg.MaxServices > app.MaxNegotiatedServices {
		return fmt.Errorf("%w: max_services must be in [1, %d]", ErrInvalidConfig, app.MaxNegotiatedServices)
	}
	if cfg.MaxDatagram < header.Size || cfg.MaxDatagram > 0xFFFF {
		return fmt.Errorf("%w: max_datagram_bytes must be in [%d, 65535]", ErrInvalidConfig, header.Size)
	}
	if len(cfg.Services) > cfg.MaxServices {
		return fmt.Errorf("%w: %d services exceed max_services=%d", ErrInvalidConfig, len(cfg.Services), cfg.MaxServices)
	}
	names := make(map[string]struct{}, len(cfg.Services))
	uuids := make(map[string]struct{}, len(cfg.Services))
	for i, svc := range cfg.Services {
		if err := ValidateService(svc, cfg.MaxDatagram); err != nil {
			return fmt.Errorf("services[%d] invalid: %w", i, err)
		}
		if _, ok := names[svc.Name]; ok {
			return fmt.Errorf("%w: duplicate service name %q", ErrInvalidConfig, svc.Name)
		}
		names[svc.Name] = struct{}{}
		if _, ok := uuids[svc.UUID]; ok {
			return fmt.Errorf("%w: duplicate service uuid %q", ErrInvalidConfig, svc.UUID)
		}
		uuids[svc.UUID] = struct{}{}
	}
	return nil
}

func ValidateService(svc ServiceConfig, maxDatagram int) error {
	if svc.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if _, err := app.ParseUUID(svc.UUID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := ParseVersion(svc.Version); err != nil {
		return err
	}
	if svc.MinLength < app.MinServiceLength || svc.MinLength > maxDatagram {
		return fmt.Errorf("%w: min_length must be in [%d, %d]", ErrInvalidConfig, app.MinServiceLength, maxDatagram)
	}
	switch svc.Mode {
	case ModeEcho:
		if svc.MinLength < header.Size {
			return fmt.Errorf("%w: echo services need min_length >= %d to carry a transaction", ErrInvalidConfig, header.Size)
		}
	case ModeSink:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, svc.Mode)
	}
	return nil
}

// ParseVersion parses a semantic version that fits the discovery encoding.
func ParseVersion(raw string) (app.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if err != nil {
		return app.Version{}, fmt.Errorf("%w: version %q: %w", ErrInvalidConfig, raw, err)
	}
	if v.Major() > 0xFF || v.Minor() > 0xFF || v.Patch() > 0xFFFF {
		return app.Version{}, fmt.Errorf("%w: version %q out of range", ErrInvalidConfig, raw)
	}
	return app.Version{Major: uint8(v.Major()), Minor: uint8(v.Minor()), Patch: uint16(v.Patch())}, nil
}
