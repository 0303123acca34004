// Package config manages the socket-core daemon configuration using
// koanf/v2.
//
// Supports YAML files, environment variables, and sensible built-in
// defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete socketcored configuration.
type Config struct {
	Table   TableConfig   `koanf:"table"`
	Mcast   McastConfig   `koanf:"mcast"`
	Ports   PortConfig    `koanf:"ports"`
	Admin   AdminConfig   `koanf:"admin"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// TableConfig sizes the socket table (spec §3).
type TableConfig struct {
	// Capacity is the fixed number of slots the socket table holds (N).
	Capacity int `koanf:"capacity"`
	// SndBufDefault/RcvBufDefault are each new socket's default send and
	// receive buffer sizes; cmd/socketcored sets the maxima to 16 times them.
	SndBufDefault int `koanf:"snd_buf_default"`
	RcvBufDefault int `koanf:"rcv_buf_default"`
}

// McastConfig bounds the multicast membership engine (spec §4.4: "G
// groups per socket, S sources per group").
type McastConfig struct {
	MaxGroupsPerSocket int `koanf:"max_groups_per_socket"`
	MaxSourcesPerGroup int `koanf:"max_sources_per_group"`
}

// PortConfig holds an ephemeral source-port range. It is loaded and
// validated (Low <= High) but not passed to the transport engine,
// whose allocator probes its own fixed EphemeralLow-EphemeralHigh range.
type PortConfig struct {
	Low  uint16 `koanf:"low"`
	High uint16 `koanf:"high"`
}

// AdminConfig holds the introspection HTTP endpoint configuration that
// cmd/socketctl talks to.
type AdminConfig struct {
	// Addr is the HTTP listen address (e.g., ":8780").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{
			Capacity:      1024,
			SndBufDefault: 64 * 1024,
			RcvBufDefault: 64 * 1024,
		},
		Mcast: McastConfig{
			MaxGroupsPerSocket: 20,
			MaxSourcesPerGroup: 64,
		},
		Ports: PortConfig{
			Low:  49152,
			High: 65535,
		},
		Admin: AdminConfig{
			Addr: ":8780",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for socketcored
// configuration. Variables are named SOCKETCORE_<section>_<key>, e.g.
// SOCKETCORE_TABLE_CAPACITY.
const envPrefix = "SOCKETCORE_"

// Load reads configuration from a YAML file at path, overlays
// environment variable overrides (SOCKETCORE_ prefix), and merges on
// top of DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	SOCKETCORE_TABLE_CAPACITY -> table.capacity
//	SOCKETCORE_MCAST_MAX_GROUPS_PER_SOCKET -> mcast.max_groups_per_socket
//	SOCKETCORE_ADMIN_ADDR     -> admin.addr
//	SOCKETCORE_METRICS_ADDR   -> metrics.addr
//	SOCKETCORE_LOG_LEVEL      -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms SOCKETCORE_TABLE_CAPACITY -> table.capacity.
// Strips the SOCKETCORE_ prefix, lowercases, and replaces the first _
// (the section separator) with ., so multi-word keys such as
// mcast.max_groups_per_socket keep their own underscores.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"table.capacity":                    defaults.Table.Capacity,
		"table.snd_buf_default":              defaults.Table.SndBufDefault,
		"table.rcv_buf_default":              defaults.Table.RcvBufDefault,
		"mcast.max_groups_per_socket":        defaults.Mcast.MaxGroupsPerSocket,
		"mcast.max_sources_per_group":        defaults.Mcast.MaxSourcesPerGroup,
		"ports.low":                          defaults.Ports.Low,
		"ports.high":                         defaults.Ports.High,
		"admin.addr":                         defaults.Admin.Addr,
		"metrics.addr":                       defaults.Metrics.Addr,
		"metrics.path":                       defaults.Metrics.Path,
		"log.level":                          defaults.Log.Level,
		"log.format":                         defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrInvalidTableCapacity indicates the table capacity is non-positive.
	ErrInvalidTableCapacity = errors.New("table.capacity must be > 0")

	// ErrInvalidMcastBounds indicates a multicast bound is non-positive.
	ErrInvalidMcastBounds = errors.New("mcast.max_groups_per_socket and mcast.max_sources_per_group must be > 0")

	// ErrInvalidPortRange indicates the ephemeral port range is empty or inverted.
	ErrInvalidPortRange = errors.New("ports.low must be <= ports.high")

	// ErrEmptyAdminAddr indicates the admin listen address is empty.
	ErrEmptyAdminAddr = errors.New("admin.addr must not be empty")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Table.Capacity <= 0 {
		return ErrInvalidTableCapacity
	}
	if cfg.Mcast.MaxGroupsPerSocket <= 0 || cfg.Mcast.MaxSourcesPerGroup <= 0 {
		return ErrInvalidMcastBounds
	}
	if cfg.Ports.Low > cfg.Ports.High {
		return ErrInvalidPortRange
	}
	if cfg.Admin.Addr == "" {
		return ErrEmptyAdminAddr
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
