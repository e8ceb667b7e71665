// Package config provides configuration management for the warehouse server.
// Configurations are loaded from TOML files with XDG-compliant paths and may be
// overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Inventory InventoryConfig `toml:"inventory"`
	Display   DisplayConfig   `toml:"display"`
}

// ServerConfig controls the local HTTP API.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// PortFallback is how many consecutive ports after Port are tried when
	// Port is already bound.
	PortFallback          int      `toml:"port_fallback"`
	CORSOrigins           []string `toml:"cors_origins"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
}

// Addr returns host:port for the configured primary port.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	// Path is the database file. Relative paths resolve against DataDir.
	Path string `toml:"path"`

	// DataDir holds the database and its backups. Empty means ~/.warehouse-app.
	DataDir             string `toml:"data_dir"`
	BackupIntervalHours int    `toml:"backup_interval_hours"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`

	// File enables JSON logging to a file. Empty logs text to stderr.
	File string `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// InventoryConfig holds the row caps used by list and search endpoints.
type InventoryConfig struct {
	SearchLimit      int `toml:"search_limit"`
	RecentMovesLimit int `toml:"recent_moves_limit"`
	ItemMovesLimit   int `toml:"item_moves_limit"`
	TopItemsLimit    int `toml:"top_items_limit"`
}

// MaxItemMovesLimit caps any caller-supplied limit on an item's move history.
const MaxItemMovesLimit = 500

// DisplayConfig controls the terminal console appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	DateFormat  string      `toml:"date_format"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeGreen ColorScheme = "green"
	ColorSchemeAmber ColorScheme = "amber"
	ColorSchemeWhite ColorScheme = "white"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Inventory.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("inventory: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the server configuration is valid.
func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", s.Port))
	}

	if s.PortFallback < 0 || s.Port+s.PortFallback > 65535 {
		errs = append(errs, errors.New("port_fallback must keep ports within 1-65535"))
	}

	if s.RequestTimeoutSeconds < 0 {
		errs = append(errs, errors.New("request_timeout_seconds must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the inventory limits are valid.
func (i *InventoryConfig) Validate() error {
	var errs []error

	if i.SearchLimit < 1 {
		errs = append(errs, errors.New("search_limit must be positive"))
	}

	if i.RecentMovesLimit < 1 {
		errs = append(errs, errors.New("recent_moves_limit must be positive"))
	}

	if i.ItemMovesLimit < 1 || i.ItemMovesLimit > MaxItemMovesLimit {
		errs = append(errs, fmt.Errorf("item_moves_limit must be between 1 and %d", MaxItemMovesLimit))
	}

	if i.TopItemsLimit < 1 {
		errs = append(errs, errors.New("top_items_limit must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	validSchemes := map[ColorScheme]bool{
		ColorSchemeGreen: true,
		ColorSchemeAmber: true,
		ColorSchemeWhite: true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		return fmt.Errorf("invalid color_scheme: %s", d.ColorScheme)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                  "127.0.0.1",
			Port:                  41731,
			PortFallback:          10,
			CORSOrigins:           []string{"*"},
			RequestTimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Path:                "warehouse.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "",
		},
		Inventory: InventoryConfig{
			SearchLimit:      200,
			RecentMovesLimit: 50,
			ItemMovesLimit:   200,
			TopItemsLimit:    10,
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeGreen,
			DateFormat:  "2006-01-02",
		},
	}
}
