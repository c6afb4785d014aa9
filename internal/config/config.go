package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Vendor   VendorConfig   `mapstructure:"vendor"`
	Store    StoreConfig    `mapstructure:"store"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// VendorConfig configures the CAD vendor backend.
type VendorConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	TokenURL    string        `mapstructure:"token_url"`
	APIKey      string        `mapstructure:"api_key"`
	MakerPrefix string        `mapstructure:"maker_prefix"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StoreConfig configures saved-configuration persistence.
type StoreConfig struct {
	Type string `mapstructure:"type"` // json | sqlite
	Path string `mapstructure:"path"`
}

// FallbackConfig configures the offline demo catalog.
type FallbackConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"` // optional override directory, watched for changes
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
