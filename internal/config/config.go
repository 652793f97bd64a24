package config

import (
	"time"

	"github.com/rickgao/deribit-index/internal/model"
)

// Config is the root configuration for the index tracker.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Database  DBConfig        `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InstanceConfig identifies this process in logs.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// UpstreamConfig holds index price API settings.
type UpstreamConfig struct {
	BaseURL           string             `yaml:"base_url"`
	RequestTimeout    time.Duration      `yaml:"request_timeout"`
	AllowInsecureHTTP bool               `yaml:"allow_insecure_http"` // Tests and local mocks only
	Instruments       []model.Instrument `yaml:"instruments"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	SSLMode     string `yaml:"ssl_mode"`
	MaxConns    int    `yaml:"max_conns"`
	MinConns    int    `yaml:"min_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// SchedulerConfig holds tick timer settings.
type SchedulerConfig struct {
	Interval           time.Duration `yaml:"interval"`
	StopOnPersistError bool          `yaml:"stop_on_persist_error"`
}

// ServerConfig holds read API settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Timezone     string        `yaml:"timezone"` // IANA name or "Local"
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// IsEnabled reports whether /metrics is served. Unset means enabled.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Location resolves Server.Timezone.
func (s ServerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}
