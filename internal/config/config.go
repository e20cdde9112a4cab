package config

import (
	"time"

	"github.com/syncmeet/realtime/internal/connection"
)

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds REST settings. The socket base URL is derived from BaseURL.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Token      string        `yaml:"token"` // bearer token; skips login when set
	Email      string        `yaml:"email"`
	Password   string        `yaml:"password"`
}

// RealtimeConfig holds connection registry settings.
type RealtimeConfig struct {
	MaxReconnectAttempts *int          `yaml:"max_reconnect_attempts"` // nil means the default; 0 disables retries
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	BufferSize           int           `yaml:"buffer_size"`
	Notifications        bool          `yaml:"notifications"`
}

// WatcherConfig holds meeting watcher settings.
type WatcherConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

// ArchiveConfig holds the optional PostgreSQL archive.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds the health/status HTTP endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}

// ReconnectAttempts returns the configured retry budget, or the default
// when the field was omitted.
func (r RealtimeConfig) ReconnectAttempts() int {
	if r.MaxReconnectAttempts == nil {
		return DefaultReconnectAttempts
	}
	return *r.MaxReconnectAttempts
}

// RegistryConfig converts the realtime section into registry settings.
func (c *RelayConfig) RegistryConfig() connection.RegistryConfig {
	return connection.RegistryConfig{
		BaseURL:              c.API.BaseURL,
		MaxReconnectAttempts: c.Realtime.ReconnectAttempts(),
		ReconnectBaseDelay:   c.Realtime.ReconnectBaseDelay,
		Client: connection.ClientConfig{
			HandshakeTimeout: c.Realtime.HandshakeTimeout,
			PingInterval:     c.Realtime.PingInterval,
			PingTimeout:      c.Realtime.PingTimeout,
			WriteTimeout:     c.Realtime.WriteTimeout,
			BufferSize:       c.Realtime.BufferSize,
		},
	}
}
