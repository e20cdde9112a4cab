package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncmeet/realtime/internal/api"
	"github.com/syncmeet/realtime/internal/connection"
)

// Default values for optional configuration fields.
const (
	DefaultBaseURL            = "http://localhost:3000"
	DefaultAPITimeout         = api.DefaultTimeout
	DefaultMaxRetries         = api.DefaultMaxRetries
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultSocketBufferSize   = 256
	DefaultWatchInterval      = 30 * time.Second
	DefaultWatchConcurrency   = 4
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 500
	DefaultFlushInterval      = 1 * time.Second
	DefaultArchiveBufferSize  = 10000
	DefaultHealthPort         = 8080
	DefaultReconnectAttempts  = connection.DefaultMaxReconnectAttempts
	DefaultReconnectBaseDelay = connection.DefaultReconnectBaseDelay
)

func (c *RelayConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = "relay-" + uuid.NewString()[:8]
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Realtime defaults
	if c.Realtime.MaxReconnectAttempts == nil {
		attempts := DefaultReconnectAttempts
		c.Realtime.MaxReconnectAttempts = &attempts
	}
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.HandshakeTimeout == 0 {
		c.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Realtime.WriteTimeout == 0 {
		c.Realtime.WriteTimeout = DefaultWriteTimeout
	}
	if c.Realtime.PingInterval == 0 {
		c.Realtime.PingInterval = DefaultPingInterval
	}
	if c.Realtime.PingTimeout == 0 {
		c.Realtime.PingTimeout = DefaultPingTimeout
	}
	if c.Realtime.BufferSize == 0 {
		c.Realtime.BufferSize = DefaultSocketBufferSize
	}

	// Watcher defaults
	if c.Watcher.Interval == 0 {
		c.Watcher.Interval = DefaultWatchInterval
	}
	if c.Watcher.Concurrency == 0 {
		c.Watcher.Concurrency = DefaultWatchConcurrency
	}

	// Archive defaults
	applyDBDefaults(&c.Archive.Database)
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	if c.Archive.BufferSize == 0 {
		c.Archive.BufferSize = DefaultArchiveBufferSize
	}

	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
