package config

import "time"

// ServerConfig holds the HTTP API server configuration.
type ServerConfig struct {
	// Address to bind the HTTP server (host:port)
	Address string `mapstructure:"address" validate:"required"`

	// Request timeout
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
