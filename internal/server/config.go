package server

import "time"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080" env:"PORT"`
	// ReadTimeoutSeconds bounds reading a request, body included.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"10"`
	// WriteTimeoutSeconds bounds writing a response.
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" default:"15"`
	// ShutdownTimeoutSeconds is how long in-flight requests get on shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" default:"10"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
