// Package api runs the HTTP server. The JSON endpoints live in v1.
package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/logger"
)

// GetLogger returns the api module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"
)

// Config is the resolved HTTP server configuration.
type Config struct {
	Host string
	Port string

	AllowedOrigins []string
	BodyLimit      string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Debug bool
}

// DefaultConfig listens on :8080 and allows any origin.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		AllowedOrigins:  []string{"*"},
		BodyLimit:       DefaultBodyLimit,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// ConfigFromSettings overlays the webserver section on DefaultConfig. Zero
// values in settings keep the defaults.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	ws := &settings.WebServer

	cfg.Host = ws.Host
	if ws.Port > 0 {
		cfg.Port = strconv.Itoa(ws.Port)
	}
	if len(ws.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = ws.AllowedOrigins
	}
	if ws.BodyLimit != "" {
		cfg.BodyLimit = ws.BodyLimit
	}
	for dst, src := range map[*time.Duration]time.Duration{
		&cfg.ReadTimeout:     ws.ReadTimeout,
		&cfg.WriteTimeout:    ws.WriteTimeout,
		&cfg.ShutdownTimeout: ws.ShutdownTimeout,
	} {
		if src > 0 {
			*dst = src
		}
	}
	cfg.Debug = ws.Debug || settings.Debug
	return cfg
}

func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("port is required")
	case c.ReadTimeout <= 0:
		return fmt.Errorf("read timeout must be positive")
	case c.WriteTimeout <= 0:
		return fmt.Errorf("write timeout must be positive")
	}
	return nil
}

// Address returns host:port for net.Listen.
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}
