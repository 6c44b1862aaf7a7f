// Package conf provides configuration management for birdview.
package conf

import "github.com/tphakala/birdview/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time so it follows SetGlobal.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
