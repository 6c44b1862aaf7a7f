// env.go - Environment variable configuration and validation for birdview
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by birdview.
const EnvPrefix = "BIRDVIEW"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// Dataset sources
		{"sources.forest", "BIRDVIEW_FOREST_SOURCE", validateEnvSource},
		{"sources.grassland", "BIRDVIEW_GRASSLAND_SOURCE", validateEnvSource},
		{"sources.forest_file", "BIRDVIEW_FOREST_SOURCE_FILE", nil},
		{"sources.grassland_file", "BIRDVIEW_GRASSLAND_SOURCE_FILE", nil},

		// Loader
		{"loader.invalid_dates", "BIRDVIEW_INVALID_DATES", validateEnvInvalidDates},
		{"loader.http_timeout", "BIRDVIEW_HTTP_TIMEOUT", validateEnvDuration},

		// Dashboard
		{"dashboard.empty_selection", "BIRDVIEW_EMPTY_SELECTION", validateEnvEmptySelection},
		{"dashboard.top_n", "BIRDVIEW_TOP_N", validateEnvPositiveInt},
		{"dashboard.geo_sample_size", "BIRDVIEW_GEO_SAMPLE_SIZE", validateEnvPositiveInt},

		// Web server
		{"webserver.host", "BIRDVIEW_HOST", nil},
		{"webserver.port", "BIRDVIEW_PORT", validateEnvPort},
		{"webserver.debug", "BIRDVIEW_WEBSERVER_DEBUG", validateEnvBool},

		// Observability
		{"telemetry.enabled", "BIRDVIEW_TELEMETRY_ENABLED", validateEnvBool},
		{"sentry.enabled", "BIRDVIEW_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "BIRDVIEW_SENTRY_DSN", nil},
		{"sentry.dsn_file", "BIRDVIEW_SENTRY_DSN_FILE", nil},
		{"mqtt.enabled", "BIRDVIEW_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "BIRDVIEW_MQTT_BROKER", nil},
		{"mqtt.username", "BIRDVIEW_MQTT_USERNAME", nil},
		{"mqtt.password", "BIRDVIEW_MQTT_PASSWORD", nil},
		{"logging.default_level", "BIRDVIEW_LOG_LEVEL", validateEnvLogLevel},
		{"debug", "BIRDVIEW_DEBUG", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, MaskSource(envValue), err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

func validateEnvSource(value string) error {
	return validateSource(strings.TrimSpace(value))
}

func validateEnvInvalidDates(value string) error {
	switch value {
	case InvalidDatesReject, InvalidDatesDrop:
		return nil
	}
	return fmt.Errorf("must be one of: %s, %s", InvalidDatesReject, InvalidDatesDrop)
}

func validateEnvEmptySelection(value string) error {
	switch value {
	case EmptySelectionNone, EmptySelectionAll:
		return nil
	}
	return fmt.Errorf("must be one of: %s, %s", EmptySelectionNone, EmptySelectionAll)
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !isValidLogLevel(value) {
		return fmt.Errorf("must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
