// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/birdview/internal/logger"
)

// Date policies for rows whose Date cell cannot be parsed.
const (
	InvalidDatesReject = "reject"
	InvalidDatesDrop   = "drop"
)

// Empty-selection policies for species and observer filters.
const (
	EmptySelectionNone = "none"
	EmptySelectionAll  = "all"
)

// DefaultDateLayouts are tried in order when parsing the Date column.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
}

// Default schema candidates, highest priority first.
var (
	DefaultLatitudeColumns     = []string{"Latitude", "Lat", "Latitude_DD", "GPS_Latitude"}
	DefaultLongitudeColumns    = []string{"Longitude", "Lon", "Longitude_DD", "GPS_Longitude"}
	DefaultConservationColumns = []string{"Conservation_Status", "PIF_Watchlist_Status", "Regional_Stewardship_Status"}
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("sources.forest", "")
	viper.SetDefault("sources.grassland", "")
	viper.SetDefault("sources.forest_file", "")
	viper.SetDefault("sources.grassland_file", "")

	viper.SetDefault("loader.invalid_dates", InvalidDatesReject)
	viper.SetDefault("loader.date_layouts", DefaultDateLayouts)
	viper.SetDefault("loader.http_timeout", 30*time.Second)
	viper.SetDefault("loader.ssh_key_file", "")
	viper.SetDefault("loader.ssh_known_hosts", "")
	viper.SetDefault("loader.delimiter", ",")
	viper.SetDefault("loader.preload", true)

	viper.SetDefault("dashboard.empty_selection", EmptySelectionNone)
	viper.SetDefault("dashboard.top_n", 10)
	viper.SetDefault("dashboard.geo_sample_size", 500)
	viper.SetDefault("dashboard.histogram_bins", 20)
	viper.SetDefault("dashboard.default_selection", 5)
	viper.SetDefault("dashboard.sample_seed", 0)

	viper.SetDefault("schema.latitude", DefaultLatitudeColumns)
	viper.SetDefault("schema.longitude", DefaultLongitudeColumns)
	viper.SetDefault("schema.conservation", DefaultConservationColumns)

	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.port", 8080)
	viper.SetDefault("webserver.read_timeout", 30*time.Second)
	viper.SetDefault("webserver.write_timeout", 60*time.Second)
	viper.SetDefault("webserver.shutdown_timeout", 10*time.Second)
	viper.SetDefault("webserver.cache_ttl", 5*time.Minute)
	viper.SetDefault("webserver.reload_per_minute", 6)
	viper.SetDefault("webserver.allowed_origins", []string{"*"})
	viper.SetDefault("webserver.body_limit", "1M")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("session.ttl", 30*time.Minute)
	viper.SetDefault("session.max_sessions", 1000)

	viper.SetDefault("telemetry.enabled", true)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.dsn_file", "")
	viper.SetDefault("sentry.environment", "production")
	viper.SetDefault("sentry.debug", false)

	viper.SetDefault("events.buffer_size", 100)
	viper.SetDefault("events.workers", 2)
	viper.SetDefault("events.dedup_window", 15*time.Minute)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "")
	viper.SetDefault("mqtt.client_id", "birdview")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.topic", "birdview")
	viper.SetDefault("mqtt.retain", false)

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.urls", []string{})
	viper.SetDefault("notification.timeout", 10*time.Second)

	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.max_size_mb", logger.DefaultMaxSizeMB)
	viper.SetDefault("logging.file_output.max_backups", logger.DefaultMaxBackups)
	viper.SetDefault("logging.file_output.max_age_days", logger.DefaultMaxAgeDays)
	viper.SetDefault("logging.file_output.compress", true)
}
