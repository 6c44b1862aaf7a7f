// config.go: settings struct for birdview and the functions to load it.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// SourcesConfig holds the dataset source identifier for each habitat.
// A source is a file path, file:// URI, http(s) URL, sqlite:// or mysql:// URI.
// Sources may reference environment variables as ${VAR}; a *File field names a
// secret file holding the whole identifier and takes precedence.
type SourcesConfig struct {
	Forest        string `yaml:"forest" mapstructure:"forest"`
	Grassland     string `yaml:"grassland" mapstructure:"grassland"`
	ForestFile    string `yaml:"forest_file" mapstructure:"forest_file"`
	GrasslandFile string `yaml:"grassland_file" mapstructure:"grassland_file"`
}

// LoaderConfig controls how observation tables are parsed.
type LoaderConfig struct {
	InvalidDates string        `yaml:"invalid_dates" mapstructure:"invalid_dates"` // "reject" or "drop"
	DateLayouts  []string      `yaml:"date_layouts" mapstructure:"date_layouts"`   // Go time layouts tried in order
	HTTPTimeout  time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`   // timeout for http(s), ftp and sftp sources
	Delimiter    string        `yaml:"delimiter" mapstructure:"delimiter"`         // CSV field delimiter, single character
	Preload      bool          `yaml:"preload" mapstructure:"preload"`             // load both habitats on server start

	SSHKeyFile    string `yaml:"ssh_key_file" mapstructure:"ssh_key_file"`       // private key for sftp sources without a password
	SSHKnownHosts string `yaml:"ssh_known_hosts" mapstructure:"ssh_known_hosts"` // known_hosts file; empty skips host key checks
}

// DashboardConfig holds view tuning parameters.
type DashboardConfig struct {
	EmptySelection   string `yaml:"empty_selection" mapstructure:"empty_selection"`     // "none" or "all"
	TopN             int    `yaml:"top_n" mapstructure:"top_n"`                         // entries in category count views
	GeoSampleSize    int    `yaml:"geo_sample_size" mapstructure:"geo_sample_size"`     // max points in map sample
	HistogramBins    int    `yaml:"histogram_bins" mapstructure:"histogram_bins"`       // bins for numeric histograms
	DefaultSelection int    `yaml:"default_selection" mapstructure:"default_selection"` // preselected species and observers
	SampleSeed       int64  `yaml:"sample_seed" mapstructure:"sample_seed"`             // 0 means random per pass
}

// SchemaConfig lists candidate column names per optional role, highest priority first.
type SchemaConfig struct {
	Latitude     []string `yaml:"latitude" mapstructure:"latitude"`
	Longitude    []string `yaml:"longitude" mapstructure:"longitude"`
	Conservation []string `yaml:"conservation" mapstructure:"conservation"`
}

// WebServerConfig contains HTTP server settings.
type WebServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`                 // dashboard response cache
	ReloadPerMinute int           `yaml:"reload_per_minute" mapstructure:"reload_per_minute"` // reload endpoint rate limit
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`     // CORS
	BodyLimit       string        `yaml:"body_limit" mapstructure:"body_limit"`               // e.g. "1M"
	Debug           bool          `yaml:"debug" mapstructure:"debug"`
}

// SessionConfig contains per-user session settings.
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl" mapstructure:"ttl"` // idle expiry
	MaxSessions int           `yaml:"max_sessions" mapstructure:"max_sessions"`
}

// TelemetryConfig controls the Prometheus metrics endpoint.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SentryConfig controls optional error reporting.
type SentryConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	DSN         string `yaml:"dsn" mapstructure:"dsn"`
	DSNFile     string `yaml:"dsn_file" mapstructure:"dsn_file"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// EventsConfig sizes the dataset event bus feeding MQTT and notifications.
type EventsConfig struct {
	BufferSize  int           `yaml:"buffer_size" mapstructure:"buffer_size"`
	Workers     int           `yaml:"workers" mapstructure:"workers"`
	DedupWindow time.Duration `yaml:"dedup_window" mapstructure:"dedup_window"` // identical load failures within the window are suppressed
}

// MQTTConfig controls publishing of dataset events to an MQTT broker.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Broker   string `yaml:"broker" mapstructure:"broker"` // e.g. tcp://localhost:1883
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Topic    string `yaml:"topic" mapstructure:"topic"` // base topic, events go to <topic>/<habitat>/<kind>
	Retain   bool   `yaml:"retain" mapstructure:"retain"`
}

// NotificationConfig controls push alerts for failed and recovered dataset loads.
type NotificationConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	URLs    []string      `yaml:"urls" mapstructure:"urls"` // shoutrrr service URLs
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Settings contains all configuration options for birdview.
type Settings struct {
	Debug bool `yaml:"debug" mapstructure:"debug"`

	Version   string `yaml:"-" mapstructure:"-"` // build version, runtime value
	BuildDate string `yaml:"-" mapstructure:"-"` // build date, runtime value

	Sources      SourcesConfig        `yaml:"sources" mapstructure:"sources"`
	Loader       LoaderConfig         `yaml:"loader" mapstructure:"loader"`
	Dashboard    DashboardConfig      `yaml:"dashboard" mapstructure:"dashboard"`
	Schema       SchemaConfig         `yaml:"schema" mapstructure:"schema"`
	WebServer    WebServerConfig      `yaml:"webserver" mapstructure:"webserver"`
	Session      SessionConfig        `yaml:"session" mapstructure:"session"`
	Telemetry    TelemetryConfig      `yaml:"telemetry" mapstructure:"telemetry"`
	Sentry       SentryConfig         `yaml:"sentry" mapstructure:"sentry"`
	Events       EventsConfig         `yaml:"events" mapstructure:"events"`
	MQTT         MQTTConfig           `yaml:"mqtt" mapstructure:"mqtt"`
	Notification NotificationConfig   `yaml:"notification" mapstructure:"notification"`
	Logging      logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// SourceFor returns the configured source for a habitat name.
func (s *Settings) SourceFor(habitat string) string {
	switch habitat {
	case "forest":
		return s.Sources.Forest
	case "grassland":
		return s.Sources.Grassland
	default:
		return ""
	}
}

// ListenAddress returns host:port for the HTTP server.
func (s *WebServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// An empty configFile searches the default config paths.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// resolveSecrets replaces credential-bearing values with their resolved form.
func resolveSecrets(settings *Settings) error {
	targets := []struct {
		name  string
		file  string
		value *string
	}{
		{"sources.forest", settings.Sources.ForestFile, &settings.Sources.Forest},
		{"sources.grassland", settings.Sources.GrasslandFile, &settings.Sources.Grassland},
		{"sentry.dsn", settings.Sentry.DSNFile, &settings.Sentry.DSN},
		{"mqtt.password", "", &settings.MQTT.Password},
	}
	for _, t := range targets {
		resolved, err := secrets.Resolve(t.file, *t.value)
		if err != nil {
			return fmt.Errorf("error resolving %s: %w", t.name, err)
		}
		*t.value = resolved
	}
	return nil
}

// initViper registers defaults and env bindings, then reads the config file.
// When no file is found the embedded default config is used.
func initViper(configFile string) error {
	viper.SetConfigType("yaml")

	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("Environment variable configuration issues", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(fmt.Errorf("error reading config file %s: %w", configFile, err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				FileContext(configFile, 0).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	GetLogger().Debug("No config file found, using embedded defaults",
		logger.Strings("searched", configPaths))
	return viper.ReadConfig(bytes.NewReader(getDefaultConfig()))
}

// getDefaultConfig returns the embedded default config.yaml.
func getDefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time; a failure here is a build defect
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// WriteDefaultConfig writes the embedded default config to path, creating directories.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(path, getDefaultConfig(), 0o644); err != nil { //nolint:gosec // config file is not secret
		return errors.FileError(fmt.Errorf("error writing default config file: %w", err), path, 0)
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// MarshalYAMLMasked renders settings as YAML with credentials masked.
func (s *Settings) MarshalYAMLMasked() ([]byte, error) {
	masked := *s
	masked.Sources.Forest = MaskSource(s.Sources.Forest)
	masked.Sources.Grassland = MaskSource(s.Sources.Grassland)
	if masked.Sentry.DSN != "" {
		masked.Sentry.DSN = maskedValue
	}
	if masked.MQTT.Password != "" {
		masked.MQTT.Password = maskedValue
	}
	if len(s.Notification.URLs) > 0 {
		// service URLs embed tokens
		masked.Notification.URLs = make([]string, len(s.Notification.URLs))
		for i := range masked.Notification.URLs {
			masked.Notification.URLs[i] = maskedValue
		}
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return data, nil
}
