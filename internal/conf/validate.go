// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// bodyLimitPattern matches the sizes echo's body limit middleware accepts.
var bodyLimitPattern = regexp.MustCompile(`(?i)^\d+[KMGTP]?B?$`)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateSourcesSettings,
		validateLoaderSettings,
		validateDashboardSettings,
		validateWebServerSettings,
		validateSessionSettings,
		validateSentrySettings,
		validateEventsSettings,
		validateLoggingSettings,
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateSourcesSettings checks source identifiers. Empty sources are allowed here;
// requesting an unconfigured habitat fails at load time.
func validateSourcesSettings(settings *Settings) error {
	var errs []string
	sources := []struct{ name, value string }{
		{"forest", settings.Sources.Forest},
		{"grassland", settings.Sources.Grassland},
	}
	for _, src := range sources {
		if src.value == "" {
			continue
		}
		if err := validateSource(src.value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", src.name, err))
		}
	}
	return joinErrs("sources", errs)
}

func validateLoaderSettings(settings *Settings) error {
	var errs []string
	l := &settings.Loader

	if err := validateEnvInvalidDates(l.InvalidDates); err != nil {
		errs = append(errs, fmt.Sprintf("invalid_dates: %v", err))
	}
	if len(l.DateLayouts) == 0 {
		errs = append(errs, "date_layouts must contain at least one layout")
	}
	if l.HTTPTimeout <= 0 {
		errs = append(errs, "http_timeout must be positive")
	}
	if utf8.RuneCountInString(l.Delimiter) != 1 || l.Delimiter == "\n" || l.Delimiter == "\"" {
		errs = append(errs, fmt.Sprintf("delimiter must be a single character other than newline or quote, got %q", l.Delimiter))
	}
	return joinErrs("loader", errs)
}

func validateDashboardSettings(settings *Settings) error {
	var errs []string
	d := &settings.Dashboard

	if err := validateEnvEmptySelection(d.EmptySelection); err != nil {
		errs = append(errs, fmt.Sprintf("empty_selection: %v", err))
	}
	if d.TopN < 1 {
		errs = append(errs, fmt.Sprintf("top_n must be at least 1, got %d", d.TopN))
	}
	if d.GeoSampleSize < 1 {
		errs = append(errs, fmt.Sprintf("geo_sample_size must be at least 1, got %d", d.GeoSampleSize))
	}
	if d.HistogramBins < 1 {
		errs = append(errs, fmt.Sprintf("histogram_bins must be at least 1, got %d", d.HistogramBins))
	}
	if d.DefaultSelection < 0 {
		errs = append(errs, fmt.Sprintf("default_selection must not be negative, got %d", d.DefaultSelection))
	}
	return joinErrs("dashboard", errs)
}

func validateWebServerSettings(settings *Settings) error {
	var errs []string
	w := &settings.WebServer

	if w.Port < 1 || w.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be between 1 and 65535, got %d", w.Port))
	}
	if w.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}
	if w.CacheTTL < 0 {
		errs = append(errs, "cache_ttl must not be negative")
	}
	if w.ReloadPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("reload_per_minute must be at least 1, got %d", w.ReloadPerMinute))
	}
	if w.BodyLimit != "" && !bodyLimitPattern.MatchString(w.BodyLimit) {
		errs = append(errs, fmt.Sprintf("body_limit %q must be a size such as 512K or 1M", w.BodyLimit))
	}
	return joinErrs("webserver", errs)
}

func validateSessionSettings(settings *Settings) error {
	var errs []string
	if settings.Session.TTL <= 0 {
		errs = append(errs, "ttl must be positive")
	}
	if settings.Session.MaxSessions < 1 {
		errs = append(errs, fmt.Sprintf("max_sessions must be at least 1, got %d", settings.Session.MaxSessions))
	}
	return joinErrs("session", errs)
}

func validateSentrySettings(settings *Settings) error {
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry settings errors: dsn is required when sentry is enabled")
	}
	return nil
}

func validateEventsSettings(settings *Settings) error {
	var errs []string
	if settings.Events.BufferSize < 1 {
		errs = append(errs, fmt.Sprintf("events.buffer_size must be at least 1, got %d", settings.Events.BufferSize))
	}
	if settings.Events.Workers < 1 {
		errs = append(errs, fmt.Sprintf("events.workers must be at least 1, got %d", settings.Events.Workers))
	}
	if settings.Events.DedupWindow < 0 {
		errs = append(errs, "events.dedup_window must not be negative")
	}

	if m := settings.MQTT; m.Enabled {
		u, err := url.Parse(m.Broker)
		switch {
		case m.Broker == "":
			errs = append(errs, "mqtt.broker is required when mqtt is enabled")
		case err != nil || u.Host == "":
			errs = append(errs, fmt.Sprintf("mqtt.broker %q is not a valid broker URL", m.Broker))
		}
		if m.Topic == "" {
			errs = append(errs, "mqtt.topic is required when mqtt is enabled")
		}
	}

	if n := settings.Notification; n.Enabled && len(n.URLs) == 0 {
		errs = append(errs, "notification.urls needs at least one URL when notifications are enabled")
	}
	return joinErrs("events", errs)
}

func validateLoggingSettings(settings *Settings) error {
	var errs []string
	l := &settings.Logging

	if l.DefaultLevel != "" && !isValidLogLevel(l.DefaultLevel) {
		errs = append(errs, fmt.Sprintf("default_level %q is not a valid level", l.DefaultLevel))
	}
	for module, level := range l.ModuleLevels {
		if !isValidLogLevel(level) {
			errs = append(errs, fmt.Sprintf("module_levels.%s %q is not a valid level", module, level))
		}
	}
	return joinErrs("logging", errs)
}

// validateSource checks that a source identifier has a supported form.
func validateSource(source string) error {
	if source == "" {
		return fmt.Errorf("source must not be empty")
	}

	scheme, rest, hasScheme := strings.Cut(source, "://")
	if !hasScheme {
		return nil
	}

	switch strings.ToLower(scheme) {
	case "file":
		if rest == "" {
			return fmt.Errorf("file source has no path")
		}
	case "http", "https":
		u, err := url.Parse(source)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("URL has no host")
		}
	case "ftp", "sftp":
		u, err := url.Parse(source)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("%s source has no host", scheme)
		}
		if u.Path == "" || strings.HasSuffix(u.Path, "/") {
			return fmt.Errorf("%s source has no file path", scheme)
		}
	case "sqlite", "mysql":
		path, query, _ := strings.Cut(rest, "?")
		if path == "" {
			return fmt.Errorf("%s source has no database", scheme)
		}
		values, err := url.ParseQuery(query)
		if err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
		if values.Get("table") == "" {
			return fmt.Errorf("%s source requires a table parameter", scheme)
		}
	default:
		return fmt.Errorf("unsupported source scheme %q", scheme)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func joinErrs(section string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s settings errors: %v", section, errs)
}
