// Package telemetry wires optional Sentry error reporting into birdview.
//
// Reporting is opt-in through the sentry section of the configuration. Every
// event passes through the privacy filters before it leaves the process, so
// source URLs, DSN credentials and file paths never reach Sentry in clear text.
package telemetry

import (
	"fmt"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/privacy"
)

const defaultEnvironment = "production"

// InitSentry initializes the Sentry client when reporting is enabled.
// A disabled configuration is not an error; the client stays uninitialized.
func InitSentry(cfg *conf.SentryConfig, version string) error {
	return initSentry(cfg, version, nil)
}

// initSentry allows tests to inject a transport.
func initSentry(cfg *conf.SentryConfig, version string, transport sentry.Transport) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	environment := cfg.Environment
	if environment == "" {
		environment = defaultEnvironment
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Debug:            cfg.Debug,
		Environment:      environment,
		Release:          fmt.Sprintf("birdview@%s", version),
		SampleRate:       1.0,
		TracesSampleRate: 0,
		AttachStacktrace: false,
		ServerName:       "",
		Transport:        transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	configureSentryScope(version)

	logger.Global().Module("telemetry").Info("Sentry telemetry initialized",
		logger.String("environment", environment),
		logger.String("version", version),
		logger.Bool("debug", cfg.Debug))

	return nil
}

// applyPrivacyFilters strips identifying data from an outgoing event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	event.ServerName = ""
	event.User = sentry.User{}
	event.Request = nil
	event.Modules = nil
	event.Message = privacy.ScrubMessage(event.Message)

	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	for key, value := range event.Extra {
		if s, ok := value.(string); ok {
			event.Extra[key] = privacy.ScrubMessage(s)
		}
	}

	return event
}

// configureSentryScope tags every event with platform information.
func configureSentryScope(version string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)

		scope.SetContext("application", map[string]any{
			"name":    "birdview",
			"version": version,
		})
		scope.SetContext("platform", map[string]any{
			"os":           runtime.GOOS,
			"architecture": runtime.GOARCH,
			"num_cpu":      runtime.NumCPU(),
			"go_version":   runtime.Version(),
		})
	})
}

// Flush waits for buffered events to be delivered. It is a no-op when Sentry
// was never initialized.
func Flush(timeout time.Duration) {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.Flush(timeout)
}
