package telemetry

import (
	"github.com/tphakala/birdview/internal/errors"
)

// InitializeErrorIntegration routes built enhanced errors to Sentry.
func InitializeErrorIntegration(enabled bool) {
	errors.SetTelemetryReporter(errors.NewSentryReporter(enabled))
}
