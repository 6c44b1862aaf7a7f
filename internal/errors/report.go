package errors

import (
	"sync"
	"sync/atomic"
)

// TelemetryReporter receives built errors while it reports itself enabled.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// ErrorHook observes every error built while reporting is active.
type ErrorHook func(ee *EnhancedError)

var (
	reportMu sync.RWMutex
	reporter TelemetryReporter
	hooks    []ErrorHook

	// reportingActive lets Build skip stack inspection when nobody listens.
	reportingActive atomic.Bool
)

// SetTelemetryReporter installs the global reporter. Nil disables reporting.
func SetTelemetryReporter(r TelemetryReporter) {
	reportMu.Lock()
	defer reportMu.Unlock()
	reporter = r
	refreshReportingLocked()
}

// GetTelemetryReporter returns the installed reporter, if any.
func GetTelemetryReporter() TelemetryReporter {
	reportMu.RLock()
	defer reportMu.RUnlock()
	return reporter
}

// AddErrorHook registers hook for every subsequently built error.
func AddErrorHook(hook ErrorHook) {
	if hook == nil {
		return
	}
	reportMu.Lock()
	defer reportMu.Unlock()
	hooks = append(hooks, hook)
	refreshReportingLocked()
}

// ClearErrorHooks removes all hooks.
func ClearErrorHooks() {
	reportMu.Lock()
	defer reportMu.Unlock()
	hooks = nil
	refreshReportingLocked()
}

func refreshReportingLocked() {
	reportingActive.Store(len(hooks) > 0 || (reporter != nil && reporter.IsEnabled()))
}

func report(ee *EnhancedError) {
	reportMu.RLock()
	r, hs := reporter, hooks
	reportMu.RUnlock()

	if r != nil && r.IsEnabled() {
		r.ReportError(ee)
	}
	for _, hook := range hs {
		hook(ee)
	}
}
