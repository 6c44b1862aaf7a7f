package errors

import (
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdview/internal/privacy"
)

// SentryReporter sends enhanced errors to Sentry as scrubbed events grouped
// by component, category and operation.
type SentryReporter struct {
	enabled bool
}

func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError captures ee once; later calls for the same error are ignored.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	title := errorTitle(ee)
	message := privacy.ScrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err))
	level := sentryLevel(ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = privacy.ScrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, ee.GetComponent(), string(ee.Category)})

		event := sentry.NewEvent()
		event.Level = level
		event.Message = message
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

var categoryTitles = map[ErrorCategory]string{
	CategoryValidation:    "Validation Error",
	CategoryNetwork:       "Network Error",
	CategoryDatabase:      "Database Error",
	CategoryFileIO:        "File I/O Error",
	CategoryFileParsing:   "Parsing Error",
	CategorySchema:        "Schema Error",
	CategoryAggregation:   "Aggregation Error",
	CategoryConfiguration: "Configuration Error",
	CategorySystem:        "System Error",
}

// errorTitle builds the Sentry issue title, e.g. "Dataset Parsing Error Parse Dates".
func errorTitle(ee *EnhancedError) string {
	var parts []string
	if c := ee.GetComponent(); c != "" && c != ComponentUnknown {
		parts = append(parts, capitalize(c))
	}
	if t, ok := categoryTitles[ee.Category]; ok {
		parts = append(parts, t)
	} else if ee.Category != "" {
		parts = append(parts, string(ee.Category))
	}
	if op, _ := ee.GetContext()["operation"].(string); op != "" {
		for word := range strings.FieldsSeq(strings.ReplaceAll(op, "_", " ")) {
			parts = append(parts, capitalize(word))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%T", ee.Err)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sentryLevel downgrades transient and bad-input failures.
func sentryLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryNetwork, CategoryTimeout, CategoryFileIO, CategoryFileParsing, CategorySchema:
		return sentry.LevelWarning
	case CategoryValidation, CategoryNotFound, CategoryLimit, CategoryCancellation:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}
