package errors

import (
	"runtime"
	"strings"
)

const selfPackage = "github.com/tphakala/birdview/internal/errors"

// componentPrefixes maps package paths to component names. Packages not
// listed fall back to their own name.
var componentPrefixes = []struct{ pkg, component string }{
	{"internal/dataset", "dataset"},
	{"internal/schema", "schema"},
	{"internal/filter", "filter"},
	{"internal/aggregate", "aggregate"},
	{"internal/dashboard", "dashboard"},
	{"internal/session", "session"},
	{"internal/api", "api"},
	{"internal/conf", "configuration"},
	{"internal/events", "events"},
	{"internal/mqtt", "mqtt"},
	{"internal/notification", "notification"},
	{"internal/observability", "observability"},
}

// detectComponent walks the caller stack to the first frame outside this
// package.
func detectComponent() string {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, selfPackage+".") {
			if component := componentOf(frame.Function); component != "" {
				return component
			}
		}
		if !more {
			return ComponentUnknown
		}
	}
}

// componentOf maps a fully qualified function name to a component.
func componentOf(funcName string) string {
	for _, p := range componentPrefixes {
		if strings.Contains(funcName, p.pkg+".") || strings.Contains(funcName, p.pkg+"/") {
			return p.component
		}
	}
	last := funcName[strings.LastIndexByte(funcName, '/')+1:]
	if dot := strings.IndexByte(last, '.'); dot > 0 {
		return last[:dot]
	}
	return ""
}

// messageCategories is checked in order; the first matching fragment wins.
var messageCategories = []struct {
	fragments []string
	category  ErrorCategory
}{
	{[]string{"column"}, CategorySchema},
	{[]string{"parse", "csv"}, CategoryFileParsing},
	{[]string{"file", "read", "open"}, CategoryFileIO},
	{[]string{"connection", "timeout"}, CategoryNetwork},
	{[]string{"validation", "invalid"}, CategoryValidation},
	{[]string{"not found"}, CategoryNotFound},
}

var componentCategories = map[string]ErrorCategory{
	"dataset":       CategoryFileIO,
	"schema":        CategorySchema,
	"filter":        CategoryValidation,
	"aggregate":     CategoryAggregation,
	"configuration": CategoryConfiguration,
	"mqtt":          CategoryNetwork,
	"notification":  CategoryNetwork,
}

// detectCategory infers a category from the error chain, then the message,
// then the component.
func detectCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var categorized CategorizedError
	if As(err, &categorized) {
		return categorized.ErrorCategory()
	}
	var inner *EnhancedError
	if As(err, &inner) && inner.Category != "" {
		return inner.Category
	}

	msg := strings.ToLower(err.Error())
	for _, mc := range messageCategories {
		for _, fragment := range mc.fragments {
			if strings.Contains(msg, fragment) {
				return mc.category
			}
		}
	}

	if category, ok := componentCategories[component]; ok {
		return category
	}
	return CategoryGeneric
}
