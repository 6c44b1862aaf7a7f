//go:build ruleguard

// Package gorules contains custom linting rules for golangci-lint via ruleguard.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo detects manual Add/Done goroutine bookkeeping that wg.Go replaces.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`).
		Where(m["wg"].Type.Is("sync.WaitGroup") || m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")

	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("sync.WaitGroup") || m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of go func() { defer $wg.Done(); ... }() (Go 1.25+)")
}

// TestingContext prefers t.Context() in tests so work is cancelled when the test ends.
func TestingContext(m dsl.Matcher) {
	m.Match(`context.Background()`, `context.TODO()`).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of $$ (Go 1.24+)")
}

// TimeLayoutConstants detects layouts that have named constants.
func TimeLayoutConstants(m dsl.Matcher) {
	m.Match(`$t.Format("2006-01-02")`).
		Report(`use $t.Format(time.DateOnly)`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(`$t.Format("2006-01-02 15:04:05")`).
		Report(`use $t.Format(time.DateTime)`).
		Suggest(`$t.Format(time.DateTime)`)
}

// LoggerErrorField keeps the error key uniform across modules.
func LoggerErrorField(m dsl.Matcher) {
	m.Import("github.com/tphakala/birdview/internal/logger")

	m.Match(`logger.String("error", $err.Error())`, `logger.Any("error", $err)`).
		Report("use logger.Error($err)").
		Suggest("logger.Error($err)")
}

// NoStdLogging keeps library packages on the structured logger.
func NoStdLogging(m dsl.Matcher) {
	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`, `fmt.Printf($*_)`, `fmt.Println($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report("use the module logger from internal/logger instead of printing")
}

// CategorizedErrors flags enhanced errors built without a category.
func CategorizedErrors(m dsl.Matcher) {
	m.Import("github.com/tphakala/birdview/internal/errors")

	m.Match(`errors.New($err).Component($c).Build()`).
		Report("set a Category before Build so telemetry can group the error")
}
