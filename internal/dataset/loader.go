// Package dataset loads habitat observation tables from CSV files, HTTP endpoints
// and SQL databases, and memoizes them for the lifetime of the process.
package dataset

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/httpclient"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/privacy"
)

// Options controls how sources are read and parsed.
type Options struct {
	// InvalidDates is conf.InvalidDatesReject or conf.InvalidDatesDrop.
	InvalidDates string
	DateLayouts  []string
	HTTPTimeout  time.Duration
	Delimiter    rune

	// sftp authentication and host key verification
	SSHKeyFile    string
	SSHKnownHosts string

	// Transport replaces the pooled HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// OptionsFromSettings converts loader settings to Options.
func OptionsFromSettings(cfg *conf.LoaderConfig) Options {
	opts := Options{
		InvalidDates: cfg.InvalidDates,
		DateLayouts:  cfg.DateLayouts,
		HTTPTimeout:  cfg.HTTPTimeout,
		Delimiter:    ',',

		SSHKeyFile:    cfg.SSHKeyFile,
		SSHKnownHosts: cfg.SSHKnownHosts,
	}
	switch cfg.Delimiter {
	case "", ",":
	case `\t`, "tab":
		opts.Delimiter = '\t'
	default:
		if r, _ := utf8.DecodeRuneInString(cfg.Delimiter); r != utf8.RuneError {
			opts.Delimiter = r
		}
	}
	return opts
}

// LoadReport describes one completed load.
type LoadReport struct {
	Habitat    observation.Habitat `json:"habitat"`
	Source     string              `json:"source"` // credentials removed
	SourceType Kind                `json:"source_type"`
	Rows       int                 `json:"rows"`

	// Dropped counts rows removed for unparsable dates under the drop policy.
	Dropped         int `json:"dropped"`
	FirstDroppedRow int `json:"first_dropped_row,omitempty"`

	Duration time.Duration `json:"duration"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// Loader reads a source identifier into an observation table.
type Loader struct {
	opts   Options
	client *httpclient.Client
	log    logger.Logger
}

// NewLoader creates a loader. Zero-valued options fall back to the configuration defaults.
func NewLoader(opts Options, log logger.Logger) *Loader {
	if opts.InvalidDates == "" {
		opts.InvalidDates = conf.InvalidDatesReject
	}
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = conf.DefaultDateLayouts
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}

	if log == nil {
		log = logger.Global().Module("dataset")
	}

	client := httpclient.New(&httpclient.Config{
		DefaultTimeout: opts.HTTPTimeout,
		Transport:      opts.Transport,
	})
	httpLog := log.Module("http")
	client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, elapsed time.Duration, err error) {
		fields := []logger.Field{
			logger.String("url", privacy.ScrubMessage(req.URL.String())),
			logger.Duration("elapsed", elapsed),
		}
		if err != nil {
			httpLog.Debug("Dataset fetch failed", append(fields, logger.Error(err))...)
			return
		}
		httpLog.Debug("Dataset fetched", append(fields, logger.Int("status_code", resp.StatusCode))...)
	})

	return &Loader{opts: opts, client: client, log: log}
}

// Load reads source and builds the observation table for habitat.
func (l *Loader) Load(ctx context.Context, habitat observation.Habitat, source string) (*observation.Table, LoadReport, error) {
	start := time.Now()
	report := LoadReport{Habitat: habitat, Source: privacy.SanitizeSource(source)}

	src, err := ParseSource(source)
	if err != nil {
		return nil, report, err
	}
	report.SourceType = src.Kind

	log := l.log.With(
		logger.String("habitat", habitat.String()),
		logger.String("source", report.Source),
		logger.String("source_type", string(src.Kind)))
	log.Debug("Loading observation table")

	var raw *rawTable
	switch src.Kind {
	case KindFile:
		raw, err = l.readFile(src)
	case KindHTTP:
		raw, err = l.readHTTP(ctx, src)
	case KindSQLite, KindMySQL:
		raw, err = l.readSQL(ctx, src)
	case KindSFTP:
		raw, err = l.readSFTP(ctx, src)
	case KindFTP:
		raw, err = l.readFTP(ctx, src)
	default:
		err = sourceError(source, fmt.Sprintf("unsupported source kind %q", src.Kind))
	}
	if err != nil {
		return nil, report, annotate(err, habitat)
	}

	parsed, err := l.parse(raw)
	if err != nil {
		return nil, report, annotate(err, habitat)
	}

	table := observation.NewTable(habitat, source, raw.header, parsed.records)
	report.Rows = table.Len()
	report.Dropped = parsed.dropped
	report.FirstDroppedRow = parsed.firstDropped
	report.Duration = time.Since(start)
	report.LoadedAt = table.LoadedAt

	if parsed.dropped > 0 {
		log.Warn("Dropped rows with unparsable dates",
			logger.Int("dropped", parsed.dropped),
			logger.Int("first_row", parsed.firstDropped))
	}
	log.Info("Loaded observation table",
		logger.Int("rows", report.Rows),
		logger.Int("columns", len(table.Columns)),
		logger.Duration("duration", report.Duration))

	return table, report, nil
}

// annotate adds the habitat to an enhanced error's context.
func annotate(err error, habitat observation.Habitat) error {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		ee.AddContext("habitat", habitat.String())
		return ee
	}
	return errors.New(err).
		Component("dataset").
		Context("habitat", habitat.String()).
		Build()
}
