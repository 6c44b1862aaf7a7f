package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/observation"
)

type parseResult struct {
	records      []observation.Record
	dropped      int
	firstDropped int
}

// parse converts raw string cells into typed records.
func (l *Loader) parse(raw *rawTable) (*parseResult, error) {
	index := make(map[string]int, len(raw.header))
	for i, name := range raw.header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range observation.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Context("missing_columns", missing).
			Build()
	}

	result := &parseResult{records: make([]observation.Record, 0, len(raw.rows))}
	drop := l.opts.InvalidDates == conf.InvalidDatesDrop

	for i, row := range raw.rows {
		line := raw.line(i)
		fields := make(map[string]string, len(index))
		for name, col := range index {
			if col < len(row) {
				fields[name] = strings.TrimSpace(row[col])
			} else {
				fields[name] = ""
			}
		}

		date, ok := parseDate(fields[observation.ColumnDate], l.opts.DateLayouts)
		if !ok {
			if drop {
				if result.dropped == 0 {
					result.firstDropped = line
				}
				result.dropped++
				continue
			}
			return nil, cellError(line, observation.ColumnDate, fields[observation.ColumnDate], "unparsable date")
		}

		count, err := parseCount(fields[observation.ColumnInitialCount])
		if err != nil {
			return nil, cellError(line, observation.ColumnInitialCount, fields[observation.ColumnInitialCount], "non-numeric count")
		}

		temp, err := parseTemperature(fields[observation.ColumnTemperature])
		if err != nil {
			return nil, cellError(line, observation.ColumnTemperature, fields[observation.ColumnTemperature], "non-numeric temperature")
		}

		result.records = append(result.records, observation.Record{
			Date:         date,
			CommonName:   fields[observation.ColumnCommonName],
			Observer:     fields[observation.ColumnObserver],
			InitialCount: count,
			Temperature:  temp,
			Distance:     fields[observation.ColumnDistance],
			Fields:       fields,
		})
	}

	return result, nil
}

// parseDate tries each layout in order.
func parseDate(value string, layouts []string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCount parses the initial count; blank cells count as zero.
func parseCount(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return parseFloat(value)
}

// parseTemperature parses a temperature; blank cells become NaN so they never match a range.
func parseTemperature(value string) (float64, error) {
	if value == "" {
		return math.NaN(), nil
	}
	return parseFloat(value)
}

func parseFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %q is not finite", value)
	}
	return f, nil
}

func cellError(line int, column, value, reason string) error {
	return errors.New(fmt.Errorf("row %d: %s in column %s: %q", line, reason, column, value)).
		Component("dataset").
		Category(errors.CategoryFileParsing).
		Context("row", line).
		Context("column", column).
		Build()
}
