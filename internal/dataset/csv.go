package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tphakala/birdview/internal/errors"
)

// rawTable is a header plus string cells, the common shape every source kind produces.
type rawTable struct {
	header []string
	rows   [][]string
	// lines holds the source line of each row when the source has lines;
	// otherwise rows are numbered from firstLine.
	lines     []int
	firstLine int
}

// line returns the source line (or row number) of rows[i] for error messages.
func (t *rawTable) line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return t.firstLine + i
}

// readCSV reads a delimited table with a header row.
func readCSV(r io.Reader, delimiter rune) (*rawTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, parseError(fmt.Errorf("source is empty, expected a header row"))
	}
	if err != nil {
		return nil, parseError(fmt.Errorf("failed to read CSV header: %w", err))
	}

	raw := &rawTable{header: normalizeHeader(header), firstLine: 2}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(fmt.Errorf("failed to read CSV: %w", err))
		}
		if isBlankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		raw.rows = append(raw.rows, record)
		raw.lines = append(raw.lines, line)
	}

	return raw, nil
}

// normalizeHeader trims whitespace and a leading UTF-8 byte order mark.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseError(err error) error {
	return errors.New(err).
		Component("dataset").
		Category(errors.CategoryFileParsing).
		Build()
}
