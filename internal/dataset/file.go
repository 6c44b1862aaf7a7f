package dataset

import (
	"fmt"
	"os"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
)

// readFile reads a CSV source from the local filesystem.
func (l *Loader) readFile(src Source) (*rawTable, error) {
	f, err := os.Open(src.Location)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open dataset file: %w", err)).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(src.Location, 0).
			Build()
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.log.Warn("Failed to close dataset file", logger.Error(err))
		}
	}()

	return readCSV(f, l.opts.Delimiter)
}
