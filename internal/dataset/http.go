package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

// readHTTP fetches a CSV source over http(s).
func (l *Loader) readHTTP(ctx context.Context, src Source) (*rawTable, error) {
	resp, err := l.client.Get(ctx, src.Location, "text/csv, text/plain;q=0.9, */*;q=0.5")
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to fetch dataset: %w", err)).
			Component("dataset").
			Category(errors.CategoryNetwork).
			NetworkContext(src.Location, l.opts.HTTPTimeout).
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.log.Warn("Failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.New(fmt.Errorf("dataset fetch returned %s", resp.Status)).
			Component("dataset").
			Category(errors.CategoryNetwork).
			NetworkContext(src.Location, l.opts.HTTPTimeout).
			Context("status_code", resp.StatusCode).
			Context("body", string(snippet)).
			Build()
	}

	return readCSV(resp.Body, l.opts.Delimiter)
}
