package logger_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/tphakala/birdview/internal/logger"
)

func TestGormLoggerAdapterLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	adapter := logger.NewGormLoggerAdapter(logger.NewSlogLogger(buf, logger.LogLevelTrace, time.UTC), 100*time.Millisecond)
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT * FROM `observations`", 7 }

	adapter.Trace(ctx, time.Now(), stmt, nil)
	adapter.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	adapter.Trace(ctx, time.Now(), stmt, fmt.Errorf("no such table"))
	adapter.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)

	out := buf.String()
	assert.Contains(t, out, "level=TRACE msg=\"SQL statement\"")
	assert.Contains(t, out, "msg=\"Slow SQL statement\"")
	assert.Contains(t, out, "error=\"no such table\"")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("level=WARN msg=\"SQL statement failed\"")))
	assert.Contains(t, out, "rows=7")
}

func TestGormLoggerAdapterIgnoresLogMode(t *testing.T) {
	t.Parallel()

	adapter := logger.NewGormLoggerAdapter(logger.NewSlogLogger(&bytes.Buffer{}, logger.LogLevelInfo, time.UTC), 0)
	assert.Same(t, adapter, adapter.LogMode(0))
}
