package dataset

import (
	"context"
	"fmt"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
)

// slowQueryThreshold marks full-table reads that should be logged as slow.
const slowQueryThreshold = 2 * time.Second

// openDB opens the database behind a sqlite:// or mysql:// source. Callers
// close the returned handle.
func (l *Loader) openDB(src Source) (*gorm.DB, func(), error) {
	var dialector gorm.Dialector
	switch src.Kind {
	case KindSQLite:
		dialector = sqlite.Open(src.Location)
	case KindMySQL:
		cfg, err := mysqldriver.ParseDSN(src.Location)
		if err != nil {
			return nil, nil, dbError(fmt.Errorf("invalid MySQL DSN: %w", err), src)
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = l.opts.HTTPTimeout
		}
		dialector = mysql.Open(cfg.FormatDSN())
	default:
		return nil, nil, dbError(fmt.Errorf("unsupported SQL source kind %q", src.Kind), src)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLoggerAdapter(l.log.Module("sql"), slowQueryThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, nil, dbError(fmt.Errorf("failed to open database: %w", err), src)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, dbError(fmt.Errorf("failed to get database handle: %w", err), src)
	}
	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			l.log.Warn("Failed to close database", logger.Error(err))
		}
	}
	return db, closeDB, nil
}

// readSQL reads every row of the configured table through gorm.
func (l *Loader) readSQL(ctx context.Context, src Source) (*rawTable, error) {
	db, closeDB, err := l.openDB(src)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	rows, err := db.WithContext(ctx).Table(src.Table).Rows()
	if err != nil {
		return nil, dbError(fmt.Errorf("failed to query table %s: %w", src.Table, err), src)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			l.log.Warn("Failed to close rows", logger.Error(err))
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, dbError(fmt.Errorf("failed to read columns: %w", err), src)
	}

	raw := &rawTable{header: normalizeHeader(columns), firstLine: 1}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, dbError(fmt.Errorf("failed to scan row %d: %w", len(raw.rows)+1, err), src)
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = formatSQLValue(v)
		}
		raw.rows = append(raw.rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(fmt.Errorf("failed to iterate rows: %w", err), src)
	}

	return raw, nil
}

// formatSQLValue renders a scanned driver value the way it would appear in a CSV export.
func formatSQLValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.DateTime)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func dbError(err error, src Source) error {
	return errors.New(err).
		Component("dataset").
		Category(errors.CategoryDatabase).
		SourceContext("", src.Raw).
		Context("table", src.Table).
		Build()
}
