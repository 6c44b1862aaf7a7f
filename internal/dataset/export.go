package dataset

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/privacy"
)

// DefaultExportBatchSize keeps each INSERT well under SQLite's bound variable limit.
const DefaultExportBatchSize = 200

// ExportOptions controls copying a loaded table into a SQL table.
type ExportOptions struct {
	BatchSize int
	Replace   bool // drop an existing target table first
}

// ExportStats summarizes an export.
type ExportStats struct {
	Target   string        `json:"target"` // credentials removed
	Table    string        `json:"table"`
	Rows     int64         `json:"rows"`
	Batches  int           `json:"batches"`
	Duration time.Duration `json:"duration"`
}

// Export writes every record of table into the SQL table named by target, a
// sqlite:// or mysql:// source identifier. All columns are stored as text in
// header order so the result loads back unchanged. The row count is verified
// before the transaction commits.
func (l *Loader) Export(ctx context.Context, table *observation.Table, target string, opts ExportOptions) (ExportStats, error) {
	start := time.Now()
	stats := ExportStats{Target: privacy.SanitizeSource(target)}

	src, err := ParseSource(target)
	if err != nil {
		return stats, err
	}
	if src.Kind != KindSQLite && src.Kind != KindMySQL {
		return stats, sourceError(target, "export target must be a sqlite:// or mysql:// source")
	}
	stats.Table = src.Table
	if len(table.Columns) == 0 {
		return stats, errors.Newf("table for %s has no columns", table.Habitat).
			Component("dataset").
			Category(errors.CategoryValidation).
			Build()
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultExportBatchSize
	}

	db, closeDB, err := l.openDB(src)
	if err != nil {
		return stats, err
	}
	defer closeDB()
	db = db.WithContext(ctx)

	log := l.log.With(
		logger.String("target", stats.Target),
		logger.String("table", src.Table))

	if db.Migrator().HasTable(src.Table) {
		if !opts.Replace {
			return stats, dbError(fmt.Errorf("table %s already exists; use replace to overwrite it", src.Table), src)
		}
		if err := db.Migrator().DropTable(src.Table); err != nil {
			return stats, dbError(fmt.Errorf("failed to drop table %s: %w", src.Table, err), src)
		}
		log.Info("Dropped existing export table")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(createTableSQL(tx, src.Table, table.Columns)).Error; err != nil {
			return fmt.Errorf("failed to create table %s: %w", src.Table, err)
		}

		for batch := range slices.Chunk(table.Records, batchSize) {
			rows := make([]map[string]any, len(batch))
			for i := range batch {
				row := make(map[string]any, len(table.Columns))
				for _, column := range table.Columns {
					row[column] = batch[i].Field(column)
				}
				rows[i] = row
			}
			if err := tx.Table(src.Table).Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to insert batch %d: %w", stats.Batches+1, err)
			}
			stats.Batches++
			stats.Rows += int64(len(batch))
		}

		var count int64
		if err := tx.Table(src.Table).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count exported rows: %w", err)
		}
		if count != int64(table.Len()) {
			return fmt.Errorf("row count mismatch: table has %d records, %s has %d rows", table.Len(), src.Table, count)
		}
		return nil
	})
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, dbError(err, src)
	}

	log.Info("Exported observation table",
		logger.String("habitat", table.Habitat.String()),
		logger.Int64("rows", stats.Rows),
		logger.Int("batches", stats.Batches),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// createTableSQL builds a text-column DDL statement quoted for the dialect of db.
func createTableSQL(db *gorm.DB, name string, columns []string) string {
	defs := make([]string, len(columns))
	for i, column := range columns {
		defs[i] = db.Statement.Quote(column) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", db.Statement.Quote(name), strings.Join(defs, ", "))
}
