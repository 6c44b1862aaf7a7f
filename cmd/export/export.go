// Package export provides a command that copies a habitat table into a SQL database.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observation"
)

type options struct {
	batchSize int
	replace   bool
	asJSON    bool
}

// Command creates the export command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "export <forest|grassland> <sqlite://path?table=name|mysql://dsn?table=name>",
		Short: "Copy a habitat table into a SQLite or MySQL table",
		Long: `Load a habitat table from its configured source and write every row into a
new SQL table, which can then be used as that habitat's source.`,
		Example: `  birdview export forest "sqlite://data/birds.db?table=forest"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			habitat, err := observation.ParseHabitat(args[0])
			if err != nil {
				return err
			}

			log := logger.Global().Module("export")
			loader := dataset.NewLoader(dataset.OptionsFromSettings(&settings.Loader), log)
			store := dataset.NewStore(loader, dataset.SourcesFromSettings(&settings.Sources), nil, log)

			table, err := store.Get(cmd.Context(), habitat)
			if err != nil {
				return err
			}

			stats, err := loader.Export(cmd.Context(), table, args[1], dataset.ExportOptions{
				BatchSize: opts.batchSize,
				Replace:   opts.replace,
			})
			if err != nil {
				return err
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			return writeText(cmd.OutOrStdout(), habitat, stats)
		},
	}

	cmd.Flags().IntVar(&opts.batchSize, "batch-size", dataset.DefaultExportBatchSize, "Rows per INSERT statement")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Drop the target table if it already exists")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the export summary as JSON")

	return cmd
}

func writeText(w io.Writer, habitat observation.Habitat, stats dataset.ExportStats) error {
	_, err := fmt.Fprintf(w, "Exported %d %s rows to %s (table %s) in %d batches, %s\n",
		stats.Rows, habitat, stats.Target, stats.Table, stats.Batches, stats.Duration.Round(time.Millisecond))
	return err
}
