// Package columns provides a command that reports how a habitat's columns resolve.
package columns

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dashboard"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/schema"
)

// Command creates the columns command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "columns [forest|grassland]",
		Short: "Show table columns and optional role resolution",
		Long:  "Load habitat tables and report their columns, which optional roles resolved, and the selector options.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			habitats := observation.Habitats()
			if len(args) == 1 {
				h, err := observation.ParseHabitat(args[0])
				if err != nil {
					return err
				}
				habitats = []observation.Habitat{h}
			}

			store := dataset.NewStoreFromSettings(settings, nil, nil)
			svc := dashboard.NewService(store, dashboard.ConfigFromSettings(settings), nil, nil)

			reports := make([]*dashboard.Options, 0, len(habitats))
			for _, h := range habitats {
				opts, err := svc.Options(cmd.Context(), h)
				if err != nil {
					return err
				}
				reports = append(reports, opts)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			return writeText(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func writeText(w io.Writer, reports []*dashboard.Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d rows)\n", r.Label, r.Rows)
		fmt.Fprintf(tw, "Columns:\t%s\n", strings.Join(r.Columns, ", "))
		for _, role := range schema.Roles() {
			col, ok := r.Resolution.Column(role)
			if !ok {
				col = "(unresolved)"
			}
			fmt.Fprintf(tw, "%s:\t%s\n", role, col)
		}
		fmt.Fprintf(tw, "Species:\t%d\n", len(r.Available.Species))
		fmt.Fprintf(tw, "Observers:\t%d\n", len(r.Available.Observers))
	}
	return tw.Flush()
}
