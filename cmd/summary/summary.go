// Package summary provides a command that runs one dashboard pass and prints it.
package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dashboard"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/observation"
)

type options struct {
	asJSON    bool
	species   []string
	observers []string
	tempMin   float64
	tempMax   float64
}

// Command creates the summary command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "summary <forest|grassland>",
		Short: "Print a dashboard pass for one habitat",
		Long: `Load a habitat table, apply the selection given by flags on top of the
default selection, and print the summary and chart data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			habitat, err := observation.ParseHabitat(args[0])
			if err != nil {
				return err
			}

			store := dataset.NewStoreFromSettings(settings, nil, nil)
			svc := dashboard.NewService(store, dashboard.ConfigFromSettings(settings), nil, nil)

			criteria, err := svc.Defaults(cmd.Context(), habitat)
			if err != nil {
				return err
			}
			applyFlags(cmd, opts, &criteria)

			result, err := svc.Build(cmd.Context(), habitat, criteria)
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeText(cmd.OutOrStdout(), result)
		},
	}

	setupFlags(cmd, opts)

	return cmd
}

func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full pass as JSON")
	cmd.Flags().StringSliceVar(&opts.species, "species", nil, "Species to include (default: the configured default selection)")
	cmd.Flags().StringSliceVar(&opts.observers, "observer", nil, "Observers to include (default: the configured default selection)")
	cmd.Flags().Float64Var(&opts.tempMin, "temp-min", 0, "Lower temperature bound (default: table minimum)")
	cmd.Flags().Float64Var(&opts.tempMax, "temp-max", 0, "Upper temperature bound (default: table maximum)")
}

// applyFlags overlays only the flags given on the command line.
func applyFlags(cmd *cobra.Command, opts *options, criteria *filter.Criteria) {
	flags := cmd.Flags()
	if flags.Changed("species") {
		criteria.Species = nonBlank(opts.species)
	}
	if flags.Changed("observer") {
		criteria.Observers = nonBlank(opts.observers)
	}
	if flags.Changed("temp-min") {
		criteria.TempMin = opts.tempMin
	}
	if flags.Changed("temp-max") {
		criteria.TempMax = opts.tempMax
	}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func writeJSON(w io.Writer, result *dashboard.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeText(w io.Writer, result *dashboard.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	s := result.Summary
	fmt.Fprintf(tw, "Habitat:\t%s\n", result.Label)
	fmt.Fprintf(tw, "Rows:\t%d\n", s.Rows)
	fmt.Fprintf(tw, "Species:\t%d\n", s.Species)
	fmt.Fprintf(tw, "Observers:\t%d\n", s.Observers)
	fmt.Fprintf(tw, "Total count:\t%g\n", s.TotalCount)
	if s.FirstDate != nil && s.LastDate != nil {
		fmt.Fprintf(tw, "Dates:\t%s .. %s\n", s.FirstDate.Format(time.DateOnly), s.LastDate.Format(time.DateOnly))
	}
	if s.MeanTemp != nil {
		fmt.Fprintf(tw, "Mean temperature:\t%.1f\n", *s.MeanTemp)
	}
	fmt.Fprintf(tw, "Temperature range:\t%g .. %g\n", result.Criteria.TempMin, result.Criteria.TempMax)

	fmt.Fprintln(tw, "\nTop species\tCount")
	for _, c := range result.TopSpecies {
		fmt.Fprintf(tw, "%s\t%d\n", c.Label, c.Count)
	}
	fmt.Fprintln(tw, "\nTop observers\tCount")
	for _, c := range result.TopObservers {
		fmt.Fprintf(tw, "%s\t%d\n", c.Label, c.Count)
	}
	if result.Conservation != nil {
		fmt.Fprintln(tw, "\nConservation status\tCount")
		for _, c := range result.Conservation {
			fmt.Fprintf(tw, "%s\t%d\n", c.Label, c.Count)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(tw, "\nWarnings")
		for _, warning := range result.Warnings {
			fmt.Fprintf(tw, "%s:\t%s\n", warning.Chart, warning.Message)
		}
	}

	fmt.Fprintf(tw, "\nCompleted in %s\n", result.Duration.Round(time.Millisecond))
	return tw.Flush()
}
