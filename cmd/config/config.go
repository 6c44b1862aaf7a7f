// Package config provides a command that prints the effective configuration.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdview/internal/conf"
)

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	var writeDefault string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the merged configuration from file, environment and flags with source credentials masked.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if writeDefault != "" {
				if err := conf.WriteDefaultConfig(writeDefault); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", writeDefault)
				return nil
			}

			data, err := settings.MarshalYAMLMasked()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&writeDefault, "write-default", "", "Write the default config.yaml to this path and exit")

	return cmd
}
