// Package cmd assembles the birdview command line interface.
package cmd

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdview/cmd/columns"
	configcmd "github.com/tphakala/birdview/cmd/config"
	"github.com/tphakala/birdview/cmd/export"
	"github.com/tphakala/birdview/cmd/serve"
	"github.com/tphakala/birdview/cmd/summary"
	"github.com/tphakala/birdview/internal/buildinfo"
	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/telemetry"
)

const telemetryFlushTimeout = 2 * time.Second

// RootCommand creates the root command. Settings are loaded once the command
// line is parsed, so subcommands read them only from their Run functions.
func RootCommand(build *buildinfo.Context) *cobra.Command {
	settings := &conf.Settings{}
	var (
		configFile string
		envFile    string
		central    *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:           "birdview",
		Short:         "Bird observation dashboard backend",
		Long:          "birdview loads forest and grassland bird observation tables and serves filtered dashboard views over HTTP.",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, &configFile, &envFile); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		summary.Command(settings),
		columns.Command(settings),
		export.Command(settings),
		configcmd.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded
		settings.Version = build.Version()
		settings.BuildDate = build.BuildDate()
		if settings.Debug {
			settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		}

		central, err = logger.NewCentralLogger(&settings.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logger.SetGlobal(central)

		if err := telemetry.InitSentry(&settings.Sentry, settings.Version); err != nil {
			central.Module("telemetry").Warn("Error reporting disabled", logger.Error(err))
		}
		telemetry.InitializeErrorIntegration(settings.Sentry.Enabled)
		return nil
	}

	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		telemetry.Flush(telemetryFlushTimeout)
		if central != nil {
			return central.Close()
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags shared by every subcommand and binds them to viper keys.
func setupFlags(rootCmd *cobra.Command, configFile, envFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search ./, ~/.config/birdview, /etc/birdview)")
	flags.StringVar(envFile, "env-file", ".env", "Environment file loaded before the configuration")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("forest-source", "", "Forest observation source (path, http(s)://, ftp://, sftp://, sqlite:// or mysql://)")
	flags.String("grassland-source", "", "Grassland observation source (path, http(s)://, ftp://, sftp://, sqlite:// or mysql://)")

	bindings := map[string]string{
		"debug":             "debug",
		"sources.forest":    "forest-source",
		"sources.grassland": "grassland-source",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// loadEnvFile overlays variables from an env file onto the process environment.
// Variables already set in the environment win, and a missing file is ignored
// unless it was named explicitly.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if path == ".env" {
			return nil
		}
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}
