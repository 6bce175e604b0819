package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/eloc-raven/cmd/config"
	"github.com/tphakala/eloc-raven/cmd/extract"
	"github.com/tphakala/eloc-raven/cmd/process"
	"github.com/tphakala/eloc-raven/cmd/scan"
	"github.com/tphakala/eloc-raven/cmd/version"
	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// skipConfigLoad marks commands that run without loading the configuration
const skipConfigLoad = "skipConfigLoad"

// RootCommand creates and returns the root command
func RootCommand(ctx *conf.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "eloc-raven",
		Short:         "Convert ELOC detections to Raven selection tables and audio clips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, ctx)

	rootCmd.AddCommand(
		process.Command(ctx),
		extract.Command(ctx),
		scan.Command(ctx),
		config.Command(ctx),
		version.Command(ctx),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigLoad] == "true" {
			return nil
		}
		return initialize(cmd, ctx)
	}

	return rootCmd
}

// initialize binds the flags of the executing command, loads the
// configuration and sets up the process logger
func initialize(cmd *cobra.Command, ctx *conf.Context) error {
	if err := conf.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	settings, err := conf.Load(ctx.ConfigFile)
	if err != nil {
		return err
	}
	ctx.Settings = settings

	central, err := logger.NewCentralLogger(settings.LoggingConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	logger.Global().Module("main").Info("starting",
		logger.String("version", ctx.BuildInfo.GetVersion()),
		logger.String("run_id", ctx.RunID),
		logger.String("command", cmd.Name()))
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, ctx *conf.Context) {
	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
}
