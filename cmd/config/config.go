package config

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/eloc-raven/internal/conf"
)

// Command creates a new cobra.Command printing the configuration.
func Command(ctx *conf.Context) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Print the default configuration, or the effective one with --show",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if show {
				data, err = effectiveConfig(ctx)
			} else {
				data, err = conf.DefaultConfig()
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the effective configuration after file and environment overrides")

	return cmd
}

func effectiveConfig(ctx *conf.Context) ([]byte, error) {
	settings, err := conf.Load(ctx.ConfigFile)
	if err != nil {
		return nil, err
	}
	ctx.Settings = settings
	return settings.Dump()
}
