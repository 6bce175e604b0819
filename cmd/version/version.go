package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/eloc-raven/internal/conf"
)

// Command creates a new cobra.Command to print the build version.
func Command(ctx *conf.Context) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version of eloc-raven",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), ctx.BuildInfo.String())
		},
	}
}
