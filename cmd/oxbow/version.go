package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oxbow/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		colored, err := useColor(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), version.Info(colored))
		return nil
	},
}
