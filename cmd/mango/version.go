package main

import (
	"github.com/spf13/cobra"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/version"
)

func createVersionCmd(configManager config.Manager) *cobra.Command {
	var full bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print mango version information",
		Run: func(cmd *cobra.Command, args []string) {
			if full {
				version.PrintFull()
			} else {
				version.Print()
			}
		},
	}

	versionCmd.PersistentFlags().BoolVar(&full, "full", false, "Print full version information")

	return versionCmd
}
