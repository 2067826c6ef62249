package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fincham/mango/server/config"
)

func main() {
	rootCmd := createRootCmd()

	configManager := config.NewManager(rootCmd)

	rootCmd.AddCommand(createServeCmd(configManager))
	rootCmd.AddCommand(createVersionCmd(configManager))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mango",
		Short: "osquery inventory endpoint",
		Long: `
mango is an inventory endpoint for osquery nodes. Nodes enroll with a
shared secret, fetch their query schedule, and report results back.
`,
	}

	return rootCmd
}
