package cmd

import (
	"fmt"
	"os"

	"digitalsight/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "digitalsight",
	Short: "DigitalSight is a music distribution back office.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
