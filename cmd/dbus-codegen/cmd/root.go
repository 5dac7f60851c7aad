package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags.
	Version = "0.1.0-dev"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "dbus-codegen",
	Short:   "Generate D-Bus object and proxy stubs from introspection XML",
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
