// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hotel-site",
	Short: "hotel-site serves a hotel group's website and its content admin panel",
	Long: `hotel-site serves the public website of a multi-location hotel group
and an admin panel to edit page content, branding, the booking widget and users.`,
	Args: cobra.OnlyValidArgs,
}

var configPath string // directory holding main.toml

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Directory of main.toml (default ./etc/)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
