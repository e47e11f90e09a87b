// Command automod runs the moderation engine: it receives signed Mastodon
// webhook deliveries, evaluates posts against per-user rule configs, files
// reports and restricts accounts on matches, and trains an external spam
// filter from closed reports.
package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	configDir string
	version   = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "automod",
	Short:   "Automated moderation engine for a Mastodon-compatible instance",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", defaultConfigDir(), "root config directory")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthcheckCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(dumpAsMimeCmd)
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/automod"
	}
	return filepath.Join(home, ".config", "automod")
}
