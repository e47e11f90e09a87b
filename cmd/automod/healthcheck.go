package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var healthcheckServerURL string

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the running server's /healthcheck endpoint",
	Long: `healthcheck calls a running automod server's own /healthcheck endpoint
and exits non-zero on anything but 204, matching cmd/ctxd's health command.
It is meant to be called from a container's HEALTHCHECK instruction rather
than by an operator directly.`,
	RunE: runHealthcheck,
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthcheckServerURL, "server", "http://localhost:8080", "automod server base URL")
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(healthcheckServerURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("healthcheck failed: server returned %s", resp.Status)
	}
	return nil
}
