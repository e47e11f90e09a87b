package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/spf13/cobra"
)

var setupDomain string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate a webhook signing secret for a domain",
	Long: `setup writes <config-dir>/<domain>/webhook.yaml with a freshly
generated signing secret, which must then be pasted into that Mastodon
instance's admin webhook configuration so both sides sign with the same
secret.

This is a reduced stand-in for the original CLI's interactive setup: it
does not perform OAuth app registration or bot-account credential exchange
(out of scope — see spec.md's non-goals). Per-user rule configs
(<config-dir>/<domain>/<username>/config.yaml) must still be written by
hand.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupDomain, "domain", "", "domain name of the instance to configure (required)")
	setupCmd.MarkFlagRequired("domain")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if existing, err := config.LoadWebhook(configDir, setupDomain); err == nil && existing.Secret.IsSet() {
		fmt.Printf("Webhook already configured for %s; leaving it in place.\n", setupDomain)
		return nil
	}

	secret, err := randomSecret()
	if err != nil {
		return fmt.Errorf("generate webhook secret: %w", err)
	}

	dir := filepath.Join(configDir, setupDomain)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "webhook.yaml")
	content := fmt.Sprintf("domain: %s\nsecret: %s\n", setupDomain, secret)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("Webhook secret saved for %s: %s\n", setupDomain, path)
	fmt.Printf("Paste this secret into %s's admin webhook configuration:\n\n  %s\n\n", setupDomain, secret)
	return nil
}

// randomSecret returns a hex-encoded 256-bit random value suitable for use
// as an HMAC webhook secret.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
