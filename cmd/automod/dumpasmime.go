package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/mimeify"
	"github.com/spf13/cobra"
)

var (
	dumpAsMimeDomain     string
	dumpAsMimeStatusFile string
)

var dumpAsMimeCmd = &cobra.Command{
	Use:   "dump-as-mime",
	Short: "Print the MIME rendering of a status, as rspamd would see it",
	Long: `dump-as-mime reads a JSON-encoded status from --status-file and prints
the MIME message automod would hand to rspamc for scanning or training. It
lets an operator inspect exactly what bytes a post turns into before
trusting the spam filter's verdict on it, matching the original CLI's
debug helper of the same name.`,
	RunE: runDumpAsMime,
}

func init() {
	dumpAsMimeCmd.Flags().StringVar(&dumpAsMimeDomain, "domain", "", "domain the status is from (required)")
	dumpAsMimeCmd.Flags().StringVar(&dumpAsMimeStatusFile, "status-file", "", "path to a JSON-encoded status, or \"-\" for stdin (required)")
	dumpAsMimeCmd.MarkFlagRequired("domain")
	dumpAsMimeCmd.MarkFlagRequired("status-file")
}

func runDumpAsMime(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error
	if dumpAsMimeStatusFile == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(dumpAsMimeStatusFile)
	}
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	var status mastodon.Status
	if err := json.Unmarshal(content, &status); err != nil {
		return fmt.Errorf("decode status JSON: %w", err)
	}

	os.Stdout.Write(mimeify.StatusToMIME(dumpAsMimeDomain, &status))
	return nil
}
