// Package rspamd drives rspamd's command-line client as an external
// process: scanning posts for a symbolic spam verdict, and training the
// filter from closed reports.
package rspamd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/fyrsmithlabs/automod/internal/config"
)

// symbolsOutput is rspamc's "symbols" command JSON response: we only need
// the overall action ("no action", "reject", "soft reject", ...).
type symbolsOutput struct {
	Action string `json:"action"`
}

// Scan runs the rspamd "symbols" command over mimeBytes and returns the
// action string rspamd assigned, or nil if no rspamc command is
// configured (rspamd integration is disabled).
func Scan(ctx context.Context, settings *config.Settings, mimeBytes []byte) (*string, error) {
	if len(settings.RspamcCommand) == 0 {
		return nil, nil
	}
	out, err := runRspamc(ctx, settings.RspamcCommand, "symbols", mimeBytes)
	if err != nil {
		return nil, fmt.Errorf("rspamd: scan: %w", err)
	}
	var res symbolsOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, fmt.Errorf("rspamd: decode symbols output: %w", err)
	}
	return &res.Action, nil
}

// LearnSpam trains rspamd's filter that mimeBytes is spam. A no-op if no
// rspamc command is configured.
func LearnSpam(ctx context.Context, settings *config.Settings, mimeBytes []byte) error {
	if len(settings.RspamcCommand) == 0 {
		return nil
	}
	if _, err := runRspamc(ctx, settings.RspamcCommand, "learn_spam", mimeBytes); err != nil {
		return fmt.Errorf("rspamd: learn_spam: %w", err)
	}
	return nil
}

// LearnHam trains rspamd's filter that mimeBytes is ham (not spam). A
// no-op if no rspamc command is configured.
func LearnHam(ctx context.Context, settings *config.Settings, mimeBytes []byte) error {
	if len(settings.RspamcCommand) == 0 {
		return nil
	}
	if _, err := runRspamc(ctx, settings.RspamcCommand, "learn_ham", mimeBytes); err != nil {
		return fmt.Errorf("rspamd: learn_ham: %w", err)
	}
	return nil
}

// runRspamc invokes argv (rspamcCommand) with "--json" and the rspamc
// subcommand name appended, feeding mimeBytes on stdin. rspamc prints a
// human-readable banner as its first line of output even in --json mode;
// that line is discarded before JSON-decoding the rest.
func runRspamc(ctx context.Context, rspamcCommand []string, command string, mimeBytes []byte) ([]byte, error) {
	if len(rspamcCommand) == 0 {
		return nil, fmt.Errorf("rspamd: no rspamc command configured")
	}

	argv := append(append([]string{}, rspamcCommand[1:]...), "--json", command)
	cmd := exec.CommandContext(ctx, rspamcCommand[0], argv...)
	cmd.Stdin = bytes.NewReader(mimeBytes)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w (stderr: %s)", rspamcCommand[0], err, stderr.String())
	}

	body := stdout.Bytes()
	if idx := bytes.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	}
	return body, nil
}
