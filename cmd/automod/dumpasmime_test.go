package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDumpAsMime_PrintsMIMEMessage(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusPath, []byte(`{
		"id": "1",
		"content": "<p>hello</p>",
		"account": {"id": "a1", "username": "alice", "acct": "alice"}
	}`), 0600))

	dumpAsMimeDomain = "example.social"
	dumpAsMimeStatusFile = statusPath

	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	require.NoError(t, runDumpAsMime(dumpAsMimeCmd, nil))
	w.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "alice@example.social")
	assert.Contains(t, buf.String(), "hello")
}
