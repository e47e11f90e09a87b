package engine

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReporter_AddReport_LogsAtAuditLevel(t *testing.T) {
	testLogger := logging.NewTestLogger()
	r := &LogReporter{Logger: testLogger.Logger}

	reportID, err := r.AddReport(context.Background(), AddReportRequest{
		AccountID: "acct-1",
		StatusIDs: []string{"status-1"},
		Category:  "spam",
	})
	require.NoError(t, err)
	assert.Equal(t, "dryrun-acct-1", reportID)

	testLogger.AssertAuditLogged(t, "would file report (dry run)")
}

func TestLogRestricter_PerformAccountAction_LogsAtAuditLevel(t *testing.T) {
	testLogger := logging.NewTestLogger()
	r := &LogRestricter{Logger: testLogger.Logger}

	err := r.PerformAccountAction(context.Background(), PerformAccountActionRequest{
		AccountID: "acct-1",
		Action:    ActionSuspend,
		ReportID:  "report-1",
	})
	require.NoError(t, err)

	testLogger.AssertAuditLogged(t, "would perform account action (dry run)")
}
