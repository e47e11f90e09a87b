package engine

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/mimeify"
	"github.com/fyrsmithlabs/automod/internal/rspamd"
)

// HandleReport examines one closed report from a webhook event and, if it
// was closed as spam, trains the spam filter on its attached statuses.
//
// This assumes the target account's current moderation state is due to
// this report. TODO: if a silenced spam account has a non-spam post
// reported and that report is closed as not spam, the post is still
// trained as spam. This can misclassify unrelated historical posts.
func HandleReport(ctx context.Context, settings *config.Settings, domain string, report *mastodon.Report) error {
	if !report.ActionTaken {
		return nil
	}
	if !report.Category.IsSpam() {
		return nil
	}
	if len(settings.RspamcCommand) == 0 {
		return nil
	}

	learn := rspamd.LearnHam
	if report.TargetAccount != nil && (report.TargetAccount.Silenced || report.TargetAccount.Suspended || report.TargetAccount.Disabled) {
		learn = rspamd.LearnSpam
	}

	for i := range report.Statuses {
		mimeBytes := mimeify.StatusToMIME(domain, &report.Statuses[i])
		if err := learn(ctx, settings, mimeBytes); err != nil {
			return fmt.Errorf("engine: train spam filter: %w", err)
		}
	}

	return nil
}
