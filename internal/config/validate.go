package config

import "fmt"

// Validate checks that s is usable: at least one listen address, and a
// well-formed (if present) rspamc command.
func (s *Settings) Validate() error {
	if len(s.Listen) == 0 {
		return fmt.Errorf("config: settings.listen must name at least one address")
	}
	if s.RspamcCommand != nil && len(s.RspamcCommand) == 0 {
		return fmt.Errorf("config: settings.rspamc_command, if set, must not be empty")
	}
	return nil
}

// minWebhookSecretLength is the shortest secret internal/webhook will
// accept as an HMAC-SHA256 signing key. Mastodon lets an admin set any
// non-empty string; a short one makes the X-Hub-Signature check brute-
// forceable, so automod rejects it at load time rather than at the first
// forged delivery.
const minWebhookSecretLength = 16

// Validate checks that w is usable.
func (w *Webhook) Validate() error {
	if w.Domain == "" {
		return fmt.Errorf("config: webhook.domain must not be empty")
	}
	if !w.Secret.IsSet() {
		return fmt.Errorf("config: webhook.secret must be set for domain %s", w.Domain)
	}
	if len(w.Secret.Value()) < minWebhookSecretLength {
		return fmt.Errorf("config: webhook.secret for domain %s must be at least %d characters", w.Domain, minWebhookSecretLength)
	}
	return nil
}

// Validate checks that cfg's rules are well-formed: every rule has a name
// and at least one pattern, and at least one of report/restrict is set
// (a rule that matches but takes no action is very likely a mistake).
func (cfg *Config) Validate() error {
	for i, rule := range cfg.Rules {
		if rule.Name == "" {
			return fmt.Errorf("config: rule %d for %s@%s has no name", i, cfg.Username, cfg.Domain)
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("config: rule %q has no patterns", rule.Name)
		}
		if rule.Report == nil && rule.Restrict == nil {
			return fmt.Errorf("config: rule %q takes no action (neither report nor restrict is set)", rule.Name)
		}
	}
	return nil
}
