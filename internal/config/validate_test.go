package config

import (
	"testing"

	"github.com/fyrsmithlabs/automod/internal/pattern"
	"github.com/stretchr/testify/assert"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"no listen addresses", Settings{}, true},
		{"valid", Settings{Listen: []string{":8080"}}, false},
		{"empty rspamc command", Settings{Listen: []string{":8080"}, RspamcCommand: []string{}}, true},
		{"nil rspamc command allowed", Settings{Listen: []string{":8080"}, RspamcCommand: nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWebhookValidate(t *testing.T) {
	tests := []struct {
		name    string
		w       Webhook
		wantErr bool
	}{
		{"missing domain", Webhook{Secret: Secret("a-long-enough-secret")}, true},
		{"missing secret", Webhook{Domain: "mastodon.social"}, true},
		{"secret too short", Webhook{Domain: "mastodon.social", Secret: Secret("short")}, true},
		{"valid", Webhook{Domain: "mastodon.social", Secret: Secret("a-long-enough-secret")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	word := "spam"
	rule := func(mutate func(*Rule)) Rule {
		r := Rule{
			Name:     "rule",
			Report:   &ReportSpec{Spam: true},
			Patterns: []pattern.RulePattern{{Account: &pattern.AccountPattern{Text: &pattern.TextPattern{Word: &word}}}},
		}
		if mutate != nil {
			mutate(&r)
		}
		return r
	}

	t.Run("valid", func(t *testing.T) {
		cfg := Config{Domain: "mastodon.social", Username: "alice", Rules: []Rule{rule(nil)}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		cfg := Config{Rules: []Rule{rule(func(r *Rule) { r.Name = "" })}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("no patterns", func(t *testing.T) {
		cfg := Config{Rules: []Rule{rule(func(r *Rule) { r.Patterns = nil })}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("no action", func(t *testing.T) {
		cfg := Config{Rules: []Rule{rule(func(r *Rule) { r.Report = nil })}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("restrict only is valid", func(t *testing.T) {
		restriction := RestrictionSilence
		cfg := Config{Rules: []Rule{rule(func(r *Rule) {
			r.Report = nil
			r.Restrict = &restriction
		})}}
		assert.NoError(t, cfg.Validate())
	})
}
