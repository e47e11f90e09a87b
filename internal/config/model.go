package config

import "github.com/fyrsmithlabs/automod/internal/pattern"

// Settings is the process-wide, once-per-deployment configuration:
// <config-dir>/global.yaml.
type Settings struct {
	// Listen is the set of addresses the webhook HTTP server binds.
	Listen []string `koanf:"listen" yaml:"listen"`
	// RspamcCommand is the argv used to invoke the spam filter CLI
	// (e.g. ["rspamc", "-h", "127.0.0.1:11334"]). Nil disables rspamd
	// integration entirely: Rspamd rule leaves never match, and report
	// ingest never trains the filter.
	RspamcCommand []string `koanf:"rspamc_command" yaml:"rspamc_command,omitempty"`
}

// Webhook is a domain's webhook configuration: <config-dir>/<domain>/webhook.yaml.
type Webhook struct {
	Domain string `koanf:"domain" yaml:"domain"`
	Secret Secret `koanf:"secret" yaml:"secret"`
}

// Restriction is the severity of account-level action a matched rule
// applies, ordered from least to most severe. Go's zero value (Sensitive)
// is intentionally the mildest restriction so an unset Restrict field read
// from a partial YAML document degrades safely.
type Restriction int

const (
	RestrictionSensitive Restriction = iota
	RestrictionDisable
	RestrictionSilence
	RestrictionSuspend
)

func (r Restriction) String() string {
	switch r {
	case RestrictionSensitive:
		return "sensitive"
	case RestrictionDisable:
		return "disable"
	case RestrictionSilence:
		return "silence"
	case RestrictionSuspend:
		return "suspend"
	default:
		return "unknown"
	}
}

var restrictionNames = map[string]Restriction{
	"sensitive": RestrictionSensitive,
	"disable":   RestrictionDisable,
	"silence":   RestrictionSilence,
	"suspend":   RestrictionSuspend,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Restriction) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, ok := restrictionNames[raw]
	if !ok {
		return &InvalidRestrictionError{Value: raw}
	}
	*r = v
	return nil
}

// InvalidRestrictionError reports an unrecognized restriction name.
type InvalidRestrictionError struct {
	Value string
}

func (e *InvalidRestrictionError) Error() string {
	return "config: invalid restriction level: " + e.Value
}

// ReportSpec is the report a matched rule files: which of the instance's
// own enforced rules to cite, whether to mark the report as spam, and
// whether to forward it to the reported account's home instance.
type ReportSpec struct {
	RuleIDs []string `koanf:"rule_ids" yaml:"rule_ids,omitempty"`
	Spam    bool     `koanf:"spam" yaml:"spam,omitempty"`
	Forward bool     `koanf:"forward" yaml:"forward,omitempty"`
}

// Rule is one automod rule: a named set of patterns and the action to take
// when any of them matches.
type Rule struct {
	Name     string                `koanf:"name" yaml:"name"`
	Report   *ReportSpec           `koanf:"report" yaml:"report,omitempty"`
	Restrict *Restriction          `koanf:"restrict" yaml:"restrict,omitempty"`
	Patterns []pattern.RulePattern `koanf:"patterns" yaml:"patterns"`
}

// Config is one local user's rule set: <config-dir>/<domain>/<username>/config.yaml.
type Config struct {
	Domain   string `koanf:"domain" yaml:"-"`
	Username string `koanf:"username" yaml:"-"`
	Rules    []Rule `koanf:"rules" yaml:"rules"`
}
