// Package config provides configuration loading for automod.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// # Security considerations
//
// File permissions: every config file loaded by this package MUST have
// 0600 or 0400 permissions (owner-only). Webhook secrets and, eventually,
// access tokens live in this directory tree.
//
// Path validation: loaded paths must resolve (after symlink evaluation)
// to somewhere inside the configured config-dir root, preventing a
// crafted domain/username directory name from escaping it via "..".
//
// File size limit: configuration files larger than 1MB are rejected.

// LoadSettings loads <configDir>/global.yaml, overridden by AUTOMOD_*
// environment variables (e.g. AUTOMOD_LISTEN).
func LoadSettings(configDir string) (*Settings, error) {
	k := koanf.New(".")
	path := filepath.Join(configDir, "global.yaml")
	if err := loadYAMLFile(k, configDir, path); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("AUTOMOD_", ".", envKeyTransformer), nil); err != nil {
		return nil, fmt.Errorf("config: load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("config: unmarshal settings: %w", err)
	}
	return &s, nil
}

// LoadWebhook loads <configDir>/<domain>/webhook.yaml.
func LoadWebhook(configDir, domain string) (*Webhook, error) {
	k := koanf.New(".")
	path := filepath.Join(configDir, domain, "webhook.yaml")
	if err := loadYAMLFile(k, configDir, path); err != nil {
		return nil, err
	}

	var w Webhook
	if err := k.Unmarshal("", &w); err != nil {
		return nil, fmt.Errorf("config: unmarshal webhook config for %s: %w", domain, err)
	}
	if w.Domain == "" {
		w.Domain = domain
	}
	return &w, nil
}

// LoadConfig loads <configDir>/<domain>/<username>/config.yaml.
func LoadConfig(configDir, domain, username string) (*Config, error) {
	k := koanf.New(".")
	path := filepath.Join(configDir, domain, username, "config.yaml")
	if err := loadYAMLFile(k, configDir, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal rule config for %s@%s: %w", username, domain, err)
	}
	cfg.Domain = domain
	cfg.Username = username
	return &cfg, nil
}

// loadYAMLFile validates path is inside root, opens it once (avoiding a
// stat-then-open TOCTOU race), validates its permissions/size, and loads
// it into k as YAML.
func loadYAMLFile(k *koanf.Koanf, root, path string) error {
	if err := validateConfigPath(root, path); err != nil {
		return fmt.Errorf("config: path validation failed for %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// envKeyTransformer maps AUTOMOD_LISTEN -> listen, AUTOMOD_RSPAMC_COMMAND
// -> rspamc_command: env.Provider passes the full variable name, so strip
// the AUTOMOD_ prefix, lowercase, and use as-is (Settings has no nested
// sections).
func envKeyTransformer(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "AUTOMOD_"))
}

// validateConfigPath checks that path resolves inside root, preventing a
// domain or username directory component containing ".." (or a symlink)
// from escaping the configured config tree.
func validateConfigPath(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve config root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	resolvedPath := absPath
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		resolvedPath = resolved
	}
	resolvedRoot := absRoot
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		resolvedRoot = resolved
	}

	rel, err := filepath.Rel(resolvedRoot, resolvedPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes config root %s", root)
	}
	return nil
}

// validateConfigFileProperties checks file permissions and size using an
// already-opened file's FileInfo.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// ConfiguredDomains enumerates every domain directory under configDir that
// carries a webhook.yaml.
func ConfiguredDomains(configDir string) ([]string, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: list %s: %w", configDir, err)
	}

	var domains []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(configDir, e.Name(), "webhook.yaml")); err == nil {
			domains = append(domains, e.Name())
		}
	}
	return domains, nil
}

// ConfiguredUsernames enumerates every username directory under
// <configDir>/<domain> that carries a config.yaml.
func ConfiguredUsernames(configDir, domain string) ([]string, error) {
	domainDir := filepath.Join(configDir, domain)
	entries, err := os.ReadDir(domainDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: list %s: %w", domainDir, err)
	}

	var usernames []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(domainDir, e.Name(), "config.yaml")); err == nil {
			usernames = append(usernames, e.Name())
		}
	}
	return usernames, nil
}
