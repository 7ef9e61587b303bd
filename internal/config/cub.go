// Package config loads cub's per-repository configuration from
// .cub/config.yaml, with environment variable overrides for the settings
// that agents commonly need to vary per session.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-repository cub directory.
	DirName = ".cub"

	// FileName is the config file inside DirName.
	FileName = "config.yaml"

	// DefaultSyncBranch is the dedicated counter branch.
	DefaultSyncBranch = "cub-sync"

	// DefaultRemote is the shared remote the counter branch syncs with.
	DefaultRemote = "origin"
)

// Environment overrides. Highest precedence, above config.yaml.
const (
	EnvSyncBranch   = "CUB_SYNC_BRANCH"
	EnvRemote       = "CUB_REMOTE"
	EnvAllowOffline = "CUB_ALLOW_OFFLINE"
)

// Config is the per-repository configuration.
type Config struct {
	// Project is the identifier prefix (e.g. "cub" in "cub-054").
	Project string `yaml:"project"`

	// SyncBranch is the counter branch name.
	SyncBranch string `yaml:"sync-branch"`

	// Remote is the shared remote name.
	Remote string `yaml:"remote"`

	// AllowOffline permits allocation from the local branch tip when the
	// remote is unreachable. Leave off unless this checkout is the only
	// allocator.
	AllowOffline bool `yaml:"allow-offline"`

	// FetchTimeout bounds each remote fetch/push.
	FetchTimeout time.Duration `yaml:"fetch-timeout"`

	// MaxAttempts bounds the optimistic allocation retry loop.
	MaxAttempts int `yaml:"max-attempts"`

	// TaskDirs are additional directories (relative to the repo root)
	// scanned by push-time verification for embedded identifiers. The
	// .cub directory is always scanned.
	TaskDirs []string `yaml:"task-dirs"`
}

// Default returns the configuration for a project with everything at its
// default value.
func Default(project string) *Config {
	return &Config{
		Project:      project,
		SyncBranch:   DefaultSyncBranch,
		Remote:       DefaultRemote,
		FetchTimeout: 30 * time.Second,
		MaxAttempts:  5,
	}
}

// Load reads the repository's config file, fills in defaults, and applies
// environment overrides (env > yaml > default). A missing config file is
// not an error: the defaults apply, with the project named after the
// repository directory.
func Load(root string) (*Config, error) {
	cfg := Default(filepath.Base(root))

	path := filepath.Join(root, DirName, FileName)
	data, err := os.ReadFile(path) // #nosec G304 -- path is under the repo's .cub directory
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if cfg.SyncBranch == "" {
		cfg.SyncBranch = DefaultSyncBranch
	}
	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Project == "" {
		cfg.Project = filepath.Base(root)
	}

	if env := os.Getenv(EnvSyncBranch); env != "" {
		cfg.SyncBranch = env
	}
	if env := os.Getenv(EnvRemote); env != "" {
		cfg.Remote = env
	}
	if env := os.Getenv(EnvAllowOffline); env != "" {
		cfg.AllowOffline = env == "1" || strings.EqualFold(env, "true")
	}

	if err := ValidateBranchName(cfg.SyncBranch); err != nil {
		return nil, fmt.Errorf("invalid sync branch: %w", err)
	}
	return cfg, nil
}

// Save writes the config file under root, creating the .cub directory if
// needed.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Dir returns the repository's .cub directory.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// branchNamePattern validates git branch names
// Based on git-check-ref-format rules
var branchNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*[a-zA-Z0-9]$`)

// ValidateBranchName checks a branch name against git ref naming rules.
func ValidateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("branch name must not be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("branch name too long (max 255 characters)")
	}
	if !branchNamePattern.MatchString(name) {
		return fmt.Errorf("invalid branch name %q: must start and end with alphanumeric, can contain .-_/ in middle", name)
	}
	if name == "HEAD" {
		return fmt.Errorf("invalid branch name: %s is reserved", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid branch name %q: cannot contain '..'", name)
	}
	return nil
}
