// Package config handles configuration loading and management for work.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrNoRepoRoot is returned when the repository root cannot be resolved.
	ErrNoRepoRoot = errors.New("no repository root configured")
	// ErrNoProviders is returned when no tracker has credentials.
	ErrNoProviders = errors.New("no tracker configured (set linear, trello, jira or github in config.yaml)")
)

// Chat backends for conversational messages.
const (
	ChatBackendCLI     = "cli"
	ChatBackendAPI     = "api"
	ChatBackendBedrock = "bedrock"
)

// Config holds all configuration for work.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Linear    LinearConfig    `mapstructure:"linear"`
	Trello    TrelloConfig    `mapstructure:"trello"`
	Jira      JiraConfig      `mapstructure:"jira"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Engine    EngineConfig    `mapstructure:"engine"`
	// DataDir holds the registry, activity log, engine logs and history
	// database. Empty means $XDG_DATA_HOME/work.
	DataDir string `mapstructure:"data_dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LinearConfig holds Linear credentials.
type LinearConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Enabled reports whether Linear is configured.
func (c LinearConfig) Enabled() bool { return c.APIKey != "" }

// TrelloConfig holds Trello credentials.
type TrelloConfig struct {
	APIKey string `mapstructure:"api_key"`
	Token  string `mapstructure:"token"`
}

// Enabled reports whether Trello is configured.
func (c TrelloConfig) Enabled() bool { return c.APIKey != "" && c.Token != "" }

// JiraConfig holds Jira Cloud credentials.
type JiraConfig struct {
	// Domain is the Atlassian site name, as in <domain>.atlassian.net.
	Domain   string `mapstructure:"domain"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
}

// Enabled reports whether Jira is configured.
func (c JiraConfig) Enabled() bool {
	return c.Domain != "" && c.Email != "" && c.APIToken != ""
}

// GitHubConfig holds the GitHub issue search settings. Authentication is
// delegated to the gh CLI.
type GitHubConfig struct {
	Owner string `mapstructure:"owner"`
}

// Enabled reports whether GitHub is configured.
func (c GitHubConfig) Enabled() bool { return c.Owner != "" }

// AgentsConfig holds agent pool settings.
type AgentsConfig struct {
	RepoRoot     string        `mapstructure:"repo_root"`
	MaxRetries   int           `mapstructure:"max_retries"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	AutoMode     bool          `mapstructure:"auto_mode"`
	BaseBranch   string        `mapstructure:"base_branch"`
	Remote       string        `mapstructure:"remote"`
}

// EngineConfig holds settings for the external coding engine.
type EngineConfig struct {
	Command        string `mapstructure:"command"`
	UnattendedFlag string `mapstructure:"unattended_flag"`
	ChatBackend    string `mapstructure:"chat_backend"`
	Model          string `mapstructure:"model"`
	AWSRegion      string `mapstructure:"aws_region"`
	AWSProfile     string `mapstructure:"aws_profile"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, LINEAR_API_KEY, WORK_REPO_ROOT, WORK_DATA_DIR)
// 2. Project config (.work.yaml in current directory or parent)
// 3. User config (~/.config/work/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("linear.api_key", "LINEAR_API_KEY")
	v.BindEnv("agents.repo_root", "WORK_REPO_ROOT")
	v.BindEnv("data_dir", "WORK_DATA_DIR")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in secrets and paths
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Linear.APIKey = expandEnv(cfg.Linear.APIKey)
	cfg.Trello.APIKey = expandEnv(cfg.Trello.APIKey)
	cfg.Trello.Token = expandEnv(cfg.Trello.Token)
	cfg.Jira.APIToken = expandEnv(cfg.Jira.APIToken)
	cfg.Agents.RepoRoot = expandPath(cfg.Agents.RepoRoot)
	cfg.DataDir = expandPath(cfg.DataDir)

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(GetUserConfigPath())
	for key, value := range cfg.Settings() {
		v.Set(key, value)
	}

	return v.WriteConfig()
}

// Settings flattens the configuration into dotted viper keys.
func (c *Config) Settings() map[string]interface{} {
	return map[string]interface{}{
		"anthropic.api_key":      c.Anthropic.APIKey,
		"linear.api_key":         c.Linear.APIKey,
		"trello.api_key":         c.Trello.APIKey,
		"trello.token":           c.Trello.Token,
		"jira.domain":            c.Jira.Domain,
		"jira.email":             c.Jira.Email,
		"jira.api_token":         c.Jira.APIToken,
		"github.owner":           c.GitHub.Owner,
		"agents.repo_root":       c.Agents.RepoRoot,
		"agents.max_retries":     c.Agents.MaxRetries,
		"agents.tick_interval":   c.Agents.TickInterval.String(),
		"agents.auto_mode":       c.Agents.AutoMode,
		"agents.base_branch":     c.Agents.BaseBranch,
		"agents.remote":          c.Agents.Remote,
		"engine.command":         c.Engine.Command,
		"engine.unattended_flag": c.Engine.UnattendedFlag,
		"engine.chat_backend":    c.Engine.ChatBackend,
		"engine.model":           c.Engine.Model,
		"engine.aws_region":      c.Engine.AWSRegion,
		"engine.aws_profile":     c.Engine.AWSProfile,
		"data_dir":               c.DataDir,
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("linear.api_key", "")
	v.SetDefault("trello.api_key", "")
	v.SetDefault("trello.token", "")
	v.SetDefault("jira.domain", "")
	v.SetDefault("jira.email", "")
	v.SetDefault("jira.api_token", "")
	v.SetDefault("github.owner", "")

	v.SetDefault("agents.repo_root", "")
	v.SetDefault("agents.max_retries", 3)
	v.SetDefault("agents.tick_interval", "2s")
	v.SetDefault("agents.auto_mode", false)
	v.SetDefault("agents.base_branch", "main")
	v.SetDefault("agents.remote", "origin")

	v.SetDefault("engine.command", "claude")
	v.SetDefault("engine.unattended_flag", "--dangerously-skip-permissions")
	v.SetDefault("engine.chat_backend", ChatBackendCLI)
	v.SetDefault("engine.model", "")
	v.SetDefault("engine.aws_region", "")
	v.SetDefault("engine.aws_profile", "")

	v.SetDefault("data_dir", "")
}

// getUserConfigDir returns the XDG config directory for work.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "work")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "work")
	}
	return filepath.Join(home, ".config", "work")
}

// findProjectConfig searches for .work.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".work.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// expandPath expands environment references and a leading ~.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Agents: AgentsConfig{
			MaxRetries:   3,
			TickInterval: 2 * time.Second,
			BaseBranch:   "main",
			Remote:       "origin",
		},
		Engine: EngineConfig{
			Command:        "claude",
			UnattendedFlag: "--dangerously-skip-permissions",
			ChatBackend:    ChatBackendCLI,
		},
	}
}

// RepoRoot returns the configured repository root, or the current
// directory when none is set.
func (c *Config) RepoRoot() (string, error) {
	root := c.Agents.RepoRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoRepoRoot, err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoRepoRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNoRepoRoot, abs)
	}
	return abs, nil
}

// EnabledProviders lists the trackers with credentials, in fixed order.
func (c *Config) EnabledProviders() []string {
	var names []string
	if c.Linear.Enabled() {
		names = append(names, "Linear")
	}
	if c.Trello.Enabled() {
		names = append(names, "Trello")
	}
	if c.Jira.Enabled() {
		names = append(names, "Jira")
	}
	if c.GitHub.Enabled() {
		names = append(names, "GitHub")
	}
	return names
}

// RequireProviders returns ErrNoProviders when no tracker is configured.
func (c *Config) RequireProviders() error {
	if len(c.EnabledProviders()) == 0 {
		return ErrNoProviders
	}
	return nil
}

// Validate checks values that would make the orchestrator misbehave.
func (c *Config) Validate() error {
	if c.Agents.MaxRetries < 0 {
		return fmt.Errorf("agents.max_retries must not be negative, got %d", c.Agents.MaxRetries)
	}
	if c.Agents.TickInterval < 100*time.Millisecond {
		return fmt.Errorf("agents.tick_interval must be at least 100ms, got %s", c.Agents.TickInterval)
	}
	if c.Engine.Command == "" {
		return errors.New("engine.command must not be empty")
	}
	switch c.Engine.ChatBackend {
	case ChatBackendCLI, ChatBackendAPI, ChatBackendBedrock:
	default:
		return fmt.Errorf("engine.chat_backend must be cli, api or bedrock, got %q", c.Engine.ChatBackend)
	}
	return nil
}
