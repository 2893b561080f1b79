package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Agents.MaxRetries != 3 {
		t.Errorf("expected max retries 3, got %d", cfg.Agents.MaxRetries)
	}

	if cfg.Agents.TickInterval != 2*time.Second {
		t.Errorf("expected tick interval 2s, got %v", cfg.Agents.TickInterval)
	}

	if cfg.Agents.AutoMode {
		t.Error("expected auto mode to be off")
	}

	if cfg.Agents.Remote != "origin" || cfg.Agents.BaseBranch != "main" {
		t.Errorf("expected origin/main, got %s/%s", cfg.Agents.Remote, cfg.Agents.BaseBranch)
	}

	if cfg.Engine.Command != "claude" {
		t.Errorf("expected engine command 'claude', got %q", cfg.Engine.Command)
	}

	if cfg.Engine.ChatBackend != ChatBackendCLI {
		t.Errorf("expected chat backend cli, got %q", cfg.Engine.ChatBackend)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
linear:
  api_key: lin-key
trello:
  api_key: trello-key
  token: trello-token
jira:
  domain: acme
  email: dev@acme.io
  api_token: jira-token
github:
  owner: octocat
agents:
  repo_root: /src/app/main
  max_retries: 5
  tick_interval: 500ms
  auto_mode: true
engine:
  command: /usr/local/bin/claude
  chat_backend: api
  model: claude-sonnet-4-5
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Linear.APIKey != "lin-key" {
		t.Errorf("expected linear api_key 'lin-key', got %q", cfg.Linear.APIKey)
	}

	if cfg.Jira.Domain != "acme" || cfg.Jira.Email != "dev@acme.io" {
		t.Errorf("unexpected jira config %+v", cfg.Jira)
	}

	if cfg.Agents.RepoRoot != "/src/app/main" {
		t.Errorf("expected repo root '/src/app/main', got %q", cfg.Agents.RepoRoot)
	}

	if cfg.Agents.MaxRetries != 5 {
		t.Errorf("expected max retries 5, got %d", cfg.Agents.MaxRetries)
	}

	if cfg.Agents.TickInterval != 500*time.Millisecond {
		t.Errorf("expected tick interval 500ms, got %v", cfg.Agents.TickInterval)
	}

	if !cfg.Agents.AutoMode {
		t.Error("expected auto mode on")
	}

	// Unset keys keep their defaults
	if cfg.Agents.BaseBranch != "main" {
		t.Errorf("expected default base branch, got %q", cfg.Agents.BaseBranch)
	}

	if cfg.Engine.UnattendedFlag != "--dangerously-skip-permissions" {
		t.Errorf("expected default unattended flag, got %q", cfg.Engine.UnattendedFlag)
	}

	want := []string{"Linear", "Trello", "Jira", "GitHub"}
	if got := cfg.EnabledProviders(); !reflect.DeepEqual(got, want) {
		t.Errorf("EnabledProviders() = %v, want %v", got, want)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromPath_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_LINEAR_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("linear:\n  api_key: ${TEST_LINEAR_KEY}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Linear.APIKey != "from-env" {
		t.Errorf("expected 'from-env', got %q", cfg.Linear.APIKey)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "expanded-value")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandPath("~/code/main"); got != filepath.Join(home, "code", "main") {
		t.Errorf("expandPath(~/code/main) = %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q", got)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/work"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LINEAR_API_KEY", "env-linear")
	t.Setenv("WORK_DATA_DIR", "/var/lib/work")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Linear.APIKey != "env-linear" {
		t.Errorf("expected linear key from env, got %q", cfg.Linear.APIKey)
	}
	if cfg.DataDir != "/var/lib/work" {
		t.Errorf("expected data dir from env, got %q", cfg.DataDir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.GitHub.Owner = "octocat"
	cfg.Agents.MaxRetries = 7
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.GitHub.Owner != "octocat" || loaded.Agents.MaxRetries != 7 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Agents.TickInterval != 2*time.Second {
		t.Errorf("expected tick interval 2s, got %v", loaded.Agents.TickInterval)
	}
}

func TestRepoRoot(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Agents.RepoRoot = dir
	got, err := cfg.RepoRoot()
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	if got != dir {
		t.Errorf("RepoRoot() = %q, want %q", got, dir)
	}

	cfg.Agents.RepoRoot = filepath.Join(dir, "missing")
	if _, err := cfg.RepoRoot(); !errors.Is(err, ErrNoRepoRoot) {
		t.Errorf("expected ErrNoRepoRoot, got %v", err)
	}
}

func TestRequireProviders(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireProviders(); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders, got %v", err)
	}

	// Trello needs both key and token
	cfg.Trello.APIKey = "key"
	if err := cfg.RequireProviders(); !errors.Is(err, ErrNoProviders) {
		t.Errorf("partial trello config should not count, got %v", err)
	}

	cfg.GitHub.Owner = "octocat"
	if err := cfg.RequireProviders(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative retries", func(c *Config) { c.Agents.MaxRetries = -1 }, true},
		{"tick too fast", func(c *Config) { c.Agents.TickInterval = time.Millisecond }, true},
		{"empty command", func(c *Config) { c.Engine.Command = "" }, true},
		{"bedrock backend", func(c *Config) { c.Engine.ChatBackend = ChatBackendBedrock }, false},
		{"unknown backend", func(c *Config) { c.Engine.ChatBackend = "carrier-pigeon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
