package main

import (
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/config"
	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		check   func(*config.Config) bool
		wantErr bool
	}{
		{
			name:  "string key",
			key:   "github.owner",
			value: "octocat",
			check: func(c *config.Config) bool { return c.GitHub.Owner == "octocat" },
		},
		{
			name:  "keys are case insensitive",
			key:   "Linear.API_Key",
			value: "lin_api_123",
			check: func(c *config.Config) bool { return c.Linear.APIKey == "lin_api_123" },
		},
		{
			name:  "integer",
			key:   "agents.max_retries",
			value: "5",
			check: func(c *config.Config) bool { return c.Agents.MaxRetries == 5 },
		},
		{
			name:  "duration",
			key:   "agents.tick_interval",
			value: "500ms",
			check: func(c *config.Config) bool { return c.Agents.TickInterval == 500*time.Millisecond },
		},
		{
			name:  "boolean",
			key:   "agents.auto_mode",
			value: "true",
			check: func(c *config.Config) bool { return c.Agents.AutoMode },
		},
		{
			name:  "chat backend is lowercased",
			key:   "engine.chat_backend",
			value: "API",
			check: func(c *config.Config) bool { return c.Engine.ChatBackend == config.ChatBackendAPI },
		},
		{name: "bad integer", key: "agents.max_retries", value: "many", wantErr: true},
		{name: "bad duration", key: "agents.tick_interval", value: "soon", wantErr: true},
		{name: "bad boolean", key: "agents.auto_mode", value: "maybe", wantErr: true},
		{name: "unknown key", key: "agents.color", value: "red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(cfg) {
				t.Errorf("setConfigValue(%q, %q) did not apply", tt.key, tt.value)
			}
		})
	}
}

func TestSetConfigValue_CoversEveryKey(t *testing.T) {
	for _, key := range configKeys() {
		cfg := config.Default()
		value := "x"
		switch key {
		case "agents.max_retries":
			value = "1"
		case "agents.tick_interval":
			value = "1s"
		case "agents.auto_mode":
			value = "false"
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			t.Errorf("setConfigValue(%q) error = %v", key, err)
		}
	}
}

func TestGetConfigValue_MasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Linear.APIKey = "lin_api_abcdefghijklmnop"
	cfg.Agents.MaxRetries = 4

	got, err := getConfigValue(cfg, "linear.api_key")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if strings.Contains(got, "abcdefghijklmnop") {
		t.Errorf("getConfigValue() = %q, secret not masked", got)
	}

	got, err = getConfigValue(cfg, "agents.max_retries")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if got != "4" {
		t.Errorf("getConfigValue(agents.max_retries) = %q, want 4", got)
	}

	if _, err := getConfigValue(cfg, "nope"); err == nil {
		t.Error("getConfigValue(nope) should fail")
	}
}

func TestNestSettings(t *testing.T) {
	nested := nestSettings(map[string]interface{}{
		"engine.command":   "claude",
		"engine.model":     "sonnet",
		"data_dir":         "/tmp/work",
		"agents.repo_root": "",
	})

	engine, ok := nested["engine"].(map[string]interface{})
	if !ok {
		t.Fatalf("engine section = %T, want map", nested["engine"])
	}
	if engine["command"] != "claude" || engine["model"] != "sonnet" {
		t.Errorf("engine = %v", engine)
	}
	if nested["data_dir"] != "/tmp/work" {
		t.Errorf("data_dir = %v", nested["data_dir"])
	}
}

func TestIsSecretKey(t *testing.T) {
	for key, want := range map[string]bool{
		"anthropic.api_key": true,
		"trello.token":      true,
		"jira.api_token":    true,
		"jira.email":        false,
		"engine.command":    false,
	} {
		if got := isSecretKey(key); got != want {
			t.Errorf("isSecretKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{time.Hour + 2*time.Minute + 30*time.Second, "1h02m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatAgentLine(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-90 * time.Second)
	a := models.Agent{
		Name:          models.AgentTempest,
		Status:        models.AgentStatusWorking,
		WorkItemID:    "ENG-7",
		WorkItemTitle: "Fix login",
		StartedAt:     &started,
		RetryCount:    2,
	}

	line := formatAgentLine(a, now)
	for _, want := range []string{"Tempest", "working", "ENG-7 Fix login", "(1m30s)", "[retry 2]"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatAgentLine() = %q, missing %q", line, want)
		}
	}

	idle := formatAgentLine(models.NewAgent(models.AgentEmber), now)
	if strings.Contains(idle, "(") {
		t.Errorf("idle agent line = %q, should have no elapsed time", idle)
	}
}

func TestFormatRun(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)
	r := state.Run{
		Agent:         models.AgentTerra,
		WorkItemID:    "#12",
		WorkItemTitle: "Add retries",
		Attempt:       2,
		StartedAt:     start,
		FinishedAt:    &end,
		Outcome:       state.RunFailed,
	}

	line := formatRun(r, end.Add(time.Hour))
	for _, want := range []string{"Terra", "failed", "#12 Add retries", "(2m00s)", "[attempt 2]"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatRun() = %q, missing %q", line, want)
		}
	}
}

func TestFindBoard(t *testing.T) {
	boards := []models.BoardInfo{
		{ID: "ENG", Name: "Engineering", Source: "Jira"},
		{ID: "acme/api", Name: "acme/api", Source: "GitHub"},
	}

	b, ok := findBoard(boards, "github", "acme/api")
	if !ok || b.Name != "acme/api" {
		t.Errorf("findBoard(github, acme/api) = %+v, %v", b, ok)
	}
	if _, ok := findBoard(boards, "Jira", "eng"); ok {
		t.Error("board ids should match exactly")
	}
}

func TestFormatBoard_MarksCurrent(t *testing.T) {
	b := models.BoardInfo{ID: "ENG", Name: "Engineering", Source: "Jira"}

	if line := formatBoard(b, &state.BoardMapping{Source: "Jira", BoardID: "ENG"}); !strings.HasPrefix(line, "*") {
		t.Errorf("formatBoard() = %q, want current marker", line)
	}
	if line := formatBoard(b, nil); strings.HasPrefix(line, "*") {
		t.Errorf("formatBoard() = %q, want no marker", line)
	}
}

func TestFormatEvent(t *testing.T) {
	e := activity.Event{
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Agent:      models.AgentFlow,
		Event:      activity.KindWorking,
		WorkItemID: "ENG-2",
		Message:    "pid 4242",
	}
	line := formatEvent(e)
	for _, want := range []string{"Flow", activity.KindWorking, "ENG-2", "pid 4242"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatEvent() = %q, missing %q", line, want)
		}
	}
}
