package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/work/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify work configuration.

Without arguments, displays current configuration with secrets masked.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/work/config.yaml
Project-specific overrides can be placed in .work.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			return displayAllConfig(cfg)
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints the masked configuration as YAML.
func displayAllConfig(cfg *config.Config) error {
	out, err := yaml.Marshal(nestSettings(cfg.Masked().Settings()))
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

// nestSettings turns dotted keys into nested maps for display.
func nestSettings(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range flat {
		section, field, ok := strings.Cut(key, ".")
		if !ok {
			out[key] = value
			continue
		}
		m, _ := out[section].(map[string]interface{})
		if m == nil {
			m = make(map[string]interface{})
			out[section] = m
		}
		m[field] = value
	}
	return out
}

// configKeys lists every settable key, sorted.
func configKeys() []string {
	keys := make([]string, 0)
	for k := range config.Default().Settings() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getConfigValue retrieves a configuration value by dot-notation key.
// Secrets are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	value, ok := cfg.Masked().Settings()[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s (known: %s)", key, strings.Join(configKeys(), ", "))
	}
	return fmt.Sprint(value), nil
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) error {
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	shown := value
	if isSecretKey(key) {
		shown = config.MaskSecret(value)
	}
	fmt.Printf("Set %s = %s\n", key, shown)
	return nil
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "token")
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "linear.api_key":
		cfg.Linear.APIKey = value
	case "trello.api_key":
		cfg.Trello.APIKey = value
	case "trello.token":
		cfg.Trello.Token = value
	case "jira.domain":
		cfg.Jira.Domain = value
	case "jira.email":
		cfg.Jira.Email = value
	case "jira.api_token":
		cfg.Jira.APIToken = value
	case "github.owner":
		cfg.GitHub.Owner = value
	case "agents.repo_root":
		cfg.Agents.RepoRoot = value
	case "agents.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for agents.max_retries: %w", err)
		}
		cfg.Agents.MaxRetries = n
	case "agents.tick_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for agents.tick_interval: %w", err)
		}
		cfg.Agents.TickInterval = d
	case "agents.auto_mode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for agents.auto_mode: %w", err)
		}
		cfg.Agents.AutoMode = b
	case "agents.base_branch":
		cfg.Agents.BaseBranch = value
	case "agents.remote":
		cfg.Agents.Remote = value
	case "engine.command":
		cfg.Engine.Command = value
	case "engine.unattended_flag":
		cfg.Engine.UnattendedFlag = value
	case "engine.chat_backend":
		cfg.Engine.ChatBackend = strings.ToLower(value)
	case "engine.model":
		cfg.Engine.Model = value
	case "engine.aws_region":
		cfg.Engine.AWSRegion = value
	case "engine.aws_profile":
		cfg.Engine.AWSProfile = value
	case "data_dir":
		cfg.DataDir = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
