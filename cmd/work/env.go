package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/agent"
	"github.com/ShayCichocki/work/internal/api"
	"github.com/ShayCichocki/work/internal/config"
	iexec "github.com/ShayCichocki/work/internal/exec"
	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/internal/tracker"
)

// env holds everything a command needs from configuration and the data
// directory.
type env struct {
	cfg      *config.Config
	dataDir  string
	repoRoot string
	registry *state.Registry
	activity *activity.Log
	db       *state.DB
}

// loadConfig reads and validates configuration, applying the --repo flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootRepoRoot != "" {
		cfg.Agents.RepoRoot = rootRepoRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// dataDirFor returns the configured data directory or the XDG default.
func dataDirFor(cfg *config.Config) string {
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	return state.DataDir()
}

// openEnv loads configuration and opens the registry, activity log and
// history database. Close it when done.
func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	repoRoot, err := cfg.RepoRoot()
	if err != nil {
		return nil, err
	}

	dataDir := dataDirFor(cfg)
	e := &env{
		cfg:      cfg,
		dataDir:  dataDir,
		repoRoot: repoRoot,
		registry: state.OpenRegistry(filepath.Join(dataDir, state.RegistryFileName), state.IsProcessAlive),
		activity: activity.New(filepath.Join(dataDir, activity.FileName)),
	}

	db, err := state.Open(state.DBPath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	e.db = db
	return e, nil
}

// Close releases the history database.
func (e *env) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// logDir is where engine output files are written.
func (e *env) logDir() string {
	return filepath.Join(e.dataDir, "logs")
}

// engine builds the CLI engine used for dispatch and, by default, chat.
func (e *env) engine() *agent.Engine {
	return agent.NewEngine(agent.EngineConfig{
		Command:        e.cfg.Engine.Command,
		UnattendedFlag: e.cfg.Engine.UnattendedFlag,
		LogDir:         e.logDir(),
	})
}

// trackers builds the provider set and applies the saved board, if any.
func (e *env) trackers() *tracker.Set {
	set := tracker.FromConfig(e.cfg, iexec.NewRunner())
	if m, err := e.db.GetBoardMapping(e.repoRoot); err == nil {
		set.SetBoardFilter(m.Source, m.BoardID)
	}
	return set
}

// newMessenger returns the chat backend selected by engine.chat_backend.
// Feedback always goes through the CLI engine since it edits files.
func newMessenger(cfg *config.Config, engine *agent.Engine) (agent.Messenger, error) {
	switch cfg.Engine.ChatBackend {
	case config.ChatBackendAPI, config.ChatBackendBedrock:
		clientCfg := api.ClientConfig{
			Model:         anthropic.Model(cfg.Engine.Model),
			UseAWSBedrock: cfg.Engine.ChatBackend == config.ChatBackendBedrock,
			AWSRegion:     cfg.Engine.AWSRegion,
			AWSProfile:    cfg.Engine.AWSProfile,
		}
		if !clientCfg.UseAWSBedrock {
			key, err := config.GetAPIKey(cfg)
			if err != nil {
				return nil, err
			}
			clientCfg.APIKey = key
		}
		client, err := api.NewClient(clientCfg)
		if err != nil {
			return nil, fmt.Errorf("create API client: %w", err)
		}
		log.Printf("[work] chat backend %s, model %s", cfg.Engine.ChatBackend, client.Model())
		return agent.NewAPIMessenger(client, engine), nil
	default:
		return engine, nil
	}
}

// orBackground returns ctx, or context.Background when ctx is nil.
func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
