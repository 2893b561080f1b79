package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	iexec "github.com/ShayCichocki/work/internal/exec"
	"github.com/ShayCichocki/work/pkg/models"
)

// Process is a launched engine process.
type Process interface {
	// PID returns the OS process id.
	PID() int
	// Wait blocks until the process exits. A nil error means exit code 0.
	Wait() error
}

// Launcher starts long-running engine processes for dispatched work.
type Launcher interface {
	Launch(name models.AgentName, prompt, workDir string) (Process, error)
}

// Messenger runs short request/response engine calls outside the dispatch
// lifecycle.
type Messenger interface {
	Message(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error)
	ApplyFeedback(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error)
}

// EngineConfig configures how the external engine is invoked.
type EngineConfig struct {
	// Command is the engine executable, e.g. "claude".
	Command string
	// UnattendedFlag requests non-interactive operation.
	UnattendedFlag string
	// LogDir receives one output file per agent.
	LogDir string
}

// Engine drives the external coding-agent CLI.
type Engine struct {
	cfg    EngineConfig
	runner iexec.CommandRunner
}

// Verify Engine implements Launcher and Messenger at compile time.
var (
	_ Launcher  = (*Engine)(nil)
	_ Messenger = (*Engine)(nil)
)

// NewEngine creates an Engine that runs commands through os/exec.
func NewEngine(cfg EngineConfig) *Engine {
	return NewEngineWithRunner(cfg, iexec.NewRunner())
}

// NewEngineWithRunner creates an Engine with a custom runner for the
// synchronous calls (for testing).
func NewEngineWithRunner(cfg EngineConfig, runner iexec.CommandRunner) *Engine {
	if cfg.Command == "" {
		cfg.Command = "claude"
	}
	return &Engine{cfg: cfg, runner: runner}
}

// Command returns the engine executable name.
func (e *Engine) Command() string {
	return e.cfg.Command
}

// LogPath returns the output file for an agent.
func (e *Engine) LogPath(name models.AgentName) string {
	return LogPath(e.cfg.LogDir, name)
}

// Launch truncates the agent's log file and starts
// "<engine> -p <prompt> <unattended-flag>" in workDir with stdin closed and
// both output streams sent to the log. The process runs in its own group so
// it can be terminated together with its children.
func (e *Engine) Launch(name models.AgentName, prompt, workDir string) (Process, error) {
	if err := os.MkdirAll(e.cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.Create(e.LogPath(name))
	if err != nil {
		return nil, fmt.Errorf("create agent log: %w", err)
	}

	args := []string{"-p", prompt}
	if e.cfg.UnattendedFlag != "" {
		args = append(args, e.cfg.UnattendedFlag)
	}
	cmd := exec.Command(e.cfg.Command, args...)
	cmd.Dir = workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("spawn %s: %w", e.cfg.Command, err)
	}
	return &engineProcess{cmd: cmd, log: logFile}, nil
}

type engineProcess struct {
	cmd *exec.Cmd
	log *os.File
}

func (p *engineProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *engineProcess) Wait() error {
	err := p.cmd.Wait()
	p.log.Close()
	return err
}

// Message asks the agent a question and returns its text reply. The engine
// runs without edit permissions.
func (e *Engine) Message(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error) {
	prompt := BuildMessagePrompt(name, text, taskContext)
	out, err := e.runner.Output(ctx, workDir, e.cfg.Command, "-p", prompt, "--output-format", "text")
	if err != nil {
		return "", fmt.Errorf("agent response failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ApplyFeedback asks the agent to change its worktree according to the
// feedback and returns the agent's summary.
func (e *Engine) ApplyFeedback(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error) {
	prompt := BuildFeedbackPrompt(name, text, taskContext)
	args := []string{"-p", prompt}
	if e.cfg.UnattendedFlag != "" {
		args = append(args, e.cfg.UnattendedFlag)
	}
	args = append(args, "--output-format", "text")
	out, err := e.runner.Output(ctx, workDir, e.cfg.Command, args...)
	if err != nil {
		return "", fmt.Errorf("feedback application failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ExitDetail describes a Wait error for the activity log.
func ExitDetail(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return fmt.Sprintf("Exit code: %s", exitErr.ProcessState.String())
	}
	return fmt.Sprintf("Process error: %v", err)
}
