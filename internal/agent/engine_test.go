package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ShayCichocki/work/pkg/models"
)

// writeScript creates an executable shell script standing in for the engine.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "engine")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestEngine_LaunchWritesLogAndSucceeds(t *testing.T) {
	script := writeScript(t, `echo "flag=$3"; echo "cwd=$(pwd)"; echo oops >&2; exit 0`)
	logDir := filepath.Join(t.TempDir(), "logs")
	workDir := t.TempDir()

	e := NewEngine(EngineConfig{Command: script, UnattendedFlag: "--yes", LogDir: logDir})
	proc, err := e.Launch(models.AgentEmber, "do the thing", workDir)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if proc.PID() <= 0 {
		t.Errorf("PID() = %d, want positive", proc.PID())
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "agent-ember.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	log := string(data)
	if !strings.Contains(log, "flag=--yes") {
		t.Errorf("log missing unattended flag: %q", log)
	}
	if !strings.Contains(log, "oops") {
		t.Errorf("log missing stderr: %q", log)
	}
	resolved, _ := filepath.EvalSymlinks(workDir)
	if !strings.Contains(log, "cwd="+resolved) && !strings.Contains(log, "cwd="+workDir) {
		t.Errorf("engine did not run in worktree: %q", log)
	}
}

func TestEngine_LaunchTruncatesLog(t *testing.T) {
	script := writeScript(t, `echo second`)
	logDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(logDir, "agent-flow.log"), []byte("first run output\n"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(EngineConfig{Command: script, LogDir: logDir})
	proc, err := e.Launch(models.AgentFlow, "p", t.TempDir())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	proc.Wait()

	data, _ := os.ReadFile(e.LogPath(models.AgentFlow))
	if strings.Contains(string(data), "first run") {
		t.Errorf("log was not truncated: %q", data)
	}
}

func TestEngine_LaunchNonZeroExit(t *testing.T) {
	script := writeScript(t, `exit 3`)
	e := NewEngine(EngineConfig{Command: script, LogDir: t.TempDir()})

	proc, err := e.Launch(models.AgentTerra, "p", t.TempDir())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	waitErr := proc.Wait()
	if waitErr == nil {
		t.Fatal("expected Wait error for exit 3")
	}
	if detail := ExitDetail(waitErr); !strings.HasPrefix(detail, "Exit code:") || !strings.Contains(detail, "3") {
		t.Errorf("ExitDetail() = %q", detail)
	}
}

func TestEngine_LaunchMissingBinary(t *testing.T) {
	e := NewEngine(EngineConfig{Command: filepath.Join(t.TempDir(), "missing"), LogDir: t.TempDir()})
	if _, err := e.Launch(models.AgentEmber, "p", t.TempDir()); err == nil {
		t.Fatal("expected spawn failure")
	}
}

func TestExitDetail_ProcessError(t *testing.T) {
	if got := ExitDetail(errors.New("wait failed")); got != "Process error: wait failed" {
		t.Errorf("ExitDetail() = %q", got)
	}
}

type recordingRunner struct {
	workDir string
	name    string
	args    []string
	out     []byte
	err     error
}

func (r *recordingRunner) Run(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	return r.Output(ctx, workDir, name, args...)
}

func (r *recordingRunner) Output(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	r.workDir, r.name, r.args = workDir, name, args
	return r.out, r.err
}

func (r *recordingRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func TestEngine_Message(t *testing.T) {
	runner := &recordingRunner{out: []byte("  Going well.\n")}
	e := NewEngineWithRunner(EngineConfig{UnattendedFlag: "--dangerously-skip-permissions"}, runner)

	reply, err := e.Message(context.Background(), models.AgentFlow, "status?", "/wt/flow", "ENG-1: x")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if reply != "Going well." {
		t.Errorf("reply = %q", reply)
	}
	if runner.name != "claude" || runner.workDir != "/wt/flow" {
		t.Errorf("ran %q in %q", runner.name, runner.workDir)
	}
	joined := strings.Join(runner.args, " ")
	if strings.Contains(joined, "--dangerously-skip-permissions") {
		t.Error("read-only message must not request unattended edits")
	}
	if !strings.HasSuffix(joined, "--output-format text") {
		t.Errorf("args = %v", runner.args)
	}
}

func TestEngine_ApplyFeedback(t *testing.T) {
	runner := &recordingRunner{out: []byte("Renamed the flag.")}
	e := NewEngineWithRunner(EngineConfig{UnattendedFlag: "--dangerously-skip-permissions"}, runner)

	reply, err := e.ApplyFeedback(context.Background(), models.AgentEmber, "rename the flag", "/wt/ember", "LIN-1: y")
	if err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	if reply != "Renamed the flag." {
		t.Errorf("reply = %q", reply)
	}
	if runner.args[2] != "--dangerously-skip-permissions" {
		t.Errorf("args = %v, want unattended flag after prompt", runner.args)
	}
}

func TestEngine_MessageFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 1: rate limited")}
	e := NewEngineWithRunner(EngineConfig{}, runner)

	_, err := e.Message(context.Background(), models.AgentEmber, "hi", "", "")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Message() error = %v", err)
	}
}

type stubCompleter struct {
	system, prompt string
}

func (s *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.system, s.prompt = system, prompt
	return "api reply", nil
}

func TestAPIMessenger(t *testing.T) {
	completer := &stubCompleter{}
	runner := &recordingRunner{out: []byte("cli reply")}
	m := NewAPIMessenger(completer, NewEngineWithRunner(EngineConfig{}, runner))

	reply, err := m.Message(context.Background(), models.AgentTerra, "hello", "", "")
	if err != nil || reply != "api reply" {
		t.Fatalf("Message() = %q, %v", reply, err)
	}
	if completer.system != models.PersonalityOf(models.AgentTerra).SystemPrompt {
		t.Error("system prompt should be the agent's working style")
	}

	reply, err = m.ApplyFeedback(context.Background(), models.AgentTerra, "fix", "/wt", "X: y")
	if err != nil || reply != "cli reply" {
		t.Errorf("ApplyFeedback() = %q, %v", reply, err)
	}
}
