package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// newTestRepo initialises a repository with one commit on main.
func newTestRepo(t *testing.T) *ExecRunner {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := filepath.Join(t.TempDir(), "main")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := NewRunner(dir)
	steps := [][]string{
		{"init", "-q", "-b", "main"},
		{"-c", "user.email=test@example.com", "-c", "user.name=test", "commit", "-q", "--allow-empty", "-m", "init"},
	}
	for _, args := range steps {
		if _, err := r.Run(args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	return r
}

func TestExecRunner_BranchCreateAndForce(t *testing.T) {
	r := newTestRepo(t)

	if err := r.CreateBranchAt("agent/ember/LIN-1-x", "main"); err != nil {
		t.Fatalf("CreateBranchAt: %v", err)
	}

	if err := r.CreateBranchAt("agent/ember/LIN-1-x", "main"); err == nil {
		t.Error("expected error creating an existing branch")
	}

	if err := r.ForceBranchAt("agent/ember/LIN-1-x", "main"); err != nil {
		t.Errorf("ForceBranchAt on existing branch: %v", err)
	}

	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch() = %q, want main", branch)
	}
}

func TestExecRunner_WorktreeLifecycle(t *testing.T) {
	r := newTestRepo(t)
	wt := filepath.Join(filepath.Dir(r.RepoPath()), "agent-flow")

	if err := r.CreateBranchAt("agent/flow/ENG-1-y", "main"); err != nil {
		t.Fatalf("CreateBranchAt: %v", err)
	}
	if err := r.WorktreeAdd(wt, "agent/flow/ENG-1-y"); err != nil {
		t.Fatalf("WorktreeAdd: %v", err)
	}
	if _, err := os.Stat(wt); err != nil {
		t.Fatalf("worktree directory missing: %v", err)
	}

	if err := r.WorktreeRemoveOptionalForce(wt, true); err != nil {
		t.Fatalf("WorktreeRemoveOptionalForce: %v", err)
	}
	if _, err := os.Stat(wt); !os.IsNotExist(err) {
		t.Errorf("worktree directory still present after remove")
	}
	if err := r.WorktreePrune(); err != nil {
		t.Errorf("WorktreePrune: %v", err)
	}
}

func TestExecRunner_ErrorIncludesCommand(t *testing.T) {
	r := newTestRepo(t)

	err := r.Fetch("origin", "main")
	if err == nil {
		t.Fatal("expected fetch from missing remote to fail")
	}
	if !strings.Contains(err.Error(), "git fetch origin main") {
		t.Errorf("error %q should name the git command", err)
	}
}
