package agent

import (
	"fmt"
	"os"
	"sync"

	"github.com/ShayCichocki/work/internal/git"
)

// WorktreeProvider defines the git steps that prepare an agent workspace.
// This interface allows mocking worktree operations in tests.
type WorktreeProvider interface {
	// Fetch updates the remote base branch.
	Fetch() error
	// Clean removes any previous worktree at path. Best-effort.
	Clean(path string)
	// PrepareBranch points branch at the remote base, creating or
	// force-moving it.
	PrepareBranch(branch string) error
	// Add checks branch out into a new worktree at path.
	Add(path, branch string) error
	// RepoPath returns the path to the main git repository.
	RepoPath() string
}

// Verify WorktreeManager implements WorktreeProvider at compile time.
var _ WorktreeProvider = (*WorktreeManager)(nil)

// WorktreeManager handles git worktree operations for agent isolation.
type WorktreeManager struct {
	repoPath string // Path to the main git repository
	remote   string // e.g. "origin"
	base     string // e.g. "main"
	git      git.Runner
	mu       sync.Mutex
}

// NewWorktreeManager creates a WorktreeManager for the repository at
// repoPath, basing agent branches on remote/base.
func NewWorktreeManager(repoPath, remote, base string) *WorktreeManager {
	return NewWorktreeManagerWithRunner(repoPath, remote, base, git.NewRunner(repoPath))
}

// NewWorktreeManagerWithRunner creates a new WorktreeManager with a custom git runner (for testing).
func NewWorktreeManagerWithRunner(repoPath, remote, base string, runner git.Runner) *WorktreeManager {
	if remote == "" {
		remote = "origin"
	}
	if base == "" {
		base = "main"
	}
	return &WorktreeManager{
		repoPath: repoPath,
		remote:   remote,
		base:     base,
		git:      runner,
	}
}

// RepoPath returns the path to the main git repository.
func (m *WorktreeManager) RepoPath() string {
	return m.repoPath
}

// StartPoint returns the remote ref new branches are created from.
func (m *WorktreeManager) StartPoint() string {
	return m.remote + "/" + m.base
}

// Fetch runs "git fetch <remote> <base>".
func (m *WorktreeManager) Fetch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.git.Fetch(m.remote, m.base); err != nil {
		return fmt.Errorf("fetch %s: %w", m.StartPoint(), err)
	}
	return nil
}

// Clean force-removes an existing worktree at path, deletes the directory
// if git left it behind, and prunes stale worktree entries. Errors are
// ignored; a leftover directory surfaces later when the worktree is added.
func (m *WorktreeManager) Clean(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		_ = m.git.WorktreeRemoveOptionalForce(path, true)
		if _, err := os.Stat(path); err == nil {
			_ = os.RemoveAll(path)
		}
	}
	_ = m.git.WorktreePrune()
}

// PrepareBranch creates branch at the remote base. If the branch already
// exists it is force-moved there instead.
func (m *WorktreeManager) PrepareBranch(branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.StartPoint()
	if err := m.git.CreateBranchAt(branch, start); err == nil {
		return nil
	}
	if err := m.git.ForceBranchAt(branch, start); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

// Add creates a worktree at path checked out to branch.
func (m *WorktreeManager) Add(path, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.git.WorktreeAdd(path, branch); err != nil {
		return fmt.Errorf("add worktree: %w", err)
	}
	return nil
}
