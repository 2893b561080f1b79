// Package git provides an interface for git operations.
package git

// BranchOperations defines the interface for git branch operations.
type BranchOperations interface {
	// CurrentBranch returns the name of the current branch.
	CurrentBranch() (string, error)
	// CreateBranchAt creates a branch pointing at startPoint (git branch <name> <start>).
	CreateBranchAt(name, startPoint string) error
	// ForceBranchAt moves an existing branch to startPoint (git branch -f).
	ForceBranchAt(name, startPoint string) error
}

// WorktreeOperations defines the interface for git worktree operations.
type WorktreeOperations interface {
	// WorktreeAdd creates a new worktree at the given path for the branch.
	WorktreeAdd(path, branch string) error
	// WorktreeRemoveOptionalForce removes the worktree, optionally with force.
	WorktreeRemoveOptionalForce(path string, force bool) error
	// WorktreePrune removes stale worktree entries.
	WorktreePrune() error
}

// RemoteOperations defines the interface for git remote operations.
type RemoteOperations interface {
	// Fetch fetches a single ref from the remote.
	Fetch(remote, ref string) error
}

// Runner defines the complete interface for git operations.
// This interface embeds all focused interfaces for full functionality.
// Consumers should prefer using focused interfaces when possible.
type Runner interface {
	BranchOperations
	WorktreeOperations
	RemoteOperations
	// Run executes an arbitrary git command with the given arguments.
	// Returns the command output and an error if the command fails.
	Run(args ...string) (string, error)
}
