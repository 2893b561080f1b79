package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrAllAgentsBusy is returned when no agent is idle.
	ErrAllAgentsBusy = errors.New("all agents busy")
	// ErrUnknownItem is returned when an item id is not in the backlog.
	ErrUnknownItem = errors.New("unknown work item")
)

// Provisioning stages reported by WorkspaceError.
const (
	StageFetch   = "fetch"
	StageBranch  = "branch"
	StageAdd     = "worktree add"
	StageContext = "context file"
)

// WorkspaceError reports a failure preparing an agent's worktree.
type WorkspaceError struct {
	Stage string
	Err   error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.Stage, e.Err)
}

func (e *WorkspaceError) Unwrap() error {
	return e.Err
}

// ProcessError reports a failure starting the engine process.
type ProcessError struct {
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("spawn engine: %v", e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
