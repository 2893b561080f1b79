package models

import (
	"fmt"
	"strings"
	"time"
)

// AgentName identifies one slot of the fixed agent pool.
type AgentName string

const (
	AgentEmber   AgentName = "ember"
	AgentFlow    AgentName = "flow"
	AgentTempest AgentName = "tempest"
	AgentTerra   AgentName = "terra"
)

// AllAgents lists the pool in declared order. Order is significant: it is
// the tie-break used when picking a free agent.
var AllAgents = [...]AgentName{AgentEmber, AgentFlow, AgentTempest, AgentTerra}

// Valid returns true if the name is one of the pool slots.
func (n AgentName) Valid() bool {
	switch n {
	case AgentEmber, AgentFlow, AgentTempest, AgentTerra:
		return true
	default:
		return false
	}
}

// DisplayName returns the capitalized name shown to users.
func (n AgentName) DisplayName() string {
	switch n {
	case AgentEmber:
		return "Ember"
	case AgentFlow:
		return "Flow"
	case AgentTempest:
		return "Tempest"
	case AgentTerra:
		return "Terra"
	default:
		return string(n)
	}
}

// Emoji returns the glyph used for the agent in the dashboard.
func (n AgentName) Emoji() string {
	switch n {
	case AgentEmber:
		return "\U0001F468‍\U0001F692"
	case AgentFlow:
		return "\U0001F3C4‍♀️"
	case AgentTempest:
		return "\U0001F9DD‍♀️"
	case AgentTerra:
		return "\U0001F469‍\U0001F33E"
	default:
		return ""
	}
}

// ParseAgentName resolves a case-insensitive agent name.
func ParseAgentName(s string) (AgentName, error) {
	for _, n := range AllAgents {
		if strings.EqualFold(string(n), strings.TrimSpace(s)) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown agent %q", s)
}

// AgentStatus represents the current state of an agent slot.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent is free for a new work item.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusProvisioning indicates the workspace is being prepared.
	AgentStatusProvisioning AgentStatus = "provisioning"
	// AgentStatusWorking indicates the engine process is running.
	AgentStatusWorking AgentStatus = "working"
	// AgentStatusDone indicates the engine exited successfully.
	AgentStatusDone AgentStatus = "done"
	// AgentStatusError indicates provisioning or the engine failed.
	AgentStatusError AgentStatus = "error"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusProvisioning, AgentStatusWorking,
		AgentStatusDone, AgentStatusError:
		return true
	default:
		return false
	}
}

// Agent is the persisted state of one pool slot.
type Agent struct {
	// Name is the slot identity and the registry key.
	Name AgentName `json:"name"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status"`
	// WorkItemID is the item currently (or most recently) assigned.
	WorkItemID string `json:"work_item_id,omitempty"`
	// WorkItemTitle is the title of that item.
	WorkItemTitle string `json:"work_item_title,omitempty"`
	// Branch is the git branch created for the item.
	Branch string `json:"branch,omitempty"`
	// WorktreePath is the path to the agent's git worktree.
	WorktreePath string `json:"worktree_path,omitempty"`
	// PID is the engine process id. Non-zero iff Status is working.
	PID int `json:"pid,omitempty"`
	// StartedAt is when provisioning began.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// Error is the last failure message.
	Error string `json:"error,omitempty"`
	// RetryCount counts error reconciliation cycles since the last release.
	RetryCount int `json:"retry_count"`
	// Epoch increases on every provisioning. Completion notices carry the
	// epoch they were issued for.
	Epoch uint64 `json:"epoch"`
}

// NewAgent returns the idle default record for a slot.
func NewAgent(name AgentName) Agent {
	return Agent{Name: name, Status: AgentStatusIdle}
}

// Elapsed returns the time since provisioning, or zero if not started.
func (a Agent) Elapsed(now time.Time) time.Duration {
	if a.StartedAt == nil {
		return 0
	}
	return now.Sub(*a.StartedAt)
}

// Busy reports whether the agent holds a work item.
func (a Agent) Busy() bool {
	return a.Status != AgentStatusIdle
}
