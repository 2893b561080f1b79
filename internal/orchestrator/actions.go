package orchestrator

import "github.com/ShayCichocki/work/pkg/models"

// Action is a message handled by the controller goroutine. Every mutation
// of agent state is expressed as an Action.
type Action interface {
	actionName() string
}

// Tick runs release, retry and auto-dispatch.
type Tick struct{}

// Refresh reloads the backlog from the trackers.
type Refresh struct{}

// DispatchSelected assigns one backlog item to the first free agent.
type DispatchSelected struct {
	ItemID string
}

// ClearAgent terminates an agent's process and releases it.
type ClearAgent struct {
	Agent models.AgentName
}

// ProcessExited is sent exactly once by a monitor when the engine process
// it watches terminates. Epoch identifies the assignment it belongs to.
type ProcessExited struct {
	Agent   models.AgentName
	Epoch   uint64
	PID     int
	Success bool
	Detail  string
}

// ToggleAutoMode flips between manual and automatic dispatch.
type ToggleAutoMode struct{}

// SendMessage is an @agent chat message from the user.
type SendMessage struct {
	Agent models.AgentName
	Text  string
}

// SubmitInput is a line typed into the dashboard input: "@agent text"
// for chat, anything else creates a work item.
type SubmitInput struct {
	Text string
}

// AgentResponse carries the reply (or failure) of a chat request.
type AgentResponse struct {
	Agent models.AgentName
	Text  string
	Err   error
}

// CreateItem adds a new work item to the backlog.
type CreateItem struct {
	Title       string
	Description string
}

// ClearActivity clears one agent's activity history.
type ClearActivity struct {
	Agent models.AgentName
}

// LoadBoards fetches the boards offered by the trackers.
type LoadBoards struct{}

// SelectBoard maps the current project to a board and refreshes.
type SelectBoard struct {
	Board models.BoardInfo
}

// Quit stops the controller after the current action.
type Quit struct{}

func (Tick) actionName() string { return "tick" }
func (Refresh) actionName() string { return "refresh" }
func (DispatchSelected) actionName() string { return "dispatch-selected" }
func (ClearAgent) actionName() string { return "clear-agent" }
func (ProcessExited) actionName() string { return "process-exited" }
func (ToggleAutoMode) actionName() string { return "toggle-auto" }
func (SendMessage) actionName() string { return "send-message" }
func (SubmitInput) actionName() string { return "submit-input" }
func (AgentResponse) actionName() string { return "agent-response" }
func (CreateItem) actionName() string { return "create-item" }
func (ClearActivity) actionName() string { return "clear-activity" }
func (LoadBoards) actionName() string { return "load-boards" }
func (SelectBoard) actionName() string { return "select-board" }
func (Quit) actionName() string { return "quit" }
