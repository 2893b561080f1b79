package orchestrator

import (
	"time"

	"github.com/ShayCichocki/work/pkg/models"
)

// flashTTL is how long a status message stays visible.
const flashTTL = 3 * time.Second

// Snapshot is an immutable copy of controller state published after every
// action. It is the only view the UI has of the core.
type Snapshot struct {
	Agents     []models.Agent
	Items      []models.WorkItem
	Assigned   map[string]models.AgentName
	Boards     []models.BoardInfo
	Chat       []models.ChatMessage
	Flash      string
	AutoMode   bool
	Loading    bool
	NeedsBoard bool
	Waiting    bool
	Quit       bool
	TakenAt    time.Time
}

// AssignedAgent returns the agent working on itemID, if any.
func (s Snapshot) AssignedAgent(itemID string) (models.AgentName, bool) {
	name, ok := s.Assigned[itemID]
	return name, ok
}

// snapshot builds a Snapshot. Called on the controller goroutine.
func (c *Controller) snapshot() Snapshot {
	now := c.now()

	items := make([]models.WorkItem, len(c.items))
	for i, it := range c.items {
		items[i] = it.Clone()
	}

	agents := c.registry.GetAll()
	assigned := make(map[string]models.AgentName)
	for _, a := range agents {
		if a.WorkItemID != "" && holdsItem(a.Status) {
			if _, ok := assigned[a.WorkItemID]; !ok {
				assigned[a.WorkItemID] = a.Name
			}
		}
	}

	s := Snapshot{
		Agents:     agents,
		Items:      items,
		Assigned:   assigned,
		Boards:     append([]models.BoardInfo(nil), c.boardList...),
		Chat:       append([]models.ChatMessage(nil), c.chat...),
		AutoMode:   c.autoMode,
		Loading:    c.loading,
		NeedsBoard: c.needsBoard,
		Waiting:    c.waiting,
		Quit:       c.quit,
		TakenAt:    now,
	}
	if c.flash != "" && now.Sub(c.flashAt) < flashTTL {
		s.Flash = c.flash
	}
	return s
}

// holdsItem reports whether an agent in this status still owns its item.
func holdsItem(s models.AgentStatus) bool {
	switch s {
	case models.AgentStatusProvisioning, models.AgentStatusWorking, models.AgentStatusDone:
		return true
	}
	return false
}
