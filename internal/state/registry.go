package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ShayCichocki/work/pkg/models"
)

// RegistryFileName is the agent registry file inside the data directory.
const RegistryFileName = "agents.json"

// ErrUnknownAgent is returned for names outside the agent pool.
var ErrUnknownAgent = errors.New("unknown agent")

// PersistenceError reports a failure reading or writing durable state.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ProcessProbe reports whether a pid refers to a live process. It must not
// deliver a signal.
type ProcessProbe func(pid int) bool

// Registry is the persisted table of agent state, one record per pool slot.
// Every mutation rewrites the whole file. A Registry is owned by a single
// goroutine and is not safe for concurrent use.
type Registry struct {
	path   string
	agents map[models.AgentName]*models.Agent
	alive  ProcessProbe
	now    func() time.Time

	// stale holds the agents reconciled by OpenRegistry until TakeStale.
	stale []models.AgentName
}

// OpenRegistry loads the registry at path and reconciles stale pids. A
// missing or corrupt file yields the default registry; the decode error is
// logged.
func OpenRegistry(path string, alive ProcessProbe) *Registry {
	r := &Registry{
		path:  path,
		alive: alive,
		now:   time.Now,
	}
	r.stale = r.Reload()
	return r
}

// TakeStale returns the agents moved to Error when the registry was opened.
// Later calls return nil.
func (r *Registry) TakeStale() []models.AgentName {
	stale := r.stale
	r.stale = nil
	return stale
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// SetProbe replaces the liveness probe used by reconciliation.
func (r *Registry) SetProbe(alive ProcessProbe) {
	r.alive = alive
}

// Reload re-reads the file, falling back to defaults, then reconciles
// stale pids. It returns the agents moved to Error by reconciliation.
func (r *Registry) Reload() []models.AgentName {
	agents, err := readRegistryFile(r.path)
	if err != nil {
		log.Printf("[registry] %v (using defaults)", err)
	}
	r.agents = agents

	stale := reconcileStale(r.agents, r.alive)
	if len(stale) > 0 {
		if err := r.save(); err != nil {
			log.Printf("[registry] %v", err)
		}
	}
	return stale
}

// readRegistryFile returns one record per pool slot, taking stored values
// where present.
func readRegistryFile(path string) (map[models.AgentName]*models.Agent, error) {
	agents := defaultAgents()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return agents, nil
	}
	if err != nil {
		return agents, &PersistenceError{Op: "read", Path: path, Err: err}
	}

	var stored map[models.AgentName]models.Agent
	if err := json.Unmarshal(data, &stored); err != nil {
		return agents, &PersistenceError{Op: "decode", Path: path, Err: err}
	}

	for _, name := range models.AllAgents {
		a, ok := stored[name]
		if !ok {
			continue
		}
		a.Name = name
		if !a.Status.Valid() {
			a.Status = models.AgentStatusIdle
		}
		agents[name] = &a
	}
	return agents, nil
}

func defaultAgents() map[models.AgentName]*models.Agent {
	agents := make(map[models.AgentName]*models.Agent, len(models.AllAgents))
	for _, name := range models.AllAgents {
		a := models.NewAgent(name)
		agents[name] = &a
	}
	return agents
}

// save writes the registry as an indented JSON object keyed by agent name.
func (r *Registry) save() error {
	out := make(map[models.AgentName]models.Agent, len(r.agents))
	for name, a := range r.agents {
		out[name] = *a
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Path: r.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return &PersistenceError{Op: "write", Path: r.path, Err: err}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &PersistenceError{Op: "write", Path: r.path, Err: err}
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return &PersistenceError{Op: "write", Path: r.path, Err: err}
	}
	return nil
}

// update applies fn to an agent and persists the registry.
func (r *Registry) update(name models.AgentName, fn func(a *models.Agent)) error {
	a, ok := r.agents[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	fn(a)
	return r.save()
}

// MarkProvisioning assigns a work item to the agent, stamps started_at,
// clears the last error, and advances the epoch. It returns the new epoch.
func (r *Registry) MarkProvisioning(name models.AgentName, itemID, itemTitle, branch, worktreePath string) (uint64, error) {
	var epoch uint64
	err := r.update(name, func(a *models.Agent) {
		now := r.now().UTC()
		a.Status = models.AgentStatusProvisioning
		a.WorkItemID = itemID
		a.WorkItemTitle = itemTitle
		a.Branch = branch
		a.WorktreePath = worktreePath
		a.StartedAt = &now
		a.Error = ""
		a.PID = 0
		a.Epoch++
		epoch = a.Epoch
	})
	return epoch, err
}

// MarkWorking records the engine pid.
func (r *Registry) MarkWorking(name models.AgentName, pid int) error {
	return r.update(name, func(a *models.Agent) {
		a.Status = models.AgentStatusWorking
		a.PID = pid
	})
}

// MarkDone records a successful exit.
func (r *Registry) MarkDone(name models.AgentName) error {
	return r.update(name, func(a *models.Agent) {
		a.Status = models.AgentStatusDone
		a.PID = 0
	})
}

// MarkError records a failure message.
func (r *Registry) MarkError(name models.AgentName, message string) error {
	return r.update(name, func(a *models.Agent) {
		a.Status = models.AgentStatusError
		a.Error = message
		a.PID = 0
	})
}

// IncrementRetry bumps and returns the persisted retry counter.
func (r *Registry) IncrementRetry(name models.AgentName) (int, error) {
	var count int
	err := r.update(name, func(a *models.Agent) {
		a.RetryCount++
		count = a.RetryCount
	})
	return count, err
}

// Release resets the agent to idle. The epoch survives so late completion
// notices for the released assignment stay recognisable.
func (r *Registry) Release(name models.AgentName) error {
	return r.update(name, func(a *models.Agent) {
		epoch := a.Epoch
		*a = models.NewAgent(name)
		a.Epoch = epoch
	})
}

// NextFreeAgent returns the first idle agent in pool order.
func (r *Registry) NextFreeAgent() (models.AgentName, bool) {
	for _, name := range models.AllAgents {
		if r.agents[name].Status == models.AgentStatusIdle {
			return name, true
		}
	}
	return "", false
}

// Get returns a copy of one agent's record.
func (r *Registry) Get(name models.AgentName) (models.Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return models.Agent{}, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	return *a, nil
}

// GetAll returns copies of every record in pool order.
func (r *Registry) GetAll() []models.Agent {
	out := make([]models.Agent, 0, len(models.AllAgents))
	for _, name := range models.AllAgents {
		out = append(out, *r.agents[name])
	}
	return out
}
