package orchestrator

import (
	"log"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/agent"
	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

// Assignment describes a successful dispatch.
type Assignment struct {
	Agent        models.AgentName
	Epoch        uint64
	PID          int
	Branch       string
	WorktreePath string
}

// Dispatcher provisions a worktree for an agent and launches its engine.
// It must only be called from the controller goroutine.
type Dispatcher struct {
	registry  *state.Registry
	worktrees agent.WorktreeProvider
	launcher  agent.Launcher
	activity  *activity.Log
	notify    func(Action)
	repoRoot  string
	logger    *DebugLogger
	terminate func(pid int) error
}

// NewDispatcher creates a Dispatcher. notify receives the single
// ProcessExited action each monitor emits.
func NewDispatcher(registry *state.Registry, worktrees agent.WorktreeProvider, launcher agent.Launcher, activityLog *activity.Log, notify func(Action)) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		worktrees: worktrees,
		launcher:  launcher,
		activity:  activityLog,
		notify:    notify,
		repoRoot:  worktrees.RepoPath(),
		logger:    NopLogger(),
		terminate: agent.Terminate,
	}
}

// SetLogger sets the debug logger.
func (d *Dispatcher) SetLogger(l *DebugLogger) {
	d.logger = l
}

// Dispatch assigns item to the agent: it provisions a fresh worktree on a
// branch cut from the remote base, writes the context file and starts the
// engine. On failure the agent is left in Error with the failure message;
// partially created git state is not rolled back.
func (d *Dispatcher) Dispatch(name models.AgentName, item models.WorkItem) (Assignment, error) {
	branch := agent.BranchName(name, item.ID, item.Title)
	worktreePath := agent.WorktreePath(d.repoRoot, name)

	epoch, err := d.registry.MarkProvisioning(name, item.ID, item.Title, branch, worktreePath)
	if err != nil {
		return Assignment{}, err
	}
	d.activity.Record(name, activity.KindDispatched, item.ID, item.Title, "")
	d.logger.Log("[dispatch] %s epoch=%d item=%s branch=%s", name, epoch, item.ID, branch)

	proc, err := d.provision(name, item, branch, worktreePath)
	if err != nil {
		d.fail(name, item, err)
		return Assignment{}, err
	}

	pid := proc.PID()
	if err := d.registry.MarkWorking(name, pid); err != nil {
		// An unrecorded pid could never be cleared.
		if termErr := d.terminate(pid); termErr != nil {
			log.Printf("[dispatch] terminate %s pid %d: %v", name, pid, termErr)
		}
		go proc.Wait()
		d.fail(name, item, err)
		return Assignment{}, err
	}
	d.activity.Record(name, activity.KindWorking, item.ID, item.Title, "")

	go d.monitor(name, epoch, item, proc)

	return Assignment{
		Agent:        name,
		Epoch:        epoch,
		PID:          pid,
		Branch:       branch,
		WorktreePath: worktreePath,
	}, nil
}

// provision runs the git, context-file and spawn steps in order.
func (d *Dispatcher) provision(name models.AgentName, item models.WorkItem, branch, worktreePath string) (agent.Process, error) {
	if err := d.worktrees.Fetch(); err != nil {
		return nil, &WorkspaceError{Stage: StageFetch, Err: err}
	}

	d.worktrees.Clean(worktreePath)

	if err := d.worktrees.PrepareBranch(branch); err != nil {
		return nil, &WorkspaceError{Stage: StageBranch, Err: err}
	}
	if err := d.worktrees.Add(worktreePath, branch); err != nil {
		return nil, &WorkspaceError{Stage: StageAdd, Err: err}
	}
	if err := agent.WriteContextFile(worktreePath, name); err != nil {
		return nil, &WorkspaceError{Stage: StageContext, Err: err}
	}

	prompt := agent.BuildTaskPrompt(item, name)
	proc, err := d.launcher.Launch(name, prompt, worktreePath)
	if err != nil {
		return nil, &ProcessError{Err: err}
	}
	return proc, nil
}

func (d *Dispatcher) fail(name models.AgentName, item models.WorkItem, cause error) {
	msg := cause.Error()
	if err := d.registry.MarkError(name, msg); err != nil {
		log.Printf("[dispatch] mark %s error: %v", name, err)
	}
	d.activity.Record(name, activity.KindError, item.ID, item.Title, msg)
	d.logger.Log("[dispatch] %s failed: %s", name, msg)
}

// monitor waits for the engine to exit. It never touches the registry; the
// outcome reaches the controller as one ProcessExited action.
func (d *Dispatcher) monitor(name models.AgentName, epoch uint64, item models.WorkItem, proc agent.Process) {
	err := proc.Wait()

	exited := ProcessExited{
		Agent:   name,
		Epoch:   epoch,
		PID:     proc.PID(),
		Success: err == nil,
	}
	if err == nil {
		d.activity.Record(name, activity.KindDone, item.ID, item.Title, "")
	} else {
		exited.Detail = agent.ExitDetail(err)
		d.activity.Record(name, activity.KindError, item.ID, item.Title, exited.Detail)
	}
	d.logger.Log("[monitor] %s epoch=%d pid=%d success=%v %s", name, epoch, exited.PID, exited.Success, exited.Detail)

	d.notify(exited)
}
