package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/agent"
	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

// fakeWorktrees creates plain directories instead of git worktrees.
type fakeWorktrees struct {
	repo     string
	fetchErr error
	addErr   error
	calls    []string
}

func (f *fakeWorktrees) Fetch() error {
	f.calls = append(f.calls, "fetch")
	return f.fetchErr
}

func (f *fakeWorktrees) Clean(path string) {
	f.calls = append(f.calls, "clean")
	os.RemoveAll(path)
}

func (f *fakeWorktrees) PrepareBranch(branch string) error {
	f.calls = append(f.calls, "branch "+branch)
	return nil
}

func (f *fakeWorktrees) Add(path, branch string) error {
	f.calls = append(f.calls, "add")
	if f.addErr != nil {
		return f.addErr
	}
	return os.MkdirAll(path, 0755)
}

func (f *fakeWorktrees) RepoPath() string { return f.repo }

// fakeProcess exits when finish is called.
type fakeProcess struct {
	pid    int
	done   chan error
	waited chan struct{}
	once   sync.Once
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Wait() error {
	p.once.Do(func() { close(p.waited) })
	return <-p.done
}

func (p *fakeProcess) finish(err error) { p.done <- err }

// fakeLauncher hands out fakeProcesses with increasing pids.
type fakeLauncher struct {
	mu      sync.Mutex
	nextPID int
	err     error
	procs   []*fakeProcess
	prompts []string
	// onLaunch runs after a process is handed out.
	onLaunch func()
}

func (l *fakeLauncher) Launch(name models.AgentName, prompt, workDir string) (agent.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return nil, l.err
	}
	l.nextPID++
	p := &fakeProcess{pid: 90000 + l.nextPID, done: make(chan error, 1), waited: make(chan struct{})}
	l.procs = append(l.procs, p)
	if l.onLaunch != nil {
		l.onLaunch()
	}
	return p, nil
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[len(l.procs)-1]
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

// fakeBacklog is an in-memory tracker.
type fakeBacklog struct {
	items      []models.WorkItem
	fetchErr   error
	createErr  error
	canCreate  bool
	boards     []models.BoardInfo
	filter     string
	inProgress []string
	done       []string
}

func (b *fakeBacklog) Fetch(ctx context.Context) ([]models.WorkItem, error) {
	return append([]models.WorkItem(nil), b.items...), b.fetchErr
}

func (b *fakeBacklog) Create(ctx context.Context, title, description string) (*models.WorkItem, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	if !b.canCreate {
		return nil, nil
	}
	return &models.WorkItem{ID: "NEW-1", SourceID: "src-new", Title: title, Source: "Fake"}, nil
}

func (b *fakeBacklog) MoveToInProgress(ctx context.Context, item models.WorkItem) error {
	b.inProgress = append(b.inProgress, item.ID)
	return nil
}

func (b *fakeBacklog) MoveToDone(ctx context.Context, item models.WorkItem) error {
	b.done = append(b.done, item.ID)
	return nil
}

func (b *fakeBacklog) ListBoards(ctx context.Context) ([]models.BoardInfo, error) {
	return b.boards, nil
}

func (b *fakeBacklog) SetBoardFilter(source, boardID string) {
	b.filter = source + "/" + boardID
}

// fakeMessenger answers chat requests immediately.
type fakeMessenger struct {
	mu       sync.Mutex
	messages []string
	feedback []string
}

func (m *fakeMessenger) Message(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return "reply to " + text, nil
}

func (m *fakeMessenger) ApplyFeedback(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, text)
	return "", errors.New("feedback failed")
}

// fakeRuns records history calls.
type fakeRuns struct {
	started  []state.Run
	finished map[uint64]state.RunOutcome
}

func (r *fakeRuns) StartRun(run *state.Run) error {
	r.started = append(r.started, *run)
	return nil
}

func (r *fakeRuns) FinishRun(agent models.AgentName, epoch uint64, outcome state.RunOutcome, message string) error {
	if r.finished == nil {
		r.finished = make(map[uint64]state.RunOutcome)
	}
	if _, ok := r.finished[epoch]; !ok {
		r.finished[epoch] = outcome
	}
	return nil
}

func (r *fakeRuns) ListRuns(agent models.AgentName, limit int) ([]state.Run, error) {
	return r.started, nil
}

// harness wires a controller over fakes and a real registry and log.
type harness struct {
	t          *testing.T
	dir        string
	registry   *state.Registry
	activity   *activity.Log
	worktrees  *fakeWorktrees
	launcher   *fakeLauncher
	backlog    *fakeBacklog
	messenger  *fakeMessenger
	runs       *fakeRuns
	queue      *ActionQueue
	controller *Controller
	terminated []int
}

func newHarness(t *testing.T, items ...models.WorkItem) *harness {
	t.Helper()
	return newHarnessIn(t, t.TempDir(), items...)
}

// newHarnessIn builds a harness over an existing data directory.
func newHarnessIn(t *testing.T, dir string, items ...models.WorkItem) *harness {
	t.Helper()
	repo := filepath.Join(dir, "main")

	h := &harness{
		t:         t,
		dir:       dir,
		activity:  activity.New(filepath.Join(dir, "data", activity.FileName)),
		worktrees: &fakeWorktrees{repo: repo},
		launcher:  &fakeLauncher{},
		backlog:   &fakeBacklog{items: items},
		messenger: &fakeMessenger{},
		runs:      &fakeRuns{},
		queue:     NewActionQueue(),
	}
	dead := func(int) bool { return false }
	h.registry = state.OpenRegistry(filepath.Join(dir, "data", state.RegistryFileName), dead)

	dispatcher := NewDispatcher(h.registry, h.worktrees, h.launcher, h.activity, h.queue.Push)
	h.controller = NewController(
		Config{RepoRoot: repo, ProjectDir: dir, MaxRetries: 3},
		h.registry, dispatcher, h.backlog, h.messenger, h.activity, h.queue,
		WithRunStore(h.runs),
		WithProcessProbe(dead),
		WithTerminator(func(pid int) error {
			h.terminated = append(h.terminated, pid)
			return nil
		}),
	)
	h.controller.Start(context.Background())
	return h
}

func (h *harness) registryPath() string {
	return filepath.Join(h.dir, "data", state.RegistryFileName)
}

func (h *harness) handle(a Action) {
	h.controller.Handle(context.Background(), a)
}

// next pops the next queued action, failing after a timeout.
func (h *harness) next() Action {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	a, err := h.queue.Pop(ctx)
	if err != nil {
		h.t.Fatalf("no action queued: %v", err)
	}
	return a
}

func (h *harness) agent(name models.AgentName) models.Agent {
	h.t.Helper()
	a, err := h.registry.Get(name)
	if err != nil {
		h.t.Fatalf("Get(%s): %v", name, err)
	}
	return a
}

func (h *harness) events(name models.AgentName) []string {
	var kinds []string
	for _, e := range h.activity.Read(name, 0) {
		kinds = append(kinds, e.Event)
	}
	return kinds
}

func item(id, title string) models.WorkItem {
	return models.WorkItem{ID: id, SourceID: "src-" + id, Title: title, Source: "Fake"}
}
