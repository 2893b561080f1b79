package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/agent"
	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

// DefaultMaxRetries is how many times an errored agent is redispatched
// before its item is abandoned, used when Config.MaxRetries is negative.
const DefaultMaxRetries = 3

// DefaultTickInterval is the period between Tick actions.
const DefaultTickInterval = 2 * time.Second

// maxChatMessages bounds the chat history kept in memory.
const maxChatMessages = 200

// Backlog is the controller's view of the trackers.
type Backlog interface {
	// Fetch returns every item; on partial failure it returns the items it
	// could fetch together with an error naming the failing trackers.
	Fetch(ctx context.Context) ([]models.WorkItem, error)
	// Create adds an item. A nil item with a nil error means no tracker
	// supports creation.
	Create(ctx context.Context, title, description string) (*models.WorkItem, error)
	MoveToInProgress(ctx context.Context, item models.WorkItem) error
	MoveToDone(ctx context.Context, item models.WorkItem) error
	ListBoards(ctx context.Context) ([]models.BoardInfo, error)
	SetBoardFilter(source, boardID string)
}

// Config holds controller settings.
type Config struct {
	// RepoRoot is the main checkout; chat with an unassigned agent runs here.
	RepoRoot string
	// ProjectDir keys the board mapping.
	ProjectDir   string
	// MaxRetries bounds redispatches of an errored agent. Zero disables
	// retries.
	MaxRetries   int
	TickInterval time.Duration
	AutoMode     bool
}

// Controller is the single owner of agent state. All mutation happens in
// Handle, which Run calls for one action at a time.
type Controller struct {
	cfg        Config
	registry   *state.Registry
	dispatcher *Dispatcher
	backlog    Backlog
	messenger  agent.Messenger
	activity   *activity.Log
	queue      *ActionQueue

	runs      state.RunStore
	boards    state.BoardStore
	observer  func(Snapshot)
	terminate func(pid int) error
	alive     state.ProcessProbe
	logger    *DebugLogger
	now       func() time.Time

	// Owned by the controller goroutine.
	items      []models.WorkItem
	dispatched map[string]struct{}
	monitored  map[int]struct{}
	boardList  []models.BoardInfo
	chat       []models.ChatMessage
	flash      string
	flashAt    time.Time
	autoMode   bool
	loading    bool
	needsBoard bool
	waiting    bool
	quit       bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRunStore records every dispatch attempt.
func WithRunStore(s state.RunStore) Option {
	return func(c *Controller) { c.runs = s }
}

// WithBoardStore persists the project's board choice.
func WithBoardStore(s state.BoardStore) Option {
	return func(c *Controller) { c.boards = s }
}

// WithObserver receives a Snapshot after every action.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithTerminator replaces the function used to stop engine processes.
func WithTerminator(fn func(pid int) error) Option {
	return func(c *Controller) { c.terminate = fn }
}

// WithProcessProbe replaces the liveness check for pids this process is
// not monitoring.
func WithProcessProbe(fn state.ProcessProbe) Option {
	return func(c *Controller) { c.alive = fn }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController wires a controller. The queue is shared with the
// dispatcher's monitors and with the UI.
func NewController(cfg Config, registry *state.Registry, dispatcher *Dispatcher, backlog Backlog, messenger agent.Messenger, activityLog *activity.Log, queue *ActionQueue, opts ...Option) *Controller {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}

	c := &Controller{
		cfg:        cfg,
		registry:   registry,
		dispatcher: dispatcher,
		backlog:    backlog,
		messenger:  messenger,
		activity:   activityLog,
		queue:      queue,
		terminate:  agent.Terminate,
		alive:      state.IsProcessAlive,
		logger:     NopLogger(),
		now:        time.Now,
		dispatched: make(map[string]struct{}),
		monitored:  make(map[int]struct{}),
		autoMode:   cfg.AutoMode,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Pids with a monitor in this process are alive until their
	// ProcessExited is handled.
	registry.SetProbe(func(pid int) bool {
		if _, ok := c.monitored[pid]; ok {
			return true
		}
		return c.alive(pid)
	})
	dispatcher.SetLogger(c.logger)
	dispatcher.terminate = c.terminate
	return c
}

// Run processes actions until ctx is cancelled, the queue is closed, or a
// Quit action is handled.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.tickLoop(ctx)

	c.Start(ctx)
	c.publish()

	for {
		action, err := c.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.Handle(ctx, action)
		c.publish()
		if c.quit {
			return nil
		}
	}
}

func (c *Controller) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.queue.Push(Tick{})
		}
	}
}

// Start records agents found dead when the registry was opened, applies the
// saved board mapping and loads the backlog, or asks for a board when the
// project has none.
func (c *Controller) Start(ctx context.Context) {
	RecordStale(c.registry, c.activity, c.runs, c.registry.TakeStale())

	if c.boards == nil {
		c.refresh(ctx)
		return
	}

	mapping, err := c.boards.GetBoardMapping(c.cfg.ProjectDir)
	switch {
	case err == nil:
		c.backlog.SetBoardFilter(mapping.Source, mapping.BoardID)
		c.refresh(ctx)
	case errors.Is(err, state.ErrNoBoardMapping):
		c.needsBoard = true
		c.loadBoards(ctx)
	default:
		log.Printf("[controller] board mapping: %v", err)
		c.refresh(ctx)
	}
}

// Handle applies one action.
func (c *Controller) Handle(ctx context.Context, action Action) {
	c.logger.Log("[controller] %s", action.actionName())

	switch a := action.(type) {
	case Tick:
		c.tick(ctx)
	case Refresh:
		c.refresh(ctx)
	case DispatchSelected:
		c.dispatchSelected(ctx, a.ItemID)
	case ClearAgent:
		c.clearAgent(a.Agent)
	case ProcessExited:
		c.processExited(ctx, a)
	case ToggleAutoMode:
		c.toggleAutoMode()
	case SubmitInput:
		c.submitInput(ctx, a.Text)
	case SendMessage:
		c.sendMessage(ctx, a.Agent, a.Text)
	case AgentResponse:
		c.agentResponse(a)
	case CreateItem:
		c.createItem(ctx, a.Title, a.Description)
	case ClearActivity:
		c.clearActivity(a.Agent)
	case LoadBoards:
		c.loadBoards(ctx)
	case SelectBoard:
		c.selectBoard(ctx, a.Board)
	case Quit:
		c.quit = true
	default:
		log.Printf("[controller] unhandled action %T", action)
	}
}

// Snapshot returns the current state. Only safe on the controller
// goroutine or when Run is not running.
func (c *Controller) Snapshot() Snapshot {
	return c.snapshot()
}

func (c *Controller) publish() {
	if c.observer != nil {
		c.observer(c.snapshot())
	}
}

func (c *Controller) setFlash(format string, args ...interface{}) {
	c.flash = fmt.Sprintf(format, args...)
	c.flashAt = c.now()
}

func (c *Controller) addChat(m models.ChatMessage) {
	c.chat = append(c.chat, m)
	if n := len(c.chat); n > maxChatMessages {
		c.chat = append([]models.ChatMessage(nil), c.chat[n-maxChatMessages:]...)
	}
}

// tick reconciles the registry, releases finished agents and, in auto
// mode, retries failures and fills idle agents.
func (c *Controller) tick(ctx context.Context) {
	RecordStale(c.registry, c.activity, c.runs, c.registry.Reload())

	for _, a := range c.registry.GetAll() {
		if a.Status == models.AgentStatusDone {
			c.activity.Record(a.Name, activity.KindReleased, "", "", "")
			c.release(a.Name)
		}
	}

	if !c.autoMode {
		return
	}
	c.retryErrored(ctx)
	c.autoDispatch(ctx)
}

func (c *Controller) retryErrored(ctx context.Context) {
	for _, a := range c.registry.GetAll() {
		if a.Status != models.AgentStatusError {
			continue
		}

		count, err := c.registry.IncrementRetry(a.Name)
		if err != nil {
			log.Printf("[controller] increment retry %s: %v", a.Name, err)
			continue
		}

		if count > c.cfg.MaxRetries {
			c.activity.Record(a.Name, activity.KindMaxRetries, a.WorkItemID, a.WorkItemTitle, "Max retries reached")
			c.release(a.Name)
			continue
		}

		c.activity.Record(a.Name, activity.KindRetry, a.WorkItemID, a.WorkItemTitle, fmt.Sprintf("Retry %d/%d", count, c.cfg.MaxRetries))
		item, ok := c.findItem(a.WorkItemID)
		if !ok {
			c.release(a.Name)
			continue
		}
		if err := c.dispatch(ctx, a.Name, item); err != nil {
			log.Printf("[controller] retry %s on %s: %v", a.Name, item.ID, err)
		}
	}
}

// autoDispatch pairs idle agents with undispatched items in backlog order.
func (c *Controller) autoDispatch(ctx context.Context) {
	for {
		name, ok := c.registry.NextFreeAgent()
		if !ok {
			return
		}
		item, ok := c.nextUndispatched()
		if !ok {
			return
		}
		if err := c.dispatch(ctx, name, item); err != nil {
			log.Printf("[controller] auto-dispatch %s to %s: %v", item.ID, name, err)
		}
	}
}

func (c *Controller) nextUndispatched() (models.WorkItem, bool) {
	for _, it := range c.items {
		if _, taken := c.dispatched[it.ID]; !taken {
			return it, true
		}
	}
	return models.WorkItem{}, false
}

func (c *Controller) findItem(id string) (models.WorkItem, bool) {
	if id == "" {
		return models.WorkItem{}, false
	}
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.WorkItem{}, false
}

// dispatch claims the item, runs the dispatcher and records the attempt.
func (c *Controller) dispatch(ctx context.Context, name models.AgentName, item models.WorkItem) error {
	c.dispatched[item.ID] = struct{}{}

	assignment, err := c.dispatcher.Dispatch(name, item)
	c.startRun(name, item, err)
	if err != nil {
		return err
	}

	c.monitored[assignment.PID] = struct{}{}
	if err := c.backlog.MoveToInProgress(ctx, item); err != nil {
		c.setFlash("Failed to move %s to in-progress: %v", item.ID, err)
	}
	return nil
}

func (c *Controller) dispatchSelected(ctx context.Context, itemID string) {
	item, ok := c.findItem(itemID)
	if !ok {
		c.setFlash("Dispatch failed: %v %q", ErrUnknownItem, itemID)
		return
	}
	if holder, ok := c.claimedBy(item.ID); ok {
		c.setFlash("%s is already assigned to %s", item.ID, holder.DisplayName())
		return
	}

	name, ok := c.registry.NextFreeAgent()
	if !ok {
		c.setFlash("All agents busy")
		return
	}

	if err := c.dispatch(ctx, name, item); err != nil {
		c.setFlash("Dispatch failed: %v", err)
		return
	}
	c.setFlash("%s dispatched to %s", item.ID, name.DisplayName())
}

// AssignedAgent returns the agent currently holding itemID.
func (c *Controller) AssignedAgent(itemID string) (models.AgentName, bool) {
	for _, a := range c.registry.GetAll() {
		if a.WorkItemID == itemID && holdsItem(a.Status) {
			return a.Name, true
		}
	}
	return "", false
}

// claimedBy returns the agent that owns itemID for dispatch purposes. An
// errored agent keeps its item because the next auto-mode tick retries it.
func (c *Controller) claimedBy(itemID string) (models.AgentName, bool) {
	if name, ok := c.AssignedAgent(itemID); ok {
		return name, true
	}
	for _, a := range c.registry.GetAll() {
		if a.WorkItemID == itemID && a.Status == models.AgentStatusError {
			return a.Name, true
		}
	}
	return "", false
}

// clearAgent stops the agent's engine, releases it and frees its item.
func (c *Controller) clearAgent(name models.AgentName) {
	a, err := c.registry.Get(name)
	if err != nil {
		c.setFlash("%v", err)
		return
	}
	if a.Status == models.AgentStatusIdle {
		c.setFlash("%s is already idle", name.DisplayName())
		return
	}

	if a.PID != 0 {
		if err := c.terminate(a.PID); err != nil {
			log.Printf("[controller] terminate %s pid %d: %v", name, a.PID, err)
		}
	}

	delete(c.dispatched, a.WorkItemID)
	c.release(name)
	c.activity.Record(name, activity.KindCleared, a.WorkItemID, a.WorkItemTitle, "Agent cleared by user")
	c.finishRun(name, a.Epoch, state.RunCleared, "Agent cleared by user")
	c.setFlash("%s cleared", name.DisplayName())
}

// processExited applies a monitor's result if it still belongs to the
// agent's current assignment.
func (c *Controller) processExited(ctx context.Context, e ProcessExited) {
	delete(c.monitored, e.PID)

	a, err := c.registry.Get(e.Agent)
	if err != nil {
		log.Printf("[controller] exit from %s: %v", e.Agent, err)
		return
	}
	if a.Epoch != e.Epoch || a.Status != models.AgentStatusWorking {
		c.logger.Log("[controller] dropping stale exit for %s (epoch %d, current %d, status %s)", e.Agent, e.Epoch, a.Epoch, a.Status)
		return
	}

	if !e.Success {
		msg := e.Detail
		if msg == "" {
			msg = "Process failed"
		}
		if err := c.registry.MarkError(e.Agent, msg); err != nil {
			log.Printf("[controller] mark %s error: %v", e.Agent, err)
		}
		c.finishRun(e.Agent, e.Epoch, state.RunFailed, msg)
		return
	}

	if item, ok := c.findItem(a.WorkItemID); ok {
		if err := c.backlog.MoveToDone(ctx, item); err != nil {
			c.setFlash("Failed to move %s to done: %v", item.ID, err)
		} else if item.SourceID != "" {
			c.setFlash("%s moved to done", item.ID)
		}
	}
	if err := c.registry.MarkDone(e.Agent); err != nil {
		log.Printf("[controller] mark %s done: %v", e.Agent, err)
	}
	c.finishRun(e.Agent, e.Epoch, state.RunSucceeded, "")
}

func (c *Controller) release(name models.AgentName) {
	if err := c.registry.Release(name); err != nil {
		log.Printf("[controller] release %s: %v", name, err)
	}
}

func (c *Controller) toggleAutoMode() {
	c.autoMode = !c.autoMode
	mode := "MANUAL"
	if c.autoMode {
		mode = "AUTO"
	}
	c.setFlash("Mode: %s", mode)
	c.activity.Record(models.AllAgents[0], activity.KindModeChange, "", "", fmt.Sprintf("Switched to %s mode", mode))
}

// refresh replaces the backlog with whatever the trackers return. Items
// from healthy trackers are kept when others fail.
func (c *Controller) refresh(ctx context.Context) {
	c.loading = true
	c.needsBoard = false
	c.publish()

	items, err := c.backlog.Fetch(ctx)
	c.loading = false
	if err != nil {
		c.setFlash("Fetch error: %v", err)
	}
	c.items = items
}

func (c *Controller) loadBoards(ctx context.Context) {
	c.loading = true
	c.publish()

	boards, err := c.backlog.ListBoards(ctx)
	c.loading = false
	if err != nil {
		c.setFlash("Fetch error: %v", err)
	}
	c.boardList = boards
}

func (c *Controller) selectBoard(ctx context.Context, board models.BoardInfo) {
	if c.boards != nil {
		if err := c.boards.SetBoardMapping(c.cfg.ProjectDir, board); err != nil {
			c.setFlash("Failed to save mapping: %v", err)
			return
		}
	}
	c.backlog.SetBoardFilter(board.Source, board.ID)
	c.refresh(ctx)
	c.setFlash("Board: %s", board.Name)
}

func (c *Controller) clearActivity(name models.AgentName) {
	if err := c.activity.Clear(name); err != nil {
		c.setFlash("Failed to clear logs: %v", err)
		return
	}
	c.activity.Record(name, activity.KindLogsCleared, "", "", "Activity log cleared")
	c.setFlash("Cleared logs for %s", name.DisplayName())
}

// submitInput routes "@agent text" to chat and anything else to item
// creation.
func (c *Controller) submitInput(ctx context.Context, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	if !strings.HasPrefix(input, "@") {
		c.createItem(ctx, input, "")
		return
	}

	name, text, ok := ParseMention(input)
	if !ok {
		c.addChat(models.SystemMessage("Unknown agent. Use @ember, @flow, @tempest, or @terra"))
		return
	}
	c.sendMessage(ctx, name, text)
}

// ParseMention splits "@agent message" into the agent and the message.
func ParseMention(input string) (models.AgentName, string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(input), "@")
	if !ok {
		return "", "", false
	}
	word, text, _ := strings.Cut(rest, " ")
	name, err := models.ParseAgentName(word)
	if err != nil {
		return "", "", false
	}
	return name, strings.TrimSpace(text), true
}

// sendMessage starts a chat request off the controller goroutine. Done and
// errored agents receive it as feedback they may act on in their worktree.
func (c *Controller) sendMessage(ctx context.Context, name models.AgentName, text string) {
	if text == "" {
		c.addChat(models.SystemMessage(fmt.Sprintf("Send a message: @%s <your message>", name)))
		return
	}
	if c.messenger == nil {
		c.addChat(models.SystemMessage("Chat is not configured"))
		return
	}

	a, err := c.registry.Get(name)
	if err != nil {
		c.addChat(models.SystemMessage(err.Error()))
		return
	}

	c.addChat(models.UserMessage(fmt.Sprintf("@%s %s", name, text)))
	c.activity.Record(name, activity.KindUserMessage, a.WorkItemID, a.WorkItemTitle, text)

	workDir := a.WorktreePath
	if workDir == "" {
		workDir = c.cfg.RepoRoot
	}
	taskContext := agent.TaskContext(a)

	feedback := a.Status == models.AgentStatusDone || a.Status == models.AgentStatusError
	if a.Status == models.AgentStatusWorking {
		c.addChat(models.SystemMessage(fmt.Sprintf("%s is currently working. Replying without touching the worktree.", name.DisplayName())))
	}

	c.waiting = true
	messenger := c.messenger
	queue := c.queue
	go func() {
		var reply string
		var err error
		if feedback {
			if taskContext == "" {
				taskContext = "No specific task"
			}
			reply, err = messenger.ApplyFeedback(ctx, name, text, workDir, taskContext)
		} else {
			reply, err = messenger.Message(ctx, name, text, workDir, taskContext)
		}
		queue.Push(AgentResponse{Agent: name, Text: reply, Err: err})
	}()
}

func (c *Controller) agentResponse(r AgentResponse) {
	c.waiting = false
	if r.Err != nil {
		c.addChat(models.SystemMessage(fmt.Sprintf("%s error: %v", r.Agent.DisplayName(), r.Err)))
		return
	}
	c.addChat(models.AgentMessage(r.Agent, r.Text))
}

// createItem adds a work item through the trackers, falling back to a
// local item when none can create it.
func (c *Controller) createItem(ctx context.Context, title, description string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	c.addChat(models.UserMessage("New task: " + title))

	item, err := c.backlog.Create(ctx, title, description)
	if err != nil {
		c.addChat(models.SystemMessage(fmt.Sprintf("Failed to create task: %v", err)))
	}
	if item == nil {
		local := c.localItem(title, description)
		item = &local
	}

	c.addChat(models.SystemMessage("Task created: " + item.Title))
	c.items = append(c.items, *item)
	if !c.autoMode {
		c.setFlash("New task added, press d to dispatch")
	}
}

func (c *Controller) localItem(title, description string) models.WorkItem {
	n := len(c.items) + 1
	for {
		id := fmt.Sprintf("LOCAL-%d", n)
		if _, exists := c.findItem(id); !exists {
			return models.WorkItem{
				ID:          id,
				Title:       title,
				Description: description,
				Status:      "Todo",
				Source:      "Local",
			}
		}
		n++
	}
}

func (c *Controller) startRun(name models.AgentName, item models.WorkItem, dispatchErr error) {
	if c.runs == nil {
		return
	}
	a, err := c.registry.Get(name)
	if err != nil || a.WorkItemID != item.ID {
		return
	}

	r := &state.Run{
		Agent:         name,
		Epoch:         a.Epoch,
		WorkItemID:    item.ID,
		WorkItemTitle: item.Title,
		Branch:        a.Branch,
		Attempt:       a.RetryCount + 1,
	}
	if a.StartedAt != nil {
		r.StartedAt = *a.StartedAt
	}
	if dispatchErr != nil {
		finished := c.now().UTC()
		r.FinishedAt = &finished
		r.Outcome = state.RunDispatchFailed
		r.Message = dispatchErr.Error()
	}
	if err := c.runs.StartRun(r); err != nil {
		log.Printf("[controller] record run: %v", err)
	}
}

func (c *Controller) finishRun(name models.AgentName, epoch uint64, outcome state.RunOutcome, message string) {
	if c.runs == nil {
		return
	}
	if err := c.runs.FinishRun(name, epoch, outcome, message); err != nil {
		log.Printf("[controller] finish run: %v", err)
	}
}
