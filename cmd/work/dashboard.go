package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShayCichocki/work/internal/agent"
	"github.com/ShayCichocki/work/internal/orchestrator"
	"github.com/ShayCichocki/work/internal/tui"
)

// runDashboard wires the controller to the TUI and runs until the user quits.
func runDashboard(parent context.Context) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := CheckEngineCLI(e.cfg.Engine.Command); err != nil {
		return err
	}
	if err := e.cfg.RequireProviders(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; only local tasks will be available\n", err)
	}

	logger := orchestrator.NewDebugLoggerForDataDir(e.dataDir)
	defer logger.Close()

	// Log output would corrupt the alternate screen.
	originalOutput := log.Writer()
	log.SetOutput(logger)
	defer log.SetOutput(originalOutput)

	engine := e.engine()
	messenger, err := newMessenger(e.cfg, engine)
	if err != nil {
		log.Printf("[work] %v, falling back to the CLI for chat", err)
		messenger = engine
	}

	queue := orchestrator.NewActionQueue()
	program, _ := tui.NewProgram(queue, e.activity)

	worktrees := agent.NewWorktreeManager(e.repoRoot, e.cfg.Agents.Remote, e.cfg.Agents.BaseBranch)
	dispatcher := orchestrator.NewDispatcher(e.registry, worktrees, engine, e.activity, queue.Push)

	autoMode := e.cfg.Agents.AutoMode || rootAuto
	controller := orchestrator.NewController(
		orchestrator.Config{
			RepoRoot:     e.repoRoot,
			ProjectDir:   e.repoRoot,
			MaxRetries:   e.cfg.Agents.MaxRetries,
			TickInterval: e.cfg.Agents.TickInterval,
			AutoMode:     autoMode,
		},
		e.registry, dispatcher, e.trackers(), messenger, e.activity, queue,
		orchestrator.WithRunStore(e.db),
		orchestrator.WithBoardStore(e.db),
		orchestrator.WithObserver(tui.Observer(program)),
		orchestrator.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(orBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("[work] starting dashboard in %s (data %s, auto=%t)", e.repoRoot, e.dataDir, autoMode)

	controllerDone := make(chan error, 1)
	go func() {
		controllerDone <- controller.Run(ctx)
	}()
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, runErr := program.Run()
	queue.Push(orchestrator.Quit{})
	stop()
	if err := <-controllerDone; err != nil {
		log.Printf("[work] controller stopped: %v", err)
	}
	log.Printf("[work] dashboard closed")
	if runErr != nil {
		return fmt.Errorf("run dashboard: %w", runErr)
	}
	return nil
}
