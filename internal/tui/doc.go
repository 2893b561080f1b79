// Package tui is the interactive dashboard for the agent pool.
//
// The dashboard never touches orchestrator state. Every key press that
// changes something becomes an orchestrator.Action pushed onto the queue,
// and the screen is redrawn from the Snapshot the controller publishes
// after each action.
//
// Usage:
//
//	program, _ := tui.NewProgram(queue, activityLog)
//	controller := orchestrator.NewController(...,
//	    orchestrator.WithObserver(tui.Observer(program)))
//	go controller.Run(ctx)
//	_, err := program.Run()
//
// Keys: tab switches between the items and agents panels, d dispatches the
// selected item, c clears the selected agent, enter opens the agent's
// activity, a toggles auto mode, r refreshes, b picks a board, L clears the
// selected agent's activity log, i (or @) opens the input line and q quits.
package tui
