package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/work/internal/orchestrator"
	"github.com/ShayCichocki/work/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the agent pool",
	Long: `Display every agent with its status, current item and elapsed time.

Agents whose engine process is gone are reported as errored and their run
is closed, the same way the dashboard reconciles them on startup.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	orchestrator.RecordStale(e.registry, e.activity, e.db, e.registry.TakeStale())

	agents := e.registry.GetAll()
	now := time.Now()
	busy := 0
	for _, a := range agents {
		if a.Busy() {
			busy++
		}
	}
	fmt.Printf("Agents: %d of %d busy\n\n", busy, len(agents))

	for _, a := range agents {
		fmt.Println(formatAgentLine(a, now))
		if a.Status == models.AgentStatusError && a.Error != "" {
			fmt.Printf("      %s\n", color.New(color.FgRed).Sprint(a.Error))
		}
		if a.WorktreePath != "" && a.Busy() {
			fmt.Printf("      %s\n", color.New(color.Faint).Sprint(a.WorktreePath))
		}
	}
	return nil
}

// formatAgentLine renders one agent as "  Ember    working   ENG-1 Title (3m05s)".
func formatAgentLine(a models.Agent, now time.Time) string {
	status := statusColor(a.Status).Sprintf("%-12s", a.Status)
	line := fmt.Sprintf("  %-8s %s", a.Name.DisplayName(), status)
	if a.WorkItemID != "" {
		line += fmt.Sprintf(" %s %s", a.WorkItemID, a.WorkItemTitle)
	}
	if a.Busy() && a.StartedAt != nil {
		line += fmt.Sprintf(" (%s)", formatDuration(a.Elapsed(now)))
	}
	if a.RetryCount > 0 {
		line += fmt.Sprintf(" [retry %d]", a.RetryCount)
	}
	return line
}

// statusColor picks the terminal color for an agent status.
func statusColor(s models.AgentStatus) *color.Color {
	switch s {
	case models.AgentStatusWorking:
		return color.New(color.FgGreen)
	case models.AgentStatusDone:
		return color.New(color.FgCyan)
	case models.AgentStatusError:
		return color.New(color.FgRed, color.Bold)
	case models.AgentStatusProvisioning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Faint)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", h, m)
}
