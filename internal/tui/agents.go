package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/work/internal/orchestrator"
	"github.com/ShayCichocki/work/pkg/models"
)

// agentStatus returns the status of the agent holding itemID.
func agentStatus(s orchestrator.Snapshot, itemID string) models.AgentStatus {
	name, ok := s.AssignedAgent(itemID)
	if !ok {
		return models.AgentStatusIdle
	}
	for _, a := range s.Agents {
		if a.Name == name {
			return a.Status
		}
	}
	return models.AgentStatusIdle
}

// renderAgents draws one block per pool slot.
func renderAgents(s orchestrator.Snapshot, cursor int, focused bool, width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Agents"))
	b.WriteString("\n")

	inner := width - 4
	for i, a := range s.Agents {
		marker := "  "
		name := a.Name.Emoji() + " " + a.Name.DisplayName()
		if i == cursor {
			marker = "▸ "
			if focused {
				name = selectedStyle.Render(name)
			}
		}
		b.WriteString(marker + name + "  " + statusBadge(a.Status))
		if a.RetryCount > 0 {
			b.WriteString(hintStyle.Render(fmt.Sprintf("  retry %d", a.RetryCount)))
		}
		b.WriteString("\n")

		if a.WorkItemID != "" {
			line := fmt.Sprintf("%s %s", a.WorkItemID, a.WorkItemTitle)
			b.WriteString("    " + valueStyle.Render(truncate(line, inner-4)))
			b.WriteString("\n")
		}
		if elapsed := a.Elapsed(s.TakenAt); elapsed > 0 && a.Status != models.AgentStatusIdle {
			b.WriteString("    " + labelStyle.Render(formatElapsed(elapsed)))
			b.WriteString("\n")
		}
		if a.Status == models.AgentStatusError && a.Error != "" {
			b.WriteString("    " + errorStyle.Render(truncate(a.Error, inner-4)))
			b.WriteString("\n")
		}
	}
	return frame(strings.TrimRight(b.String(), "\n"), focused, width, height)
}

// formatElapsed renders a duration as "1h02m", "3m05s" or "12s".
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
