package tui

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/pkg/models"
)

// detailLimit is how many activity events the detail view loads.
const detailLimit = 200

// renderDetail shows one agent's state and its recent activity, newest last.
func renderDetail(a models.Agent, events []activity.Event, scroll, width, height int) string {
	var b strings.Builder
	p := models.PersonalityOf(a.Name)
	b.WriteString(titleStyle.Render(a.Name.Emoji() + " " + a.Name.DisplayName()))
	b.WriteString("  " + statusBadge(a.Status))
	if p.Tagline != "" {
		b.WriteString("  " + hintStyle.Render(p.Tagline))
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label)) + valueStyle.Render(truncate(value, width-13)) + "\n")
	}
	if a.WorkItemID != "" {
		field("Item", a.WorkItemID+" "+a.WorkItemTitle)
	}
	field("Branch", a.Branch)
	field("Worktree", a.WorktreePath)
	if a.PID != 0 {
		field("PID", fmt.Sprint(a.PID))
	}
	if a.Status == models.AgentStatusError {
		b.WriteString(errorStyle.Render(truncate(a.Error, width-4)) + "\n")
	}
	b.WriteString("\n")

	header := strings.Count(b.String(), "\n")
	rows := height - header - 2
	if rows < 1 {
		rows = 1
	}

	if len(events) == 0 {
		b.WriteString(hintStyle.Render("No activity yet."))
		return frame(b.String(), true, width, height)
	}

	end := len(events) - scroll
	if end < 1 {
		end = 1
	}
	start := end - rows
	if start < 0 {
		start = 0
	}
	for _, e := range events[start:end] {
		b.WriteString(eventLine(e, width-4))
		b.WriteString("\n")
	}
	return frame(strings.TrimRight(b.String(), "\n"), true, width, height)
}

func eventLine(e activity.Event, width int) string {
	ts := labelStyle.Render(e.Timestamp.Local().Format("01-02 15:04:05") + " ")
	kind := fmt.Sprintf("%-12s", e.Event)
	switch e.Event {
	case activity.KindError, activity.KindMaxRetries:
		kind = errorStyle.Render(kind)
	case activity.KindDone:
		kind = statusStyle(models.AgentStatusDone).Render(kind)
	default:
		kind = valueStyle.Render(kind)
	}
	text := e.Message
	if e.WorkItemID != "" {
		text = strings.TrimSpace(e.WorkItemID + " " + text)
	}
	return ts + kind + " " + truncate(text, width-28)
}
