package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/work/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("39"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("236"))

	autoBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("34")).
			Padding(0, 1)

	manualBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("244")).
			Padding(0, 1)
)

// statusStyle returns the color for an agent status.
func statusStyle(s models.AgentStatus) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch s {
	case models.AgentStatusWorking:
		return style.Foreground(lipgloss.Color("34")) // Green
	case models.AgentStatusDone:
		return style.Foreground(lipgloss.Color("28")) // Dark green
	case models.AgentStatusError:
		return style.Foreground(lipgloss.Color("196")) // Red
	case models.AgentStatusProvisioning:
		return style.Foreground(lipgloss.Color("214")) // Orange
	default:
		return style.Foreground(lipgloss.Color("244")) // Gray
	}
}

// statusIcon returns the glyph shown before a status label.
func statusIcon(s models.AgentStatus) string {
	switch s {
	case models.AgentStatusWorking:
		return "●"
	case models.AgentStatusDone:
		return "✓"
	case models.AgentStatusError:
		return "✗"
	case models.AgentStatusProvisioning:
		return "◐"
	default:
		return "○"
	}
}

// statusBadge renders "● working" in the status color.
func statusBadge(s models.AgentStatus) string {
	return statusStyle(s).Render(statusIcon(s) + " " + string(s))
}

// truncate shortens s to width runes, ending with an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
