package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/work/pkg/models"
)

var (
	userChatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	agentChatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	systemChatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

// renderChat shows the last height chat lines, oldest first.
func renderChat(chat []models.ChatMessage, waiting bool, width, height int) string {
	lines := make([]string, 0, len(chat)+1)
	for _, m := range chat {
		lines = append(lines, chatLine(m, width))
	}
	if waiting {
		lines = append(lines, systemChatStyle.Render("waiting for reply…"))
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func chatLine(m models.ChatMessage, width int) string {
	ts := labelStyle.Render(m.Timestamp.Format("15:04") + " ")
	switch m.Sender {
	case models.ChatFromUser:
		return ts + userChatStyle.Render("you: ") + truncate(m.Text, width-11)
	case models.ChatFromAgent:
		prefix := m.Agent.DisplayName() + ": "
		return ts + agentChatStyle.Render(prefix) + truncate(m.Text, width-6-len(prefix))
	default:
		return ts + systemChatStyle.Render(truncate(m.Text, width-6))
	}
}
