package tui

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/work/internal/orchestrator"
)

// renderItems draws the backlog with the agent holding each item.
func renderItems(s orchestrator.Snapshot, cursor int, focused bool, width, height int) string {
	var b strings.Builder
	header := fmt.Sprintf("Items (%d)", len(s.Items))
	if s.Loading {
		header += " " + hintStyle.Render("loading…")
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	inner := width - 4
	rows := height - 3
	if len(s.Items) == 0 {
		if !s.Loading {
			b.WriteString(hintStyle.Render("No work items. Type a title to create one."))
		}
		return frame(b.String(), focused, width, height)
	}

	start := scrollStart(cursor, len(s.Items), rows)
	for i := start; i < len(s.Items) && i < start+rows; i++ {
		item := s.Items[i]
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}

		owner := ""
		if name, ok := s.AssignedAgent(item.ID); ok {
			owner = " [" + name.DisplayName() + "]"
		}
		id := item.ID
		titleWidth := inner - len([]rune(marker)) - len([]rune(id)) - 1 - len([]rune(owner))
		line := marker + id + " " + truncate(item.Title, titleWidth)

		if i == cursor && focused {
			line = selectedStyle.Render(line)
		} else {
			line = valueStyle.Render(line)
		}
		if owner != "" {
			line += statusStyle(agentStatus(s, item.ID)).Render(owner)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return frame(strings.TrimRight(b.String(), "\n"), focused, width, height)
}

// scrollStart returns the first visible row so that cursor stays in view.
func scrollStart(cursor, total, rows int) int {
	if rows <= 0 || total <= rows {
		return 0
	}
	start := cursor - rows + 1
	if start < 0 {
		start = 0
	}
	if start > total-rows {
		start = total - rows
	}
	return start
}

func frame(content string, focused bool, width, height int) string {
	style := panelStyle
	if focused {
		style = focusedPanelStyle
	}
	return style.Width(max(width-2, 1)).Height(max(height-2, 1)).Render(content)
}
