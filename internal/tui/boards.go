package tui

import (
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

// renderBoards draws the board picker.
func renderBoards(boards []models.BoardInfo, cursor int, loading, required bool, width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select a board"))
	b.WriteString("\n")
	if required {
		b.WriteString(hintStyle.Render("No board is mapped to this project yet."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case loading && len(boards) == 0:
		b.WriteString(hintStyle.Render("Loading boards…"))
	case len(boards) == 0:
		b.WriteString(hintStyle.Render("No boards found. Press esc to continue without one."))
	default:
		rows := height - 6
		start := scrollStart(cursor, len(boards), rows)
		for i := start; i < len(boards) && i < start+rows; i++ {
			board := boards[i]
			line := truncate(board.Name, width-20) + "  " + labelStyle.Render(board.Source)
			if i == cursor {
				b.WriteString(selectedStyle.Render("▸ ") + selectedStyle.Render(truncate(board.Name, width-20)) + "  " + labelStyle.Render(board.Source))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}
	return frame(strings.TrimRight(b.String(), "\n"), true, width, height)
}
