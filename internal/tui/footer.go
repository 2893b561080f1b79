package tui

// renderFooter shows the flash message, or key hints for the current view.
func renderFooter(flash string, v view, typing bool) string {
	if flash != "" {
		return valueStyle.Render(flash)
	}
	return hintStyle.Render(keyHints(v, typing))
}

func keyHints(v view, typing bool) string {
	sep := " │ "
	if typing {
		return "enter send" + sep + "@name msg chats" + sep + "esc cancel"
	}
	switch v {
	case viewDetail:
		return "↑/↓ scroll" + sep + "c clear agent" + sep + "L clear logs" + sep + "esc back"
	case viewBoards:
		return "↑/↓ select" + sep + "enter choose" + sep + "esc skip"
	default:
		return "tab panels" + sep + "d dispatch" + sep + "c clear" + sep + "enter details" +
			sep + "a auto" + sep + "r refresh" + sep + "b boards" + sep + "i input" + sep + "q quit"
	}
}
