package tui

// PanelDimensions holds calculated dimensions for each panel in the layout.
type PanelDimensions struct {
	// ItemsWidth is the width of the items panel (left).
	ItemsWidth int
	// AgentsWidth is the width of the agents panel (right).
	AgentsWidth int
	// ContentHeight is the height of the items and agents panels.
	ContentHeight int
	// ChatHeight is the number of chat lines shown under the panels.
	ChatHeight int
}

// LayoutManager calculates panel dimensions based on terminal size.
type LayoutManager struct {
	totalWidth  int
	totalHeight int
	// headerHeight and footerHeight are single lines; inputHeight is the
	// bordered input box.
	headerHeight int
	footerHeight int
	inputHeight  int
}

// NewLayoutManager creates a new LayoutManager with the given terminal dimensions.
func NewLayoutManager(width, height int) *LayoutManager {
	return &LayoutManager{
		totalWidth:   width,
		totalHeight:  height,
		headerHeight: 1,
		footerHeight: 1,
		inputHeight:  3,
	}
}

// SetSize updates the terminal dimensions.
func (l *LayoutManager) SetSize(width, height int) {
	l.totalWidth = width
	l.totalHeight = height
}

// TotalWidth returns the current terminal width.
func (l *LayoutManager) TotalWidth() int {
	return l.totalWidth
}

// Calculate returns the panel dimensions for the main view.
// Layout: items 55%, agents 45%; chat takes a quarter of the remaining height.
func (l *LayoutManager) Calculate() PanelDimensions {
	const (
		minItemsWidth = 30
		minChatHeight = 3
		maxChatHeight = 10
	)

	itemsWidth := l.totalWidth * 55 / 100
	if itemsWidth < minItemsWidth {
		itemsWidth = minItemsWidth
	}
	agentsWidth := l.totalWidth - itemsWidth
	if agentsWidth < 0 {
		agentsWidth = 0
	}

	available := l.totalHeight - l.headerHeight - l.footerHeight - l.inputHeight
	chatHeight := available / 4
	if chatHeight < minChatHeight {
		chatHeight = minChatHeight
	}
	if chatHeight > maxChatHeight {
		chatHeight = maxChatHeight
	}
	contentHeight := available - chatHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	return PanelDimensions{
		ItemsWidth:    itemsWidth,
		AgentsWidth:   agentsWidth,
		ContentHeight: contentHeight,
		ChatHeight:    chatHeight,
	}
}

// FullHeight returns the height available to a full-screen view.
func (l *LayoutManager) FullHeight() int {
	h := l.totalHeight - l.headerHeight - l.footerHeight
	if h < 1 {
		return 1
	}
	return h
}
