package models

// WorkItem is a unit of work fetched from or created in a tracker.
// The orchestrator treats it as an immutable value.
type WorkItem struct {
	// ID is the dashboard-local identifier (e.g. "LIN-42", "#17").
	ID string `json:"id"`
	// SourceID is the opaque id used for API calls against the origin system.
	SourceID    string   `json:"source_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels"`
	// Source names the tracker the item came from.
	Source string `json:"source"`
	Team   string `json:"team,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Clone returns a deep copy of the item.
func (w WorkItem) Clone() WorkItem {
	c := w
	if w.Labels != nil {
		c.Labels = append([]string(nil), w.Labels...)
	}
	return c
}

// BoardInfo describes a board, project, or repository a provider can filter by.
type BoardInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
}
