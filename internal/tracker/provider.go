// Package tracker fetches work items from issue trackers and reports
// progress back to them.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShayCichocki/work/pkg/models"
)

// Source names, as stored in WorkItem.Source and BoardInfo.Source.
const (
	SourceLinear = "Linear"
	SourceTrello = "Trello"
	SourceJira   = "Jira"
	SourceGitHub = "GitHub"
	SourceLocal  = "Local"
)

// maxDescription is the number of characters of a description kept.
const maxDescription = 500

// ErrBoardRequired is returned by operations that need a board filter.
var ErrBoardRequired = errors.New("no board selected")

// Provider is one issue tracker.
type Provider interface {
	// Name returns the source name used to route items back to it.
	Name() string
	// FetchItems returns the open items assigned to the user.
	FetchItems(ctx context.Context) ([]models.WorkItem, error)
	// CreateItem creates an item. It returns nil, nil when the provider
	// cannot create items.
	CreateItem(ctx context.Context, title, description string) (*models.WorkItem, error)
	MoveToInProgress(ctx context.Context, sourceID string) error
	MoveToDone(ctx context.Context, sourceID string) error
	ListBoards(ctx context.Context) ([]models.BoardInfo, error)
	// SetBoardFilter restricts FetchItems to one board.
	SetBoardFilter(boardID string)
}

// Unsupported provides no-op defaults for optional Provider operations.
// Embed it and override what the tracker supports.
type Unsupported struct{}

// CreateItem reports that creation is unsupported.
func (Unsupported) CreateItem(ctx context.Context, title, description string) (*models.WorkItem, error) {
	return nil, nil
}

// MoveToInProgress does nothing.
func (Unsupported) MoveToInProgress(ctx context.Context, sourceID string) error { return nil }

// MoveToDone does nothing.
func (Unsupported) MoveToDone(ctx context.Context, sourceID string) error { return nil }

// ListBoards returns no boards.
func (Unsupported) ListBoards(ctx context.Context) ([]models.BoardInfo, error) { return nil, nil }

// SetBoardFilter ignores the filter.
func (Unsupported) SetBoardFilter(boardID string) {}

// ProviderError wraps a failure from one tracker.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
