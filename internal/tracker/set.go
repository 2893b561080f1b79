package tracker

import (
	"context"
	"errors"

	"github.com/ShayCichocki/work/internal/config"
	iexec "github.com/ShayCichocki/work/internal/exec"
	"github.com/ShayCichocki/work/pkg/models"
)

// Set aggregates the configured providers and routes item updates back to
// the provider an item came from. It is not safe for concurrent use.
type Set struct {
	providers []Provider
	preferred string
}

// NewSet creates a Set over providers, in the order given.
func NewSet(providers ...Provider) *Set {
	return &Set{providers: providers}
}

// FromConfig builds a Set with every provider that has credentials.
func FromConfig(cfg *config.Config, runner iexec.CommandRunner) *Set {
	var providers []Provider
	if cfg.Linear.Enabled() {
		providers = append(providers, NewLinear(cfg.Linear.APIKey, ""))
	}
	if cfg.Trello.Enabled() {
		providers = append(providers, NewTrello(cfg.Trello.APIKey, cfg.Trello.Token, ""))
	}
	if cfg.Jira.Enabled() {
		providers = append(providers, NewJira(cfg.Jira.Domain, cfg.Jira.Email, cfg.Jira.APIToken, ""))
	}
	if cfg.GitHub.Enabled() {
		providers = append(providers, NewGitHub(cfg.GitHub.Owner, runner))
	}
	return NewSet(providers...)
}

// Providers returns the providers in the set.
func (s *Set) Providers() []Provider {
	return append([]Provider(nil), s.providers...)
}

// Len returns the number of providers.
func (s *Set) Len() int {
	return len(s.providers)
}

func (s *Set) find(source string) Provider {
	for _, p := range s.providers {
		if p.Name() == source {
			return p
		}
	}
	return nil
}

// Fetch returns the items of every provider. Failing providers are
// reported in the joined error; items from the others are still returned.
func (s *Set) Fetch(ctx context.Context) ([]models.WorkItem, error) {
	var items []models.WorkItem
	var errs []error
	for _, p := range s.providers {
		got, err := p.FetchItems(ctx)
		if err != nil {
			errs = append(errs, &ProviderError{Provider: p.Name(), Err: err})
			continue
		}
		items = append(items, got...)
	}
	return items, errors.Join(errs...)
}

// Create tries the provider of the selected board first, then the rest.
// Providers that cannot create are skipped; failures are collected and the
// next provider is tried. A nil item means nothing was created.
func (s *Set) Create(ctx context.Context, title, description string) (*models.WorkItem, error) {
	var errs []error
	for _, p := range s.createOrder() {
		item, err := p.CreateItem(ctx, title, description)
		if err != nil {
			errs = append(errs, &ProviderError{Provider: p.Name(), Err: err})
			continue
		}
		if item != nil {
			return item, errors.Join(errs...)
		}
	}
	return nil, errors.Join(errs...)
}

func (s *Set) createOrder() []Provider {
	first := s.find(s.preferred)
	if first == nil {
		return s.providers
	}
	order := []Provider{first}
	for _, p := range s.providers {
		if p != first {
			order = append(order, p)
		}
	}
	return order
}

// MoveToInProgress tells the item's provider that work started. Items
// without a source id are ignored.
func (s *Set) MoveToInProgress(ctx context.Context, item models.WorkItem) error {
	p := s.find(item.Source)
	if p == nil || item.SourceID == "" {
		return nil
	}
	if err := p.MoveToInProgress(ctx, item.SourceID); err != nil {
		return &ProviderError{Provider: p.Name(), Err: err}
	}
	return nil
}

// MoveToDone tells the item's provider that work finished.
func (s *Set) MoveToDone(ctx context.Context, item models.WorkItem) error {
	p := s.find(item.Source)
	if p == nil || item.SourceID == "" {
		return nil
	}
	if err := p.MoveToDone(ctx, item.SourceID); err != nil {
		return &ProviderError{Provider: p.Name(), Err: err}
	}
	return nil
}

// ListBoards returns the boards of every provider, with failures joined.
func (s *Set) ListBoards(ctx context.Context) ([]models.BoardInfo, error) {
	var boards []models.BoardInfo
	var errs []error
	for _, p := range s.providers {
		got, err := p.ListBoards(ctx)
		if err != nil {
			errs = append(errs, &ProviderError{Provider: p.Name(), Err: err})
			continue
		}
		boards = append(boards, got...)
	}
	return boards, errors.Join(errs...)
}

// SetBoardFilter applies a board to the provider named source, which also
// becomes the first choice for new items.
func (s *Set) SetBoardFilter(source, boardID string) {
	p := s.find(source)
	if p == nil {
		return
	}
	p.SetBoardFilter(boardID)
	s.preferred = source
}
