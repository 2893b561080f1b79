package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

// DefaultTrelloBaseURL is the Trello REST API.
const DefaultTrelloBaseURL = "https://api.trello.com/1"

// Lists whose cards are not offered as work, compared case-insensitively.
var trelloExcludedLists = []string{"done", "in review"}

// Lists cards are moved to when work starts.
var trelloInProgressLists = []string{"in progress", "doing"}

// Trello reads cards the user is a member of.
type Trello struct {
	apiKey  string
	token   string
	baseURL string
	client  *http.Client
	boardID string
}

var _ Provider = (*Trello)(nil)

// NewTrello creates a Trello provider. An empty baseURL uses the public API.
func NewTrello(apiKey, token, baseURL string) *Trello {
	if baseURL == "" {
		baseURL = DefaultTrelloBaseURL
	}
	return &Trello{
		apiKey:  apiKey,
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

// Name returns "Trello".
func (t *Trello) Name() string { return SourceTrello }

// SetBoardFilter restricts items to one board.
func (t *Trello) SetBoardFilter(boardID string) { t.boardID = boardID }

type trelloNamed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloCard struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	ShortURL string `json:"shortUrl"`
	IDList   string `json:"idList"`
	IDBoard  string `json:"idBoard"`
	Labels   []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// url builds an authenticated request URL.
func (t *Trello) url(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", t.apiKey)
	params.Set("token", t.token)
	return t.baseURL + path + "?" + params.Encode()
}

func (t *Trello) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return doJSON(ctx, t.client, http.MethodGet, t.url(path, params), nil, nil, out)
}

func (t *Trello) memberID(ctx context.Context) (string, error) {
	var me trelloNamed
	if err := t.get(ctx, "/members/me", url.Values{"fields": {"id"}}, &me); err != nil {
		return "", fmt.Errorf("members/me: %w", err)
	}
	return me.ID, nil
}

func (t *Trello) boardLists(ctx context.Context, boardID string) ([]trelloNamed, error) {
	var lists []trelloNamed
	if err := t.get(ctx, "/boards/"+boardID+"/lists", url.Values{"fields": {"id,name"}}, &lists); err != nil {
		return nil, fmt.Errorf("board lists: %w", err)
	}
	return lists, nil
}

// FetchItems returns the user's cards outside the done and review lists.
func (t *Trello) FetchItems(ctx context.Context) ([]models.WorkItem, error) {
	member, err := t.memberID(ctx)
	if err != nil {
		return nil, err
	}

	var boards []trelloNamed
	if err := t.get(ctx, "/members/"+member+"/boards", url.Values{"fields": {"id,name"}, "filter": {"open"}}, &boards); err != nil {
		return nil, fmt.Errorf("member boards: %w", err)
	}
	boardNames := make(map[string]string, len(boards))
	for _, b := range boards {
		boardNames[b.ID] = b.Name
	}

	var cards []trelloCard
	if err := t.get(ctx, "/members/"+member+"/cards", url.Values{"fields": {"id,name,desc,shortUrl,idList,labels,idBoard"}}, &cards); err != nil {
		return nil, fmt.Errorf("member cards: %w", err)
	}

	listNames := make(map[string]string)
	seen := make(map[string]bool)
	for _, c := range cards {
		if c.IDBoard == "" || seen[c.IDBoard] {
			continue
		}
		seen[c.IDBoard] = true
		lists, err := t.boardLists(ctx, c.IDBoard)
		if err != nil {
			return nil, err
		}
		for _, l := range lists {
			listNames[l.ID] = l.Name
		}
	}

	items := make([]models.WorkItem, 0, len(cards))
	for _, c := range cards {
		if t.boardID != "" && c.IDBoard != t.boardID {
			continue
		}
		listName := listNames[c.IDList]
		if matchesList(listName, trelloExcludedLists) {
			continue
		}
		item := c.workItem(listName, boardNames[c.IDBoard])
		items = append(items, item)
	}
	return items, nil
}

func (c trelloCard) workItem(listName, boardName string) models.WorkItem {
	item := models.WorkItem{
		ID:       shortID(c.ID),
		SourceID: c.ID,
		Title:    c.Name,
		Status:   listName,
		Labels:   []string{},
		Source:   SourceTrello,
		Team:     boardName,
		URL:      c.ShortURL,
	}
	if strings.TrimSpace(c.Desc) != "" {
		item.Description = truncate(c.Desc, maxDescription)
	}
	for _, l := range c.Labels {
		if l.Name != "" {
			item.Labels = append(item.Labels, l.Name)
		}
	}
	return item
}

// shortID keeps the first eight characters of a card id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func matchesList(name string, candidates []string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, c := range candidates {
		if lower == c {
			return true
		}
	}
	return false
}

// ListBoards returns the user's open boards.
func (t *Trello) ListBoards(ctx context.Context) ([]models.BoardInfo, error) {
	var boards []trelloNamed
	if err := t.get(ctx, "/members/me/boards", url.Values{"fields": {"id,name"}, "filter": {"open"}}, &boards); err != nil {
		return nil, err
	}
	out := make([]models.BoardInfo, 0, len(boards))
	for _, b := range boards {
		out = append(out, models.BoardInfo{ID: b.ID, Name: b.Name, Source: SourceTrello})
	}
	return out, nil
}

// MoveToInProgress moves the card to an "In Progress" or "Doing" list.
func (t *Trello) MoveToInProgress(ctx context.Context, sourceID string) error {
	return t.moveToList(ctx, sourceID, trelloInProgressLists)
}

// MoveToDone moves the card to the "Done" list.
func (t *Trello) MoveToDone(ctx context.Context, sourceID string) error {
	return t.moveToList(ctx, sourceID, []string{"done"})
}

func (t *Trello) moveToList(ctx context.Context, cardID string, names []string) error {
	var card trelloCard
	if err := t.get(ctx, "/cards/"+cardID, url.Values{"fields": {"idBoard"}}, &card); err != nil {
		return fmt.Errorf("card: %w", err)
	}
	lists, err := t.boardLists(ctx, card.IDBoard)
	if err != nil {
		return err
	}
	for _, l := range lists {
		if matchesList(l.Name, names) {
			u := t.url("/cards/"+cardID, url.Values{"idList": {l.ID}})
			return doJSON(ctx, t.client, http.MethodPut, u, nil, nil, nil)
		}
	}
	return fmt.Errorf("no %q list on board %s", names[0], card.IDBoard)
}

// CreateItem adds a card to the first open list of the selected board and
// makes the user a member of it.
func (t *Trello) CreateItem(ctx context.Context, title, description string) (*models.WorkItem, error) {
	if t.boardID == "" {
		return nil, nil
	}
	member, err := t.memberID(ctx)
	if err != nil {
		return nil, err
	}
	lists, err := t.boardLists(ctx, t.boardID)
	if err != nil {
		return nil, err
	}

	var target *trelloNamed
	for i := range lists {
		if !matchesList(lists[i].Name, trelloExcludedLists) {
			target = &lists[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("board %s has no open list", t.boardID)
	}

	params := url.Values{
		"idList":    {target.ID},
		"name":      {title},
		"idMembers": {member},
	}
	if description != "" {
		params.Set("desc", description)
	}
	var card trelloCard
	if err := doJSON(ctx, t.client, http.MethodPost, t.url("/cards", params), nil, nil, &card); err != nil {
		return nil, err
	}

	item := card.workItem(target.Name, "")
	return &item, nil
}
