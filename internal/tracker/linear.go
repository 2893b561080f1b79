package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

// DefaultLinearEndpoint is the Linear GraphQL API.
const DefaultLinearEndpoint = "https://api.linear.app/graphql"

// Linear reads issues assigned to the API key's user.
type Linear struct {
	apiKey   string
	endpoint string
	client   *http.Client
	teamID   string
}

var _ Provider = (*Linear)(nil)

// NewLinear creates a Linear provider. An empty endpoint uses the public API.
func NewLinear(apiKey, endpoint string) *Linear {
	if endpoint == "" {
		endpoint = DefaultLinearEndpoint
	}
	return &Linear{apiKey: apiKey, endpoint: endpoint, client: newHTTPClient()}
}

// Name returns "Linear".
func (l *Linear) Name() string { return SourceLinear }

// SetBoardFilter restricts items to one team.
func (l *Linear) SetBoardFilter(boardID string) { l.teamID = boardID }

type linearIssue struct {
	ID          string `json:"id"`
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	URL         string `json:"url"`
	State       *struct {
		Name string `json:"name"`
	} `json:"state"`
	Team *struct {
		Name string `json:"name"`
	} `json:"team"`
	Labels *struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

const linearIssueFields = `id identifier title description priority url
        state { name }
        team { name }
        labels { nodes { name } }`

// query runs a GraphQL request and decodes data into out.
func (l *Linear) query(ctx context.Context, q string, vars map[string]interface{}, out interface{}) error {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	header := http.Header{"Authorization": []string{l.apiKey}}
	body := map[string]interface{}{"query": q}
	if len(vars) > 0 {
		body["variables"] = vars
	}

	if err := doJSON(ctx, l.client, http.MethodPost, l.endpoint, header, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return errors.New("no data in response")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// FetchItems returns assigned issues that are not completed or canceled.
func (l *Linear) FetchItems(ctx context.Context) ([]models.WorkItem, error) {
	filter := `state: { type: { nin: ["completed", "canceled"] } }`
	params := ""
	vars := map[string]interface{}{}
	if l.teamID != "" {
		filter += ` team: { id: { eq: $teamId } }`
		params = "($teamId: ID)"
		vars["teamId"] = l.teamID
	}
	q := fmt.Sprintf(`query%s {
  viewer {
    assignedIssues(filter: { %s }, first: 50) {
      nodes { %s }
    }
  }
}`, params, filter, linearIssueFields)

	var data struct {
		Viewer struct {
			AssignedIssues struct {
				Nodes []linearIssue `json:"nodes"`
			} `json:"assignedIssues"`
		} `json:"viewer"`
	}
	if err := l.query(ctx, q, vars, &data); err != nil {
		return nil, err
	}

	items := make([]models.WorkItem, 0, len(data.Viewer.AssignedIssues.Nodes))
	for _, issue := range data.Viewer.AssignedIssues.Nodes {
		items = append(items, issue.workItem())
	}
	return items, nil
}

func (i linearIssue) workItem() models.WorkItem {
	item := models.WorkItem{
		ID:          i.Identifier,
		SourceID:    i.ID,
		Title:       i.Title,
		Description: truncate(i.Description, maxDescription),
		Priority:    linearPriority(i.Priority),
		Labels:      []string{},
		Source:      SourceLinear,
		URL:         i.URL,
	}
	if i.State != nil {
		item.Status = i.State.Name
	}
	if i.Team != nil {
		item.Team = i.Team.Name
	}
	if i.Labels != nil {
		for _, lbl := range i.Labels.Nodes {
			item.Labels = append(item.Labels, lbl.Name)
		}
	}
	return item
}

// linearPriority maps Linear's numeric priority to a label.
func linearPriority(p int) string {
	switch p {
	case 1:
		return "Urgent"
	case 2:
		return "High"
	case 3:
		return "Medium"
	case 4:
		return "Low"
	default:
		return ""
	}
}

// ListBoards returns the user's teams.
func (l *Linear) ListBoards(ctx context.Context) ([]models.BoardInfo, error) {
	var data struct {
		Teams struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	if err := l.query(ctx, `{ teams { nodes { id name } } }`, nil, &data); err != nil {
		return nil, err
	}

	boards := make([]models.BoardInfo, 0, len(data.Teams.Nodes))
	for _, t := range data.Teams.Nodes {
		boards = append(boards, models.BoardInfo{ID: t.ID, Name: t.Name, Source: SourceLinear})
	}
	return boards, nil
}

// MoveToInProgress moves the issue to its team's first started state.
func (l *Linear) MoveToInProgress(ctx context.Context, sourceID string) error {
	return l.moveToStateType(ctx, sourceID, "started")
}

// MoveToDone moves the issue to its team's first completed state.
func (l *Linear) MoveToDone(ctx context.Context, sourceID string) error {
	return l.moveToStateType(ctx, sourceID, "completed")
}

func (l *Linear) moveToStateType(ctx context.Context, issueID, stateType string) error {
	var data struct {
		Issue struct {
			Team struct {
				States struct {
					Nodes []struct {
						ID       string  `json:"id"`
						Type     string  `json:"type"`
						Position float64 `json:"position"`
					} `json:"nodes"`
				} `json:"states"`
			} `json:"team"`
		} `json:"issue"`
	}
	q := `query($id: String!) { issue(id: $id) { team { states { nodes { id type position } } } } }`
	if err := l.query(ctx, q, map[string]interface{}{"id": issueID}, &data); err != nil {
		return err
	}

	states := data.Issue.Team.States.Nodes
	sort.SliceStable(states, func(i, j int) bool { return states[i].Position < states[j].Position })
	stateID := ""
	for _, s := range states {
		if s.Type == stateType {
			stateID = s.ID
			break
		}
	}
	if stateID == "" {
		return fmt.Errorf("no %s workflow state for issue %s", stateType, issueID)
	}

	var result struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	m := `mutation($id: String!, $stateId: String!) { issueUpdate(id: $id, input: { stateId: $stateId }) { success } }`
	if err := l.query(ctx, m, map[string]interface{}{"id": issueID, "stateId": stateID}, &result); err != nil {
		return err
	}
	if !result.IssueUpdate.Success {
		return fmt.Errorf("issueUpdate for %s was not successful", issueID)
	}
	return nil
}

// CreateItem creates an issue assigned to the user in the selected team,
// or in the first team when none is selected.
func (l *Linear) CreateItem(ctx context.Context, title, description string) (*models.WorkItem, error) {
	var viewer struct {
		Viewer struct {
			ID string `json:"id"`
		} `json:"viewer"`
		Teams struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	if err := l.query(ctx, `{ viewer { id } teams(first: 1) { nodes { id } } }`, nil, &viewer); err != nil {
		return nil, err
	}

	teamID := l.teamID
	if teamID == "" {
		if len(viewer.Teams.Nodes) == 0 {
			return nil, ErrBoardRequired
		}
		teamID = viewer.Teams.Nodes[0].ID
	}

	input := map[string]interface{}{
		"teamId":     teamID,
		"title":      title,
		"assigneeId": viewer.Viewer.ID,
	}
	if description != "" {
		input["description"] = description
	}

	var data struct {
		IssueCreate struct {
			Success bool         `json:"success"`
			Issue   *linearIssue `json:"issue"`
		} `json:"issueCreate"`
	}
	m := fmt.Sprintf(`mutation($input: IssueCreateInput!) { issueCreate(input: $input) { success issue { %s } } }`, linearIssueFields)
	if err := l.query(ctx, m, map[string]interface{}{"input": input}, &data); err != nil {
		return nil, err
	}
	if !data.IssueCreate.Success || data.IssueCreate.Issue == nil {
		return nil, errors.New("issueCreate was not successful")
	}

	item := data.IssueCreate.Issue.workItem()
	return &item, nil
}
