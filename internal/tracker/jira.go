package tracker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

// Jira reads issues assigned to the user from Jira Cloud.
type Jira struct {
	baseURL string
	auth    string
	client  *http.Client
	project string
}

var _ Provider = (*Jira)(nil)

// NewJira creates a Jira provider for <domain>.atlassian.net. A non-empty
// baseURL replaces the site URL.
func NewJira(domain, email, apiToken, baseURL string) *Jira {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.atlassian.net", domain)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(email + ":" + apiToken))
	return &Jira{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    "Basic " + creds,
		client:  newHTTPClient(),
	}
}

// Name returns "Jira".
func (j *Jira) Name() string { return SourceJira }

// SetBoardFilter restricts items to one project key.
func (j *Jira) SetBoardFilter(boardID string) { j.project = boardID }

func (j *Jira) do(ctx context.Context, method, path string, body, out interface{}) error {
	header := http.Header{"Authorization": []string{j.auth}}
	return doJSON(ctx, j.client, method, j.baseURL+path, header, body, out)
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string          `json:"summary"`
		Description json.RawMessage `json:"description"`
		Status      *struct {
			Name string `json:"name"`
		} `json:"status"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		Labels  []string `json:"labels"`
		Project *struct {
			Name string `json:"name"`
		} `json:"project"`
	} `json:"fields"`
}

// JQL returns the search query, including the project filter if set.
func (j *Jira) JQL() string {
	jql := "assignee=currentUser() AND statusCategory!=Done"
	if j.project != "" {
		jql += fmt.Sprintf(" AND project = %q", j.project)
	}
	return jql + " ORDER BY priority ASC"
}

// FetchItems returns unfinished issues assigned to the user.
func (j *Jira) FetchItems(ctx context.Context) ([]models.WorkItem, error) {
	params := url.Values{
		"jql":        {j.JQL()},
		"maxResults": {"50"},
		"fields":     {"summary,description,status,priority,labels,project"},
	}
	var resp struct {
		Issues []jiraIssue `json:"issues"`
	}
	if err := j.do(ctx, http.MethodGet, "/rest/api/3/search/jql?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.WorkItem, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		item := models.WorkItem{
			ID:          issue.Key,
			SourceID:    issue.Key,
			Title:       issue.Fields.Summary,
			Description: truncate(adfText(issue.Fields.Description), maxDescription),
			Labels:      append([]string{}, issue.Fields.Labels...),
			Source:      SourceJira,
			URL:         j.baseURL + "/browse/" + issue.Key,
		}
		if issue.Fields.Status != nil {
			item.Status = issue.Fields.Status.Name
		}
		if issue.Fields.Priority != nil {
			item.Priority = issue.Fields.Priority.Name
		}
		if issue.Fields.Project != nil {
			item.Team = issue.Fields.Project.Name
		}
		items = append(items, item)
	}
	return items, nil
}

// ListBoards returns the visible projects, keyed by project key.
func (j *Jira) ListBoards(ctx context.Context) ([]models.BoardInfo, error) {
	var resp struct {
		Values []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"values"`
	}
	if err := j.do(ctx, http.MethodGet, "/rest/api/3/project/search?maxResults=50", nil, &resp); err != nil {
		return nil, err
	}
	boards := make([]models.BoardInfo, 0, len(resp.Values))
	for _, p := range resp.Values {
		boards = append(boards, models.BoardInfo{ID: p.Key, Name: p.Name, Source: SourceJira})
	}
	return boards, nil
}

// MoveToInProgress applies the first transition into the in-progress
// status category.
func (j *Jira) MoveToInProgress(ctx context.Context, sourceID string) error {
	return j.transition(ctx, sourceID, "indeterminate")
}

// MoveToDone applies the first transition into the done status category.
func (j *Jira) MoveToDone(ctx context.Context, sourceID string) error {
	return j.transition(ctx, sourceID, "done")
}

func (j *Jira) transition(ctx context.Context, key, category string) error {
	var resp struct {
		Transitions []struct {
			ID string `json:"id"`
			To struct {
				StatusCategory struct {
					Key string `json:"key"`
				} `json:"statusCategory"`
			} `json:"to"`
		} `json:"transitions"`
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/transitions"
	if err := j.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	for _, t := range resp.Transitions {
		if t.To.StatusCategory.Key == category {
			body := map[string]interface{}{"transition": map[string]string{"id": t.ID}}
			return j.do(ctx, http.MethodPost, path, body, nil)
		}
	}
	return fmt.Errorf("no %s transition for %s", category, key)
}

// CreateItem creates a Task assigned to the user in the selected project.
func (j *Jira) CreateItem(ctx context.Context, title, description string) (*models.WorkItem, error) {
	if j.project == "" {
		return nil, nil
	}

	var me struct {
		AccountID string `json:"accountId"`
	}
	if err := j.do(ctx, http.MethodGet, "/rest/api/3/myself", nil, &me); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"project":   map[string]string{"key": j.project},
		"summary":   title,
		"issuetype": map[string]string{"name": "Task"},
		"assignee":  map[string]string{"accountId": me.AccountID},
	}
	if description != "" {
		fields["description"] = adfDocument(description)
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := j.do(ctx, http.MethodPost, "/rest/api/3/issue", map[string]interface{}{"fields": fields}, &created); err != nil {
		return nil, err
	}

	return &models.WorkItem{
		ID:          created.Key,
		SourceID:    created.Key,
		Title:       title,
		Description: truncate(description, maxDescription),
		Status:      "To Do",
		Labels:      []string{},
		Source:      SourceJira,
		URL:         j.baseURL + "/browse/" + created.Key,
	}, nil
}
