package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	iexec "github.com/ShayCichocki/work/internal/exec"
	"github.com/ShayCichocki/work/pkg/models"
)

// GitHub reads open issues assigned to an owner through the gh CLI, which
// handles authentication.
type GitHub struct {
	Unsupported

	owner  string
	repo   string
	runner iexec.CommandRunner
}

var _ Provider = (*GitHub)(nil)

// NewGitHub creates a GitHub provider using runner to invoke gh.
func NewGitHub(owner string, runner iexec.CommandRunner) *GitHub {
	if runner == nil {
		runner = iexec.NewRunner()
	}
	return &GitHub{owner: owner, runner: runner}
}

// Name returns "GitHub".
func (g *GitHub) Name() string { return SourceGitHub }

// SetBoardFilter restricts items to one owner/name repository.
func (g *GitHub) SetBoardFilter(boardID string) { g.repo = boardID }

type ghIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	URL    string `json:"url"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Repository *struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

func (g *GitHub) gh(ctx context.Context, args ...string) ([]byte, error) {
	out, err := g.runner.Output(ctx, "", "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("gh %s: %w", args[0], err)
	}
	return out, nil
}

// FetchItems returns open issues assigned to the owner.
func (g *GitHub) FetchItems(ctx context.Context) ([]models.WorkItem, error) {
	args := []string{
		"search", "issues",
		"--assignee", g.owner,
		"--state", "open",
		"--json", "number,title,body,state,url,labels,repository",
		"--limit", "50",
	}
	if g.repo != "" {
		args = append(args, "--repo", g.repo)
	}
	out, err := g.gh(ctx, args...)
	if err != nil {
		return nil, err
	}

	var issues []ghIssue
	if err := json.Unmarshal(out, &issues); err != nil {
		return nil, fmt.Errorf("parse gh output: %w", err)
	}

	items := make([]models.WorkItem, 0, len(issues))
	for _, issue := range issues {
		item := models.WorkItem{
			ID:       fmt.Sprintf("#%d", issue.Number),
			SourceID: issue.URL,
			Title:    issue.Title,
			Status:   issue.State,
			Labels:   []string{},
			Source:   SourceGitHub,
			URL:      issue.URL,
		}
		if strings.TrimSpace(issue.Body) != "" {
			item.Description = truncate(issue.Body, maxDescription)
		}
		for _, l := range issue.Labels {
			item.Labels = append(item.Labels, l.Name)
		}
		if issue.Repository != nil {
			item.Team = issue.Repository.NameWithOwner
		}
		items = append(items, item)
	}
	return items, nil
}

// ListBoards returns the owner's repositories.
func (g *GitHub) ListBoards(ctx context.Context) ([]models.BoardInfo, error) {
	out, err := g.gh(ctx, "repo", "list", g.owner, "--json", "nameWithOwner", "--limit", "100")
	if err != nil {
		return nil, err
	}
	var repos []struct {
		NameWithOwner string `json:"nameWithOwner"`
	}
	if err := json.Unmarshal(out, &repos); err != nil {
		return nil, fmt.Errorf("parse gh output: %w", err)
	}
	boards := make([]models.BoardInfo, 0, len(repos))
	for _, r := range repos {
		boards = append(boards, models.BoardInfo{ID: r.NameWithOwner, Name: r.NameWithOwner, Source: SourceGitHub})
	}
	return boards, nil
}

// MoveToDone closes the issue. sourceID is the issue URL.
func (g *GitHub) MoveToDone(ctx context.Context, sourceID string) error {
	_, err := g.gh(ctx, "issue", "close", sourceID)
	return err
}

// CreateItem opens an issue assigned to the caller in the selected
// repository.
func (g *GitHub) CreateItem(ctx context.Context, title, description string) (*models.WorkItem, error) {
	if g.repo == "" {
		return nil, nil
	}
	out, err := g.gh(ctx, "issue", "create", "--repo", g.repo, "--title", title, "--body", description, "--assignee", "@me")
	if err != nil {
		return nil, err
	}

	issueURL := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(issueURL, '\n'); i >= 0 {
		issueURL = issueURL[i+1:]
	}
	return &models.WorkItem{
		ID:          "#" + path.Base(issueURL),
		SourceID:    issueURL,
		Title:       title,
		Description: truncate(description, maxDescription),
		Status:      "OPEN",
		Labels:      []string{},
		Source:      SourceGitHub,
		Team:        g.repo,
		URL:         issueURL,
	}, nil
}
