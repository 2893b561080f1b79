package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

// ContextFileName is the file the engine reads for project conventions.
const ContextFileName = "CLAUDE.md"

const contextTemplate = `# work pipeline

## Project Overview
A terminal dashboard CLI (` + "`work`" + `) that aggregates work items from Trello, Linear, Jira, and GitHub
and hands them to a pool of autonomous agents.
Built with Go and Bubble Tea (terminal UI).

## Tech Stack
- **Language**: Go
- **UI**: Bubble Tea + Lip Gloss
- **CLI**: Cobra, configuration through Viper
- **Build**: go build ./...
- **Test**: go test ./...

## Conventions
- Domain types in ` + "`pkg/models/`" + `, trackers in ` + "`internal/tracker/`" + `, UI in ` + "`internal/tui/`" + `
- Agent infrastructure in ` + "`internal/agent/`" + ` and ` + "`internal/orchestrator/`" + `
- Return errors explicitly and wrap them with ` + "`fmt.Errorf(\"...: %%w\", err)`" + `
- Use ` + "`encoding/json`" + ` struct tags for persisted state
- Config stored at ` + "`~/.config/work/config.yaml`" + `
- Agent state stored at ` + "`~/.local/share/work/agents.json`" + `
- Activity log at ` + "`~/.local/share/work/agent-activity.jsonl`" + `

## Testing
- Run: ` + "`go test ./...`" + `

## Commit Format
- Short imperative subject line (e.g., "Add login validation")
- Reference the work item ID in the commit body

## Agent Identity
You are **%s**, an autonomous agent working in a git worktree.
Your changes will be pushed directly to main.

### Personality: %s
- **Focus**: %s
- **Traits**: %s
- **Working style**: %s
`

// RenderContextFile returns the context file contents for an agent.
func RenderContextFile(name models.AgentName) string {
	p := models.PersonalityOf(name)
	return fmt.Sprintf(contextTemplate,
		name.DisplayName(),
		p.Tagline,
		p.Focus,
		strings.Join(p.Traits, ", "),
		p.SystemPrompt,
	)
}

// WriteContextFile writes the context file into the worktree root.
func WriteContextFile(worktreePath string, name models.AgentName) error {
	path := filepath.Join(worktreePath, ContextFileName)
	if err := os.WriteFile(path, []byte(RenderContextFile(name)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", ContextFileName, err)
	}
	return nil
}
