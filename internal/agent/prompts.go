package agent

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

const taskPromptTemplate = `You are agent "%[1]s" working on the following task. Your personality: %[2]s.

# %[3]s

- ID: %[4]s
- Source: %[5]s
- URL: %[6]s
- Priority: %[7]s
- Labels: %[8]s
- Status: %[9]s
- Team: %[10]s

## Description
%[11]s

## Instructions
1. Read CLAUDE.md in the project root for conventions and context.
2. Implement the task described above.
3. Write tests for your changes.
4. Run ` + "`go test ./...`" + ` and ensure all tests pass.
5. Commit your changes with a message referencing %[4]s.
6. Run ` + "`git fetch origin main && git rebase origin/main`" + `.
7. Run ` + "`git push origin HEAD:main`" + `.

Work autonomously. Do not ask for clarification; make reasonable decisions.

## Personality: %[2]s
- Focus: %[12]s
- Traits: %[13]s
- Working style: %[14]s`

// BuildTaskPrompt renders the prompt handed to the engine on dispatch.
func BuildTaskPrompt(item models.WorkItem, name models.AgentName) string {
	p := models.PersonalityOf(name)
	labels := "none"
	if len(item.Labels) > 0 {
		labels = strings.Join(item.Labels, ", ")
	}
	description := item.Description
	if description == "" {
		description = "No description provided."
	}
	return fmt.Sprintf(taskPromptTemplate,
		name.DisplayName(),
		p.Tagline,
		item.Title,
		item.ID,
		item.Source,
		orNA(item.URL),
		orNA(item.Priority),
		labels,
		orNA(item.Status),
		orNA(item.Team),
		description,
		p.Focus,
		strings.Join(p.Traits, ", "),
		p.SystemPrompt,
	)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// BuildMessagePrompt renders a read-only conversational prompt. taskContext
// may be empty when the agent has no assignment.
func BuildMessagePrompt(name models.AgentName, message, taskContext string) string {
	p := models.PersonalityOf(name)
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an agent in a team dashboard CLI called \"work\".\n", name.DisplayName())
	fmt.Fprintf(&b, "Your personality: %s. %s\n\n", p.Tagline, p.Focus)
	if taskContext != "" {
		fmt.Fprintf(&b, "You are currently working on: %s\n\n", taskContext)
	}
	fmt.Fprintf(&b, "The user has sent you this message:\n%s\n\n", message)
	b.WriteString("Respond concisely and helpfully. If you need more information from the user, ask clearly.\n")
	if taskContext != "" {
		b.WriteString("If you're given feedback on your work, acknowledge it and explain what you'll do.\n")
		b.WriteString("If asked a question, answer directly.\n")
	}
	b.WriteString("Keep responses under 200 words.")
	return b.String()
}

// BuildFeedbackPrompt renders a prompt asking the agent to change code.
func BuildFeedbackPrompt(name models.AgentName, feedback, taskContext string) string {
	p := models.PersonalityOf(name)
	return fmt.Sprintf(`You are %s, an agent working on: %s
Your personality: %s. %s

The user has given you this feedback:
%s

Apply this feedback to the codebase. Make the necessary changes, test them, commit and push.
After making changes, briefly summarize what you did.`,
		name.DisplayName(), taskContext, p.Tagline, p.Focus, feedback)
}

// TaskContext describes an agent's current assignment for chat prompts.
func TaskContext(a models.Agent) string {
	if a.WorkItemID == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", a.WorkItemID, a.WorkItemTitle)
}
