package agent

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/work/pkg/models"
)

// Completer answers a single prompt. api.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// APIMessenger answers read-only chat through the Anthropic API and hands
// feedback, which needs to edit files, to the CLI engine.
type APIMessenger struct {
	api      Completer
	feedback Messenger
}

// Verify APIMessenger implements Messenger at compile time.
var _ Messenger = (*APIMessenger)(nil)

// NewAPIMessenger creates a messenger backed by the API client. feedback
// handles ApplyFeedback calls.
func NewAPIMessenger(api Completer, feedback Messenger) *APIMessenger {
	return &APIMessenger{api: api, feedback: feedback}
}

// Message sends the chat prompt with the agent's working style as the
// system prompt.
func (m *APIMessenger) Message(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error) {
	system := models.PersonalityOf(name).SystemPrompt
	reply, err := m.api.Complete(ctx, system, BuildMessagePrompt(name, text, taskContext))
	if err != nil {
		return "", fmt.Errorf("agent response failed: %w", err)
	}
	return reply, nil
}

// ApplyFeedback delegates to the engine.
func (m *APIMessenger) ApplyFeedback(ctx context.Context, name models.AgentName, text, workDir, taskContext string) (string, error) {
	return m.feedback.ApplyFeedback(ctx, name, text, workDir, taskContext)
}
