package models

import "time"

// ChatSender identifies who wrote a chat line.
type ChatSender int

const (
	ChatFromUser ChatSender = iota
	ChatFromAgent
	ChatFromSystem
)

// ChatMessage is one line in the dashboard chat panel.
type ChatMessage struct {
	Sender    ChatSender
	Agent     AgentName
	Text      string
	Timestamp time.Time
}

// UserMessage creates a chat line typed by the user.
func UserMessage(text string) ChatMessage {
	return ChatMessage{Sender: ChatFromUser, Text: text, Timestamp: time.Now()}
}

// AgentMessage creates a chat line from an agent.
func AgentMessage(name AgentName, text string) ChatMessage {
	return ChatMessage{Sender: ChatFromAgent, Agent: name, Text: text, Timestamp: time.Now()}
}

// SystemMessage creates a chat line from the dashboard itself.
func SystemMessage(text string) ChatMessage {
	return ChatMessage{Sender: ChatFromSystem, Text: text, Timestamp: time.Now()}
}
