// Package activity records orchestration events as newline-delimited JSON.
package activity

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ShayCichocki/work/pkg/models"
)

// FileName is the activity log file inside the data directory.
const FileName = "agent-activity.jsonl"

// Event kinds written by the orchestrator.
const (
	KindDispatched  = "dispatched"
	KindWorking     = "working"
	KindDone        = "done"
	KindError       = "error"
	KindRetry       = "retry"
	KindMaxRetries  = "max-retries"
	KindReleased    = "released"
	KindCleared     = "cleared"
	KindUserMessage = "user-message"
	KindModeChange  = "mode-change"
	KindLogsCleared = "logs-cleared"
)

// Event is one activity record.
type Event struct {
	Timestamp     time.Time        `json:"timestamp"`
	Agent         models.AgentName `json:"agent"`
	Event         string           `json:"event"`
	WorkItemID    string           `json:"work_item_id,omitempty"`
	WorkItemTitle string           `json:"work_item_title,omitempty"`
	Message       string           `json:"message,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(agent models.AgentName, kind, itemID, itemTitle, message string) Event {
	return Event{
		Timestamp:     time.Now().UTC(),
		Agent:         agent,
		Event:         kind,
		WorkItemID:    itemID,
		WorkItemTitle: itemTitle,
		Message:       message,
	}
}

// Log is an append-only activity file. It is safe for concurrent use by
// the controller and process monitors.
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a Log backed by the file at path.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the backing file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one event as a JSON line, creating parent directories.
func (l *Log) Append(e Event) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create activity directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	return nil
}

// Record appends an event and logs, rather than returns, any failure.
func (l *Log) Record(agent models.AgentName, kind, itemID, itemTitle, message string) {
	if err := l.Append(NewEvent(agent, kind, itemID, itemTitle, message)); err != nil {
		log.Printf("[activity] %v", err)
	}
}

// Read returns events in file order. An empty agent matches every agent.
// A positive limit keeps only the most recent limit events. Malformed
// lines are skipped and a missing file yields no events.
func (l *Log) Read(agent models.AgentName, limit int) []Event {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[activity] read: %v", err)
		}
		return nil
	}

	events := parse(data, agent)
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events
}

// Clear removes every event for agent, keeping other agents' history.
func (l *Log) Clear(agent models.AgentName) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read activity log: %w", err)
	}

	var kept bytes.Buffer
	scanner := newScanner(data)
	for scanner.Scan() {
		line := scanner.Bytes()
		var e Event
		if json.Unmarshal(line, &e) == nil && e.Agent == agent {
			continue
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		kept.Write(line)
		kept.WriteByte('\n')
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, kept.Bytes(), 0644); err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace activity log: %w", err)
	}
	return nil
}

func parse(data []byte, agent models.AgentName) []Event {
	var events []Event
	scanner := newScanner(data)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if agent != "" && e.Agent != agent {
			continue
		}
		events = append(events, e)
	}
	return events
}

func newScanner(data []byte) *bufio.Scanner {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return scanner
}
