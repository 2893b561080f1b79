package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/work/pkg/models"
)

// RunOutcome is the terminal state of a dispatch attempt.
type RunOutcome string

const (
	RunRunning        RunOutcome = "running"
	RunSucceeded      RunOutcome = "succeeded"
	RunFailed         RunOutcome = "failed"
	RunDispatchFailed RunOutcome = "dispatch_failed"
	RunCleared        RunOutcome = "cleared"
)

// Run is one dispatch attempt of a work item to an agent.
type Run struct {
	ID            string
	Agent         models.AgentName
	Epoch         uint64
	WorkItemID    string
	WorkItemTitle string
	Branch        string
	Attempt       int
	StartedAt     time.Time
	FinishedAt    *time.Time
	Outcome       RunOutcome
	Message       string
}

// Duration returns how long the run took, or how long it has been running.
func (r Run) Duration(now time.Time) time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// StartRun records a new attempt, generating its id when empty. An attempt
// that failed to dispatch is inserted already finished.
func (db *DB) StartRun(r *Run) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.Outcome == "" {
		r.Outcome = RunRunning
	}

	var finishedAt sql.NullString
	if r.FinishedAt != nil {
		finishedAt = sql.NullString{String: formatTime(*r.FinishedAt), Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, agent, epoch, work_item_id, work_item_title, branch, attempt, started_at, finished_at, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, string(r.Agent), int64(r.Epoch), r.WorkItemID, r.WorkItemTitle, r.Branch, r.Attempt, formatTime(r.StartedAt), finishedAt, string(r.Outcome), r.Message)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun closes the running attempt identified by agent and epoch.
// It is a no-op if that attempt was already closed.
func (db *DB) FinishRun(agent models.AgentName, epoch uint64, outcome RunOutcome, message string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		UPDATE runs SET outcome = ?, message = ?, finished_at = ?
		WHERE agent = ? AND epoch = ? AND outcome = ?
	`, string(outcome), message, formatTime(time.Now()), string(agent), int64(epoch), string(RunRunning))
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. An empty agent
// matches every agent.
func (db *DB) ListRuns(agent models.AgentName, limit int) ([]Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, agent, epoch, work_item_id, work_item_title, branch, attempt, started_at, finished_at, outcome, message FROM runs`
	var args []interface{}
	if agent != "" {
		query += ` WHERE agent = ?`
		args = append(args, string(agent))
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			agentName  string
			epoch      int64
			title      sql.NullString
			branch     sql.NullString
			startedAt  string
			finishedAt sql.NullString
			outcome    string
			message    sql.NullString
		)
		if err := rows.Scan(&r.ID, &agentName, &epoch, &r.WorkItemID, &title, &branch, &r.Attempt, &startedAt, &finishedAt, &outcome, &message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Agent = models.AgentName(agentName)
		r.Epoch = uint64(epoch)
		r.WorkItemTitle = title.String
		r.Branch = branch.String
		r.Outcome = RunOutcome(outcome)
		r.Message = message.String
		r.StartedAt, _ = parseTime(startedAt)
		r.FinishedAt = parseNullableTime(finishedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// BoardMapping records which board a project directory uses.
type BoardMapping struct {
	ProjectDir string
	Source     string
	BoardID    string
	BoardName  string
	UpdatedAt  time.Time
}

// ErrNoBoardMapping is returned when a project has no saved board.
var ErrNoBoardMapping = errors.New("no board mapping")

// SetBoardMapping saves the board choice for a project directory.
func (db *DB) SetBoardMapping(projectDir string, board models.BoardInfo) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO board_mappings (project_dir, source, board_id, board_name, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_dir) DO UPDATE SET
			source = excluded.source,
			board_id = excluded.board_id,
			board_name = excluded.board_name,
			updated_at = excluded.updated_at
	`, projectDir, board.Source, board.ID, board.Name, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save board mapping: %w", err)
	}
	return nil
}

// GetBoardMapping returns the saved board for a project directory.
func (db *DB) GetBoardMapping(projectDir string) (*BoardMapping, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var (
		m         BoardMapping
		name      sql.NullString
		updatedAt string
	)
	err := db.conn.QueryRow(`
		SELECT project_dir, source, board_id, board_name, updated_at
		FROM board_mappings WHERE project_dir = ?
	`, projectDir).Scan(&m.ProjectDir, &m.Source, &m.BoardID, &name, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBoardMapping
	}
	if err != nil {
		return nil, fmt.Errorf("get board mapping: %w", err)
	}
	m.BoardName = name.String
	m.UpdatedAt, _ = parseTime(updatedAt)
	return &m, nil
}

// DeleteBoardMapping forgets the board of a project directory.
func (db *DB) DeleteBoardMapping(projectDir string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(`DELETE FROM board_mappings WHERE project_dir = ?`, projectDir); err != nil {
		return fmt.Errorf("delete board mapping: %w", err)
	}
	return nil
}
