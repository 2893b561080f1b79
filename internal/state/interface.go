package state

import (
	"io"

	"github.com/ShayCichocki/work/pkg/models"
)

// RunStore handles dispatch history persistence.
type RunStore interface {
	StartRun(r *Run) error
	FinishRun(agent models.AgentName, epoch uint64, outcome RunOutcome, message string) error
	ListRuns(agent models.AgentName, limit int) ([]Run, error)
}

// BoardStore handles per-project board choices.
type BoardStore interface {
	SetBoardMapping(projectDir string, board models.BoardInfo) error
	GetBoardMapping(projectDir string) (*BoardMapping, error)
	DeleteBoardMapping(projectDir string) error
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// HistoryStore composes the history database interfaces.
type HistoryStore interface {
	io.Closer
	Migrator
	RunStore
	BoardStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ HistoryStore = (*DB)(nil)
	_ RunStore     = (*DB)(nil)
	_ BoardStore   = (*DB)(nil)
)
