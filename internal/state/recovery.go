package state

import (
	"errors"
	"log"
	"os"
	"syscall"

	"github.com/ShayCichocki/work/pkg/models"
)

// StaleProcessMessage is recorded on agents whose engine vanished while the
// dashboard was not watching.
const StaleProcessMessage = "Process exited unexpectedly"

// reconcileStale moves agents whose recorded pid is dead to Error and
// restores the rule that a pid is present exactly while working. It returns
// the agents it changed to Error.
func reconcileStale(agents map[models.AgentName]*models.Agent, alive ProcessProbe) []models.AgentName {
	if alive == nil {
		alive = IsProcessAlive
	}

	var stale []models.AgentName
	for _, name := range models.AllAgents {
		a := agents[name]
		switch {
		case a.PID != 0 && !alive(a.PID):
			log.Printf("[registry] %s: pid %d is gone", name, a.PID)
			a.Status = models.AgentStatusError
			a.Error = StaleProcessMessage
			a.PID = 0
			stale = append(stale, name)
		case a.PID == 0 && a.Status == models.AgentStatusWorking:
			a.Status = models.AgentStatusError
			a.Error = StaleProcessMessage
			stale = append(stale, name)
		case a.PID != 0 && a.Status != models.AgentStatusWorking:
			// A live pid on a non-working agent was never observed to start.
			a.PID = 0
		}
	}
	return stale
}

// IsProcessAlive checks if a process with the given PID is still running.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check existence.
	err = process.Signal(syscall.Signal(0))
	// EPERM means the process exists but belongs to another user.
	return err == nil || errors.Is(err, syscall.EPERM)
}
