package orchestrator

import (
	"log"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

// RecordStale appends an error event and closes the running attempt of
// each agent that reconciliation moved to Error. runs may be nil.
func RecordStale(registry *state.Registry, activityLog *activity.Log, runs state.RunStore, names []models.AgentName) {
	for _, name := range names {
		a, err := registry.Get(name)
		if err != nil {
			continue
		}
		activityLog.Record(name, activity.KindError, a.WorkItemID, a.WorkItemTitle, state.StaleProcessMessage)
		if runs == nil {
			continue
		}
		if err := runs.FinishRun(name, a.Epoch, state.RunFailed, state.StaleProcessMessage); err != nil {
			log.Printf("[controller] finish run: %v", err)
		}
	}
}
