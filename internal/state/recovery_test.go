package state

import (
	"os"
	"reflect"
	"testing"

	"github.com/ShayCichocki/work/pkg/models"
)

func TestReconcileStale(t *testing.T) {
	agents := defaultAgents()
	agents[models.AgentEmber].Status = models.AgentStatusWorking
	agents[models.AgentEmber].PID = 10
	agents[models.AgentFlow].Status = models.AgentStatusWorking
	agents[models.AgentFlow].PID = 11
	agents[models.AgentTempest].Status = models.AgentStatusWorking
	agents[models.AgentTerra].Status = models.AgentStatusDone
	agents[models.AgentTerra].PID = 11

	stale := reconcileStale(agents, func(pid int) bool { return pid == 11 })

	want := []models.AgentName{models.AgentEmber, models.AgentTempest}
	if !reflect.DeepEqual(stale, want) {
		t.Errorf("stale = %v, want %v", stale, want)
	}
	if agents[models.AgentFlow].Status != models.AgentStatusWorking {
		t.Error("live agent should stay working")
	}
	if agents[models.AgentTempest].Error != StaleProcessMessage {
		t.Errorf("working agent without pid: %+v", agents[models.AgentTempest])
	}
	if agents[models.AgentTerra].PID != 0 || agents[models.AgentTerra].Status != models.AgentStatusDone {
		t.Errorf("done agent should drop its pid: %+v", agents[models.AgentTerra])
	}
}

func TestIsProcessAlive(t *testing.T) {
	if !IsProcessAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
	if IsProcessAlive(0) || IsProcessAlive(-5) {
		t.Error("non-positive pids are never alive")
	}
}
