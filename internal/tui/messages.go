package tui

import (
	"time"

	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/sysmon"
)

// ProgressMsg reports one scenario update together with the aggregated
// progress of the run.
type ProgressMsg struct {
	ScenarioIndex   int
	GrowthRate      float64
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// ProgressDoneMsg is sent once the progress channel is closed.
type ProgressDoneMsg struct{}

// RunCompleteMsg carries the outcome of a run. Generation identifies the run
// so results of a superseded run are ignored.
type RunCompleteMsg struct {
	Result     *orchestration.RunResult
	Err        error
	ExitCode   int
	Generation uint64
}

// TickMsg refreshes the elapsed timer.
type TickMsg time.Time

// SysStatsMsg carries a host load snapshot.
type SysStatsMsg sysmon.Stats

// ContextCancelledMsg is sent when the run context ends.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}
