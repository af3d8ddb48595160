package orchestration

import (
	"time"

	"github.com/agbru/storagecast/internal/format"
)

// ProgressAggregator folds per-scenario updates into an overall completion
// fraction and ETA. Both the CLI spinner and the TUI use it.
type ProgressAggregator struct {
	state        *format.ProgressWithETA
	numScenarios int
}

// NewProgressAggregator creates an aggregator for n scenarios. It returns nil
// when n <= 0.
func NewProgressAggregator(n int) *ProgressAggregator {
	if n <= 0 {
		return nil
	}
	return &ProgressAggregator{state: format.NewProgressWithETA(n), numScenarios: n}
}

// AggregatedProgress is the aggregator's view after one update.
type AggregatedProgress struct {
	ScenarioIndex   int
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// Update processes one update.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	avg, eta := a.state.UpdateWithETA(update.ScenarioIndex, update.Value)
	return AggregatedProgress{
		ScenarioIndex:   update.ScenarioIndex,
		Value:           update.Value,
		AverageProgress: avg,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// NumScenarios returns the number of tracked scenarios.
func (a *ProgressAggregator) NumScenarios() int {
	return a.numScenarios
}

// DrainChannel discards every update until the channel is closed.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
