package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/storagecast/internal/calibration"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/projection"
)

// ScenarioResult is the outcome of one growth scenario. It is the shared
// domain type between orchestration and presentation layers.
type ScenarioResult struct {
	// Index is the scenario's position in the request's growth-rate list.
	Index      int
	GrowthRate float64
	Fit        calibration.FittedParameters
	Trajectory projection.Trajectory
	// Duration covers both the fit and the projection.
	Duration time.Duration
	// Err is set when the scenario could not be completed.
	Err error
}

// ProgressUpdate reports that the scenario at ScenarioIndex reached Value
// (0 to 1).
type ProgressUpdate struct {
	ScenarioIndex int
	GrowthRate    float64
	Value         float64
}

// Calibrator fits one growth scenario.
type Calibrator interface {
	Fit(s calibration.GrowthScenario) (calibration.FittedParameters, error)
}

// ProgressReporter displays run progress. DisplayProgress runs in its own
// goroutine until progressChan is closed, then calls wg.Done.
type ProgressReporter interface {
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numScenarios int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numScenarios int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numScenarios int, out io.Writer) {
	f(wg, progressChan, numScenarios, out)
}

// NullProgressReporter drains the progress channel without displaying
// anything. Used in quiet mode, by the server and in tests.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter renders the results of a run.
type ResultPresenter interface {
	// PresentResults displays the per-scenario summary table.
	PresentResults(results []ScenarioResult, ref *export.Reference, out io.Writer)
}

// ErrorHandler reports a run failure and returns the process exit code.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}
