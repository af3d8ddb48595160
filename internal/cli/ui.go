package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/storagecast/internal/format"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/ui"
)

const (
	// ProgressRefreshRate is how often the spinner suffix is redrawn.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner abstracts the terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	Start()
	Stop()
	// UpdateSuffix sets the text displayed after the spinner glyph.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

// UpdateSuffix locks the spinner because its render goroutine reads Suffix.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// DisplayProgress shows a spinner with an aggregated progress bar and ETA
// until progressChan is closed. It calls wg.Done on return.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numScenarios int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numScenarios)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	completed := 0
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				avg := agg.CalculateAverage()
				fmt.Fprintf(out, "[%s] %5.1f%% %s%d/%d scenarios%s\n",
					format.ProgressBar(avg, ProgressBarWidth), avg*100,
					ui.ColorGreen(), completed, numScenarios, ui.ColorReset())
				return
			}
			if agg.Update(update).Value >= 1 {
				completed++
			}
			s.UpdateSuffix(progressSuffix(agg.CalculateAverage(), agg.GetETA(), completed, numScenarios))
		case <-ticker.C:
			s.UpdateSuffix(progressSuffix(agg.CalculateAverage(), agg.GetETA(), completed, numScenarios))
		}
	}
}

func progressSuffix(avg float64, eta time.Duration, completed, total int) string {
	return fmt.Sprintf(" Calibrating %s (%d/%d)",
		format.FormatProgressBarWithETA(avg, eta, ProgressBarWidth), completed, total)
}
