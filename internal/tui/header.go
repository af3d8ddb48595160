package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/storagecast/internal/format"
	"github.com/agbru/storagecast/internal/sysmon"
)

// HeaderModel renders the top bar: title, version, run progress and elapsed
// time.
type HeaderModel struct {
	startTime time.Time
	endTime   time.Time
	version   string
	progress  float64
	eta       time.Duration
	sys       sysmon.Stats
	hasSys    bool
	width     int
}

// NewHeaderModel creates a header whose timer starts now.
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{startTime: time.Now(), version: version}
}

// SetProgress records the aggregated run progress.
func (h *HeaderModel) SetProgress(avg float64, eta time.Duration) {
	h.progress = avg
	h.eta = eta
}

// SetSysStats records the latest host load snapshot.
func (h *HeaderModel) SetSysStats(s sysmon.Stats) {
	h.sys = s
	h.hasSys = true
}

// SetDone freezes the elapsed timer.
func (h *HeaderModel) SetDone() {
	h.endTime = time.Now()
	h.progress = 1
	h.eta = 0
}

// Reset restarts the timer for a new run.
func (h *HeaderModel) Reset() {
	h.startTime = time.Now()
	h.endTime = time.Time{}
	h.progress = 0
	h.eta = 0
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

// Elapsed returns the run time so far, or the final run time once done.
func (h HeaderModel) Elapsed() time.Duration {
	if !h.endTime.IsZero() {
		return h.endTime.Sub(h.startTime)
	}
	return time.Since(h.startTime)
}

// View renders the header.
func (h HeaderModel) View() string {
	title := "storagecast"
	if h.version != "" && h.version != "dev" {
		title += " " + h.version
	}
	pipe := dimStyle.Render(" | ")
	row := titleStyle.Render(title) + pipe +
		elapsedStyle.Render(fmt.Sprintf("Elapsed: %s", format.FormatExecutionDuration(h.Elapsed())))
	if h.endTime.IsZero() {
		row += pipe + format.FormatProgressBarWithETA(h.progress, h.eta, 20)
		if h.hasSys {
			row += pipe + dimStyle.Render(h.sys.String())
		}
	}
	if gap := h.width - 2 - lipgloss.Width(row); gap > 0 {
		row += spaces(gap)
	}
	return headerStyle.Render(row)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%*s", n, "")
}
