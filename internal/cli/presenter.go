package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/format"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with a
// terminal spinner.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress delegates to DisplayProgress.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numScenarios int, out io.Writer) {
	DisplayProgress(wg, progressChan, numScenarios, out)
}

// CLIResultPresenter renders scenario results as a colored table.
type CLIResultPresenter struct {
	// Verbose appends the year-by-year trajectory of every scenario.
	Verbose bool
}

var (
	_ orchestration.ResultPresenter = CLIResultPresenter{}
	_ orchestration.ErrorHandler    = CLIResultPresenter{}
)

type column struct {
	header string
	cell   func(orchestration.ScenarioResult) string
}

// PresentResults prints one row per scenario. Failed scenarios show their
// error instead of fitted values. When ref is set a column compares each
// fitted curve with the observed cumulative storage at the reference year.
func (p CLIResultPresenter) PresentResults(results []orchestration.ScenarioResult, ref *export.Reference, out io.Writer) {
	cols := []column{
		{"Growth rate", func(r orchestration.ScenarioResult) string { return fmt.Sprintf("%g", r.GrowthRate) }},
		{"Peak year", func(r orchestration.ScenarioResult) string { return fmt.Sprintf("%.0f", r.Fit.PeakYear) }},
		{"Capacity", func(r orchestration.ScenarioResult) string { return format.FormatQuantity(r.Fit.AsymptoticCapacity, 1, "Gt") }},
		{"Inflection", func(r orchestration.ScenarioResult) string { return fmt.Sprintf("%.1f", r.Trajectory.InflectionYear) }},
		{"Max rate", func(r orchestration.ScenarioResult) string { return format.FormatQuantity(r.Trajectory.InflectionRate, 2, "Gt/yr") }},
		{"Target error", func(r orchestration.ScenarioResult) string { return fmt.Sprintf("%.4f", r.Fit.TargetError) }},
	}
	if ref != nil {
		header := fmt.Sprintf("At %d (obs %s)", ref.Year, format.FormatQuantity(ref.ObservedCumulative, 3, "Gt"))
		cols = append(cols, column{header, func(r orchestration.ScenarioResult) string {
			return format.FormatQuantity(r.Trajectory.Curve().Cumulative(float64(ref.Year)), 3, "Gt")
		}})
	}

	fmt.Fprintf(out, "\n--- Scenario Summary ---\n")
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len([]rune(c.header))
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			if w := len([]rune(c.cell(r))); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, c := range cols {
		b.WriteString(ui.ColorUnderline() + c.header + ui.ColorReset() + padRight("", widths[i]-len([]rune(c.header))) + "   ")
	}
	fmt.Fprintln(out, strings.TrimRight(b.String(), " "))

	for _, r := range results {
		b.Reset()
		if r.Err != nil {
			label := cols[0].cell(r)
			b.WriteString(ui.ColorBlue() + label + ui.ColorReset() + padRight("", widths[0]-len(label)) + "   ")
			b.WriteString(fmt.Sprintf("%sFailure (%v)%s", ui.ColorRed(), r.Err, ui.ColorReset()))
			fmt.Fprintln(out, b.String())
			continue
		}
		for i, c := range cols {
			cell := c.cell(r)
			color := ui.ColorMagenta()
			if i == 0 {
				color = ui.ColorBlue()
			}
			b.WriteString(color + cell + ui.ColorReset() + padRight("", widths[i]-len([]rune(cell))) + "   ")
		}
		fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
	}

	if p.Verbose {
		for _, r := range results {
			if r.Err == nil {
				DisplayTrajectory(r, out)
			}
		}
	}
}

// padRight appends length spaces to s.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + strings.Repeat(" ", length)
}

// HandleError prints a message matching the error's kind and returns the
// process exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	elapsed := format.FormatExecutionDuration(duration)
	var (
		paramErr apperrors.InvalidParameterError
		dataErr  apperrors.DataIntegrityError
	)
	switch {
	case errors.As(err, &paramErr):
		fmt.Fprintf(out, "%sInvalid parameter %q: %s%s\n", ui.ColorRed(), paramErr.Field, paramErr.Message, ui.ColorReset())
	case errors.As(err, &dataErr):
		fmt.Fprintf(out, "%sHistorical data rejected: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	case apperrors.IsContextError(err):
		fmt.Fprintf(out, "%sRun stopped after %s: %v%s\n", ui.ColorYellow(), elapsed, err, ui.ColorReset())
	default:
		fmt.Fprintf(out, "%sRun failed after %s: %v%s\n", ui.ColorRed(), elapsed, err, ui.ColorReset())
	}
	return apperrors.ExitCodeFor(err)
}
