// Package cli renders storagecast runs in the terminal.
//
// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//     Examples: [DisplayProgress], [DisplayTrajectory], [DisplayResults].
//
//   - Format* functions return a string without performing I/O.
//     Examples: [FormatQuietResult].
//
//   - Print* functions describe the run before it starts.
//     Examples: [PrintExecutionConfig].
package cli

import (
	"fmt"
	"io"
	"strings"

	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/format"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/ui"
)

// OutputConfig selects how a finished run is rendered.
type OutputConfig struct {
	// JSON prints the whole result document instead of a table.
	JSON bool
	// Quiet prints one line per scenario, suitable for scripts.
	Quiet bool
	// Verbose adds the year-by-year trajectory of every scenario.
	Verbose bool
}

// FormatQuietResult renders one scenario as
// "rate peakYear capacity inflectionYear inflectionRate".
func FormatQuietResult(r orchestration.ScenarioResult) string {
	if r.Err != nil {
		return fmt.Sprintf("%g error %v", r.GrowthRate, r.Err)
	}
	return fmt.Sprintf("%g %.0f %.6g %.4f %.6g",
		r.GrowthRate, r.Fit.PeakYear, r.Fit.AsymptoticCapacity,
		r.Trajectory.InflectionYear, r.Trajectory.InflectionRate)
}

// DisplayQuietResults prints FormatQuietResult for every scenario.
func DisplayQuietResults(out io.Writer, results []orchestration.ScenarioResult) {
	for _, r := range results {
		fmt.Fprintln(out, FormatQuietResult(r))
	}
}

// DisplayTrajectory prints the projected cumulative storage and rate of one
// scenario for every year of its horizon.
func DisplayTrajectory(r orchestration.ScenarioResult, out io.Writer) {
	fmt.Fprintf(out, "\n%sTrajectory for growth rate %g%s (inflection %.1f at %s)\n",
		ui.ColorBold(), r.GrowthRate, ui.ColorReset(),
		r.Trajectory.InflectionYear, format.FormatQuantity(r.Trajectory.InflectionRate, 2, "Gt/yr"))
	fmt.Fprintf(out, "%sYear%s   %sCumulative%s      %sRate%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, p := range r.Trajectory.Points {
		cum := format.FormatQuantity(p.Cumulative, 2, "Gt")
		fmt.Fprintf(out, "%d   %s%s   %s\n", p.Year, cum, strings.Repeat(" ", max(0, 13-len(cum))),
			format.FormatQuantity(p.Rate, 3, "Gt/yr"))
	}
}

// DisplayResults renders a finished run according to cfg. Table mode goes
// through orchestration.AnalyzeResults so the run status line and exit code
// come from the same place as in every other caller. The returned int is the
// process exit code.
func DisplayResults(out io.Writer, run *orchestration.RunResult, cfg OutputConfig) (int, error) {
	switch {
	case cfg.JSON:
		if err := export.WriteJSON(out, run.Document); err != nil {
			return apperrors.ExitErrorGeneric, err
		}
		return apperrors.ExitSuccess, nil
	case cfg.Quiet:
		DisplayQuietResults(out, run.Results)
		return apperrors.ExitSuccess, nil
	default:
		presenter := CLIResultPresenter{Verbose: cfg.Verbose}
		var ref *export.Reference
		if run.Document != nil {
			ref = run.Document.Reference
		}
		return orchestration.AnalyzeResults(run.Results, ref, presenter, presenter, run.Duration, out), nil
	}
}
