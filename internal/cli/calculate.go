package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/ui"
)

// PrintExecutionConfig describes the request about to run: the start and
// target conditions, the search grids, the growth rates and the horizon.
func PrintExecutionConfig(req scenario.Request, timeout time.Duration, concurrency int, out io.Writer) {
	h := req.Horizon()
	rule := req.BaselineRule()
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Calibrating from %s%d (%g Gt/yr)%s to %s%d (%g Gt/yr)%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), req.StartYear, req.StartRate, ui.ColorReset(),
		ui.ColorMagenta(), req.TargetYear, req.TargetRate, ui.ColorReset(),
		ui.ColorYellow(), timeout, ui.ColorReset())
	fmt.Fprintf(out, "Search grid: peak years %s%g..%g (%d)%s, capacities %s%g..%g Gt (%d, log-spaced)%s.\n",
		ui.ColorCyan(), req.PeakYearRange.Min, req.PeakYearRange.Max, req.PeakYearRange.Count, ui.ColorReset(),
		ui.ColorCyan(), req.CapacityRange.Min, req.CapacityRange.Max, req.CapacityRange.Count, ui.ColorReset())
	fmt.Fprintf(out, "Projection: %s%d-%d%s, baseline weight %s%g%s, constant %s%g%s.\n",
		ui.ColorCyan(), h.Start, h.End, ui.ColorReset(),
		ui.ColorCyan(), rule.Weight, ui.ColorReset(),
		ui.ColorCyan(), rule.Constant, ui.ColorReset())
	if req.ReferenceYear != 0 {
		fmt.Fprintf(out, "Reference year: %s%d%s.\n", ui.ColorCyan(), req.ReferenceYear, ui.ColorReset())
	}
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, %s%d%s concurrent scenarios, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(),
		ui.ColorCyan(), concurrency, ui.ColorReset(),
		ui.ColorCyan(), runtime.Version(), ui.ColorReset())
}

// PrintExecutionMode lists the growth rates that will be evaluated.
func PrintExecutionMode(rates []float64, out io.Writer) {
	labels := make([]string, len(rates))
	for i, r := range rates {
		labels[i] = fmt.Sprintf("%g", r)
	}
	noun := "scenario"
	if len(rates) != 1 {
		noun = "scenarios"
	}
	fmt.Fprintf(out, "Execution mode: %d growth %s [%s%s%s].\n",
		len(rates), noun, ui.ColorGreen(), strings.Join(labels, ", "), ui.ColorReset())
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
