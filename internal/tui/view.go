package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/storagecast/internal/format"
	"github.com/agbru/storagecast/internal/orchestration"
)

// Layout constants.
const (
	ListPanelWidthPercent = 45
	sparklineWidth        = 16
	chartRows             = 6
	minPanelWidth         = 24
)

// View renders the whole viewer.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	listWidth := max(m.width*ListPanelWidthPercent/100, minPanelWidth)
	detailWidth := max(m.width-listWidth, minPanelWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(listWidth-2).Render(m.listView()),
		panelStyle.Width(detailWidth-2).Render(m.detailView(detailWidth-4)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footerView())
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scenarios") + "\n")
	for i, row := range m.rows {
		cursor := "  "
		if i == m.selected {
			cursor = "▶ "
		}
		line := fmt.Sprintf("%sr=%-6g %s", cursor, row.rate, rowStatus(row))
		if i == m.selected {
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// rowStatus summarizes a scenario: its progress while running, its fit and
// a sparkline of its rate curve once done, or its error.
func rowStatus(row scenarioRow) string {
	switch {
	case row.result == nil:
		return statusRunStyle.Render(fmt.Sprintf("%5.1f%%", row.progress*100))
	case row.result.Err != nil:
		return statusErrorStyle.Render("failed")
	default:
		fit := row.result.Fit
		spark := RenderSparkline(Normalize(Resample(row.result.Trajectory.Rates(), sparklineWidth)))
		return statusDoneStyle.Render(fmt.Sprintf("%.0f", fit.PeakYear)) + " " +
			valueStyle.Render(format.FormatQuantity(fit.AsymptoticCapacity, 1, "Gt")) + " " +
			chartStyle.Render(spark)
	}
}

func (m Model) detailView(width int) string {
	if len(m.rows) == 0 {
		return dimStyle.Render("No scenarios.")
	}
	row := m.rows[m.selected]
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Growth rate %g", row.rate)) + "\n")

	switch {
	case row.result == nil && m.done && m.err != nil:
		b.WriteString(statusErrorStyle.Render("Run failed: "+m.err.Error()) + "\n")
		return b.String()
	case row.result == nil:
		b.WriteString(dimStyle.Render("Calibrating...") + "\n")
		return b.String()
	case row.result.Err != nil:
		b.WriteString(statusErrorStyle.Render("Failed: "+row.result.Err.Error()) + "\n")
		return b.String()
	}

	res := row.result
	kv := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value) + "\n")
	}
	kv("Peak year", fmt.Sprintf("%.0f", res.Fit.PeakYear))
	kv("Capacity", format.FormatQuantity(res.Fit.AsymptoticCapacity, 1, "Gt"))
	kv("Baseline", format.FormatQuantity(res.Trajectory.Baseline, 4, "Gt"))
	kv("Inflection", fmt.Sprintf("%.1f", res.Trajectory.InflectionYear))
	kv("Max rate", format.FormatQuantity(res.Trajectory.InflectionRate, 2, "Gt/yr"))
	kv("Errors", fmt.Sprintf("start %.4f  target %.4f", res.Fit.StartError, res.Fit.TargetError))
	if m.reference != nil {
		fitted := res.Trajectory.Curve().Cumulative(float64(m.reference.Year))
		kv(fmt.Sprintf("At %d", m.reference.Year), fmt.Sprintf("%s (observed %s)",
			format.FormatQuantity(fitted, 3, "Gt"), format.FormatQuantity(m.reference.ObservedCumulative, 3, "Gt")))
	}
	b.WriteString("\n" + rateChart(*res, width))

	if m.showPoints {
		b.WriteString("\n" + pointsTable(*res, max(m.height-22, 5)))
	}
	return b.String()
}

// rateChart draws the projected storage rate with the inflection year
// marked underneath.
func rateChart(res orchestration.ScenarioResult, width int) string {
	points := res.Trajectory.Points
	if len(points) == 0 || width <= 0 {
		return ""
	}
	cols := min(width, (len(points)+1)/2)
	lines := RenderBrailleChart(Normalize(Resample(res.Trajectory.Rates(), cols*2)), cols, chartRows)

	var b strings.Builder
	b.WriteString(labelStyle.Render("Storage rate") + "\n")
	for _, l := range lines {
		b.WriteString(chartStyle.Render(l) + "\n")
	}
	first, last := points[0].Year, points[len(points)-1].Year
	b.WriteString(markerStyle.Render(MarkerLine(cols, MarkerColumn(res.Trajectory.InflectionYear, first, last, cols))) + "\n")
	axis := fmt.Sprintf("%d%s%d", first, spaces(cols-8), last)
	b.WriteString(dimStyle.Render(axis) + "\n")
	return b.String()
}

// pointsTable lists at most limit yearly points.
func pointsTable(res orchestration.ScenarioResult, limit int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-6s %14s %12s", "Year", "Cumulative", "Rate")) + "\n")
	for i, p := range res.Trajectory.Points {
		if limit > 0 && i >= limit {
			b.WriteString(dimStyle.Render(fmt.Sprintf("... %d more", len(res.Trajectory.Points)-i)) + "\n")
			break
		}
		fmt.Fprintf(&b, "%-6d %14s %12s\n", p.Year,
			format.FormatQuantity(p.Cumulative, 2, "Gt"), format.FormatQuantity(p.Rate, 3, ""))
	}
	return b.String()
}

func (m Model) footerView() string {
	status := statusRunStyle.Render("running")
	switch {
	case m.done && m.err != nil:
		status = statusErrorStyle.Render("error")
	case m.done:
		status = statusDoneStyle.Render("done")
	}
	return " " + status + dimStyle.Render(" | ") + m.help.View(m.keymap)
}
