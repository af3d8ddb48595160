package tui

import (
	"math"
	"strings"
)

// sparklineChars maps levels 0..7 to the block elements ▁▂▃▄▅▆▇█.
var sparklineChars = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline converts values in 0..100 into block characters. Values
// outside the range are clamped.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		idx := int(clampPercent(v) / 100 * 7)
		runes[i] = sparklineChars[min(idx, 7)]
	}
	return string(runes)
}

// Normalize rescales values linearly so the smallest maps to 0 and the
// largest to 100. A flat series maps to 50 everywhere. Non-finite values map
// to 0.
func Normalize(values []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			out[i] = 0
		case hi == lo:
			out[i] = 50
		default:
			out[i] = (v - lo) / (hi - lo) * 100
		}
	}
	return out
}

// Resample picks n evenly spaced samples from values, keeping the first and
// last. Shorter inputs are returned unchanged.
func Resample(values []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(values) <= n {
		return append([]float64(nil), values...)
	}
	if n == 1 {
		return []float64{values[0]}
	}
	out := make([]float64, n)
	step := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

// MarkerLine returns a line of width columns with a ▲ under column pos.
// An out-of-range pos yields a blank line.
func MarkerLine(width, pos int) string {
	if width <= 0 {
		return ""
	}
	line := []rune(strings.Repeat(" ", width))
	if pos >= 0 && pos < width {
		line[pos] = '▲'
	}
	return string(line)
}

// MarkerColumn maps year onto a chart of width columns spanning first..last.
// It returns -1 when year lies outside the span.
func MarkerColumn(year float64, first, last, width int) int {
	if width <= 0 || year < float64(first) || year > float64(last) {
		return -1
	}
	if last == first {
		return 0
	}
	return int(math.Round((year - float64(first)) / float64(last-first) * float64(width-1)))
}

// brailleDots maps (column 0-1, row 0-3) to braille dot bits; a braille
// character is U+2800 plus the sum of its dot bits.
var brailleDots = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// RenderBrailleChart plots values in 0..100 as a braille line chart of
// width characters by rows lines. Each character holds two samples, so at
// most 2*width values are drawn, starting from the left.
func RenderBrailleChart(values []float64, width, rows int) []string {
	if width <= 0 || rows <= 0 || len(values) == 0 {
		return nil
	}
	dotRows := rows * 4
	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat("⠀", width))
	}
	for i, v := range values {
		if i >= width*2 {
			break
		}
		dotRow := dotRows - 1 - int(clampPercent(v)/100*float64(dotRows-1))
		grid[dotRow/4][i/2] |= brailleDots[i%2][dotRow%4]
	}
	out := make([]string, rows)
	for r := range grid {
		out[r] = string(grid[r])
	}
	return out
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
