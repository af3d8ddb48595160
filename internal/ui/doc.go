// Package ui holds the color themes shared by the CLI presenter and the
// interactive scenario viewer. The CLI uses ANSI escape codes through the
// Color* helpers; the viewer uses the lipgloss palette from TUITheme.
package ui
