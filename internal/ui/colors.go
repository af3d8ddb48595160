package ui

// ColorReset clears all formatting.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorBold starts bold text.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline starts underlined text.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ColorRed is used for failures.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen is used for successful outcomes.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow is used for durations and warnings.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue is used for scenario labels.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorMagenta is used for fitted values.
func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan is used for secondary figures.
func ColorCyan() string { return GetCurrentTheme().Secondary }

// Colorize wraps s in the given escape code and a reset. With the no-color
// theme it returns s unchanged.
func Colorize(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + ColorReset()
}
