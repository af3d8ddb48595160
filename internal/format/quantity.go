package format

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumberString inserts thousands separators into the integer part of a
// decimal string ("-1234.5" → "-1,234.5").
func FormatNumberString(s string) string {
	if s == "" {
		return s
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	b.Grow(len(intPart) + len(intPart)/3)
	head := len(intPart) % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}

// FormatQuantity renders v with the given number of decimals, thousands
// separators and a unit suffix ("6,866.5 Gt").
func FormatQuantity(v float64, decimals int, unit string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64) + " " + unit
	}
	s := FormatNumberString(strconv.FormatFloat(v, 'f', decimals, 64))
	if unit == "" {
		return s
	}
	return s + " " + unit
}
