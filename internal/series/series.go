//go:generate mockgen -source=series.go -destination=mocks/mock_series.go -package=mocks

// Package series loads the historical injection record: yearly storage rate
// and cumulative stored volume.
package series

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/agbru/storagecast/internal/errors"
)

// MegatonnesPerGigatonne converts the raw cumulative column to Gt.
const MegatonnesPerGigatonne = 1000.0

// Point is one year of history.
type Point struct {
	Year int `json:"year"`
	// Rate is the injection rate in Gt/year.
	Rate float64 `json:"rate"`
	// Cumulative is the total stored volume in Gt.
	Cumulative float64 `json:"cumulative"`
}

// Series is a historical record ordered by strictly increasing year.
type Series struct {
	Points []Point `json:"points"`
}

// Len returns the number of years in the series.
func (s Series) Len() int { return len(s.Points) }

// At returns the point recorded for year. A missing year is a
// DataIntegrityError; no neighbouring value is substituted.
func (s Series) At(year int) (Point, error) {
	for _, p := range s.Points {
		if p.Year == year {
			return p, nil
		}
		if p.Year > year {
			break
		}
	}
	return Point{}, apperrors.DataIntegrityError{Year: year, Message: "year not present in historical series"}
}

// Span returns the first and last recorded years.
func (s Series) Span() (first, last int, ok bool) {
	if len(s.Points) == 0 {
		return 0, 0, false
	}
	return s.Points[0].Year, s.Points[len(s.Points)-1].Year, true
}

// Provider supplies the historical series for a run.
type Provider interface {
	// Load reads the series. Implementations should honour ctx cancellation.
	Load(ctx context.Context) (Series, error)
}

// Parse reads whitespace-delimited rows of "year rate cumulative". The raw
// cumulative column is in Mt and is converted to Gt. Blank lines and lines
// starting with '#' are skipped.
func Parse(r io.Reader) (Series, error) {
	var s Series
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := parseRow(text, line)
		if err != nil {
			return Series{}, err
		}
		if n := len(s.Points); n > 0 {
			prev := s.Points[n-1]
			if p.Year <= prev.Year {
				return Series{}, apperrors.DataIntegrityError{
					Year:    p.Year,
					Message: fmt.Sprintf("line %d: year does not increase (previous %d)", line, prev.Year),
				}
			}
			if p.Cumulative < prev.Cumulative {
				return Series{}, apperrors.DataIntegrityError{
					Year:    p.Year,
					Message: fmt.Sprintf("line %d: cumulative storage decreases", line),
				}
			}
		}
		s.Points = append(s.Points, p)
	}
	if err := scanner.Err(); err != nil {
		return Series{}, fmt.Errorf("reading historical series: %w", err)
	}
	return s, nil
}

func parseRow(text string, line int) (Point, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return Point{}, apperrors.DataIntegrityError{
			Message: fmt.Sprintf("line %d: expected 3 columns, got %d", line, len(fields)),
		}
	}
	// Some exports store years as floats ("2005.0").
	yearValue, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || !finite(yearValue) || yearValue != float64(int(yearValue)) {
		return Point{}, apperrors.DataIntegrityError{
			Message: fmt.Sprintf("line %d: invalid year %q", line, fields[0]),
		}
	}
	year := int(yearValue)
	rate, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || !finite(rate) {
		return Point{}, apperrors.DataIntegrityError{Year: year, Message: fmt.Sprintf("line %d: invalid rate %q", line, fields[1])}
	}
	cumulative, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || !finite(cumulative) {
		return Point{}, apperrors.DataIntegrityError{Year: year, Message: fmt.Sprintf("line %d: invalid cumulative %q", line, fields[2])}
	}
	return Point{Year: year, Rate: rate, Cumulative: cumulative / MegatonnesPerGigatonne}, nil
}

// FileProvider loads the series from a file on disk.
type FileProvider struct {
	Path string
}

// Load implements Provider.
func (f FileProvider) Load(ctx context.Context) (Series, error) {
	if err := ctx.Err(); err != nil {
		return Series{}, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return Series{}, fmt.Errorf("opening historical series: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// StaticProvider returns a series held in memory. The zero value is the
// empty series used when no data file is configured.
type StaticProvider struct {
	Series Series
}

// Load implements Provider.
func (s StaticProvider) Load(ctx context.Context) (Series, error) {
	if err := ctx.Err(); err != nil {
		return Series{}, err
	}
	return s.Series, nil
}

// finite rejects the NaN and ±Inf spellings strconv.ParseFloat accepts.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
