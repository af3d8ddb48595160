package calibration

import (
	"math"

	"gonum.org/v1/gonum/floats"

	apperrors "github.com/agbru/storagecast/internal/errors"
)

// Range describes a discretised search interval. Min and Max are both part
// of the grid; Count is the number of grid points.
type Range struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Count int     `json:"count" yaml:"count"`
}

// Validate checks the range bounds. Log-spaced ranges additionally require
// strictly positive bounds.
func (r Range) Validate(field string, logSpaced bool) error {
	switch {
	case r.Count < 1:
		return apperrors.NewInvalidParameter(field+".count", "must be at least 1, got %d", r.Count)
	case !isFinite(r.Min) || !isFinite(r.Max):
		return apperrors.NewInvalidParameter(field, "bounds must be finite, got [%g, %g]", r.Min, r.Max)
	case r.Min > r.Max:
		return apperrors.NewInvalidParameter(field, "min %g is greater than max %g", r.Min, r.Max)
	case logSpaced && r.Min <= 0:
		return apperrors.NewInvalidParameter(field+".min", "log-spaced range needs a positive lower bound, got %g", r.Min)
	}
	return nil
}

// LinearCandidates returns Count evenly spaced values from Min to Max
// inclusive. A single-point range yields [Min].
func LinearCandidates(r Range) []float64 {
	if r.Count <= 1 {
		return []float64{r.Min}
	}
	dst := floats.Span(make([]float64, r.Count), r.Min, r.Max)
	dst[0], dst[len(dst)-1] = r.Min, r.Max
	return dst
}

// LogCandidates returns Count values from Min to Max inclusive with a
// constant ratio between neighbours. A single-point range yields [Min].
func LogCandidates(r Range) []float64 {
	if r.Count <= 1 {
		return []float64{r.Min}
	}
	dst := floats.LogSpan(make([]float64, r.Count), r.Min, r.Max)
	// exp(log(x)) is not always x.
	dst[0], dst[len(dst)-1] = r.Min, r.Max
	return dst
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
