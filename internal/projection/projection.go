// Package projection turns fitted logistic parameters into yearly
// cumulative-storage and storage-rate trajectories over a projection horizon.
package projection

import (
	"math"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/logistic"
)

// DefaultCalibrationConstant is the additive constant c of the baseline rule
// exp(yearRateChange*w + c). Its value comes from the model's historical fit
// and should be reviewed by a domain expert before it is changed.
const DefaultCalibrationConstant = -182.6431721

// DefaultYearEnd is the last projected year when none is configured.
const DefaultYearEnd = 2100

// Horizon is the inclusive range of integer years to project.
type Horizon struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate rejects inverted horizons.
func (h Horizon) Validate() error {
	if h.End < h.Start {
		return apperrors.NewInvalidParameter("yearEnd", "horizon end %d is before start %d", h.End, h.Start)
	}
	return nil
}

// Years returns the number of years in the horizon.
func (h Horizon) Years() int {
	return h.End - h.Start + 1
}

// BaselineRule derives the cumulative value the projected curve starts from.
type BaselineRule struct {
	Weight   float64
	Constant float64
}

// DefaultBaselineRule returns a rule with the given weight and the default
// calibration constant.
func DefaultBaselineRule(weight float64) BaselineRule {
	return BaselineRule{Weight: weight, Constant: DefaultCalibrationConstant}
}

// Exponent returns year*Weight + Constant, the argument of the baseline's
// exponential.
func (b BaselineRule) Exponent(year int) float64 {
	return float64(year)*b.Weight + b.Constant
}

// Validate rejects rules whose baseline at year would exceed
// exp(logistic.MaxExponent). Such a baseline dwarfs any capacity and only
// exists through clamping.
func (b BaselineRule) Validate(year int) error {
	x := b.Exponent(year)
	if math.IsNaN(x) || x > logistic.MaxExponent {
		return apperrors.NewInvalidParameter("projectionWeight",
			"baseline exponent %d*%g%+g = %g exceeds %g", year, b.Weight, b.Constant, x, logistic.MaxExponent)
	}
	return nil
}

// Baseline evaluates exp(year*Weight) * exp(Constant). The two factors are
// combined into a single exponent since each overflows on its own for
// realistic years; the exponent is clamped like every other in the model.
func (b BaselineRule) Baseline(year int) float64 {
	return logistic.Exp(b.Exponent(year))
}

// Point is one projected year.
type Point struct {
	Year       int     `json:"year"`
	Cumulative float64 `json:"cumulative"`
	Rate       float64 `json:"rate"`
}

// Trajectory is the projection of one fitted scenario.
type Trajectory struct {
	GrowthRate     float64 `json:"growthRate"`
	PeakYear       float64 `json:"peakYear"`
	Capacity       float64 `json:"asymptoticCapacity"`
	Baseline       float64 `json:"baseline"`
	InflectionYear float64 `json:"inflectionYear"`
	InflectionRate float64 `json:"inflectionRate"`
	Points         []Point `json:"points"`
}

// Curve returns the logistic curve the trajectory was sampled from.
func (t Trajectory) Curve() logistic.Curve {
	return logistic.Curve{
		PeakYear:   t.PeakYear,
		GrowthRate: t.GrowthRate,
		Capacity:   t.Capacity,
		Baseline:   t.Baseline,
	}
}

// Rates returns the storage rate of every point, in year order.
func (t Trajectory) Rates() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Rate
	}
	return out
}

// Projector samples fitted curves over a horizon.
type Projector struct {
	rule BaselineRule
}

// NewProjector creates a projector using rule for the baseline.
func NewProjector(rule BaselineRule) *Projector {
	return &Projector{rule: rule}
}

// Project builds the trajectory of params over h. The baseline is evaluated
// at the horizon start, which is the year the rate regime changes.
func (p *Projector) Project(params calibration.FittedParameters, h Horizon) (Trajectory, error) {
	if err := h.Validate(); err != nil {
		return Trajectory{}, err
	}
	if err := p.rule.Validate(h.Start); err != nil {
		return Trajectory{}, err
	}
	if params.GrowthRate == 0 || math.IsNaN(params.GrowthRate) {
		return Trajectory{}, apperrors.NewInvalidParameter("growthRate", "must be non-zero")
	}

	curve := logistic.Curve{
		PeakYear:   params.PeakYear,
		GrowthRate: params.GrowthRate,
		Capacity:   params.AsymptoticCapacity,
		Baseline:   p.rule.Baseline(h.Start),
	}
	inflection := curve.InflectionYear()

	points := make([]Point, 0, h.Years())
	for year := h.Start; year <= h.End; year++ {
		y := float64(year)
		points = append(points, Point{
			Year:       year,
			Cumulative: curve.Cumulative(y),
			Rate:       curve.Rate(y),
		})
	}

	return Trajectory{
		GrowthRate:     params.GrowthRate,
		PeakYear:       params.PeakYear,
		Capacity:       params.AsymptoticCapacity,
		Baseline:       curve.Baseline,
		InflectionYear: inflection,
		InflectionRate: curve.Rate(inflection),
		Points:         points,
	}, nil
}
