// Package logistic implements the closed-form logistic growth model used to
// describe cumulative storage: the S-shaped cumulative curve, its analytic
// rate of change and the inflection year of the rate curve.
//
// All functions are pure. A growth rate of zero is not a valid input; callers
// reject it before evaluating anything here.
package logistic

import "math"

// MaxExponent bounds the argument passed to math.Exp. exp(700) is about 1e304,
// so every intermediate value stays finite and error comparisons never see
// Inf or NaN.
const MaxExponent = 700.0

// inflectionOffset is ln(2 + √3), the distance (in units of 1/rate) between
// the peak year and the year at which the rate curve's concavity flips.
var inflectionOffset = math.Log(2 + math.Sqrt(3))

// Exp returns e**x with x clamped to [-MaxExponent, MaxExponent].
func Exp(x float64) float64 {
	switch {
	case x > MaxExponent:
		x = MaxExponent
	case x < -MaxExponent:
		x = -MaxExponent
	}
	return math.Exp(x)
}

// Cumulative evaluates the cumulative storage curve
//
//	baseline + (capacity - baseline) / (1 + exp(rate*(peakYear - year)))
//
// It approaches baseline as year → -∞ and capacity as year → +∞.
func Cumulative(year, peakYear, rate, capacity, baseline float64) float64 {
	return baseline + (capacity-baseline)/(1+Exp(rate*(peakYear-year)))
}

// Rate evaluates the analytic derivative of Cumulative with respect to year:
//
//	(capacity - baseline) * rate * e / (1 + e)^2,  e = exp(rate*(peakYear - year))
//
// evaluated as (capacity - baseline) * rate / (e + 2 + 1/e), which stays
// finite when e is at either clamp.
func Rate(year, peakYear, rate, capacity, baseline float64) float64 {
	e := Exp(rate * (peakYear - year))
	return (capacity - baseline) * rate / (e + 2 + 1/e)
}

// InflectionYear returns peakYear - ln(2+√3)/rate, the year before the peak at
// which the second derivative of Rate is zero.
func InflectionYear(peakYear, rate float64) float64 {
	return peakYear - inflectionOffset/rate
}

// Curve bundles the parameters of one logistic curve.
type Curve struct {
	PeakYear   float64
	GrowthRate float64
	Capacity   float64
	Baseline   float64
}

// Cumulative evaluates the curve's cumulative storage at year.
func (c Curve) Cumulative(year float64) float64 {
	return Cumulative(year, c.PeakYear, c.GrowthRate, c.Capacity, c.Baseline)
}

// Rate evaluates the curve's storage rate at year.
func (c Curve) Rate(year float64) float64 {
	return Rate(year, c.PeakYear, c.GrowthRate, c.Capacity, c.Baseline)
}

// InflectionYear returns the inflection year of the curve's rate.
func (c Curve) InflectionYear() float64 {
	return InflectionYear(c.PeakYear, c.GrowthRate)
}
