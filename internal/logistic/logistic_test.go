package logistic

import (
	"math"
	"testing"
)

func TestCumulative(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                                  string
		year, peak, rate, capacity, baseline float64
		want                                  float64
	}{
		{"midpoint is halfway", 2050, 2050, 0.05, 1000, 0, 500},
		{"midpoint with baseline", 2050, 2050, 0.05, 1000, 100, 550},
		{"one rate-time before peak", 2030, 2050, 0.05, 1000, 0, 1000 / (1 + math.E)},
		{"non-positive amplitude", 2050, 2050, 0.05, 10, 20, 15},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Cumulative(tt.year, tt.peak, tt.rate, tt.capacity, tt.baseline)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cumulative() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRate_MatchesNumericDerivative(t *testing.T) {
	t.Parallel()
	c := Curve{PeakYear: 2070, GrowthRate: 0.08, Capacity: 5000, Baseline: 1.2}
	const h = 1e-4
	for _, year := range []float64{2000, 2030, 2050, 2069.5, 2070, 2090, 2150} {
		numeric := (c.Cumulative(year+h) - c.Cumulative(year-h)) / (2 * h)
		analytic := c.Rate(year)
		if math.Abs(numeric-analytic) > 1e-5*c.Rate(c.PeakYear) {
			t.Errorf("year %v: analytic rate %v, numeric %v", year, analytic, numeric)
		}
	}
}

func TestRate_PeakValue(t *testing.T) {
	t.Parallel()
	c := Curve{PeakYear: 2060, GrowthRate: 0.1, Capacity: 2000, Baseline: 0}
	// Rate peaks at amplitude * rate / 4.
	peak := c.Rate(c.PeakYear)
	if want := 2000 * 0.1 / 4; math.Abs(peak-want) > 1e-12 {
		t.Errorf("Rate(PeakYear) = %v, want %v", peak, want)
	}
	if c.Rate(2059) >= peak || c.Rate(2061) >= peak {
		t.Error("rate should be maximal at the peak year")
	}
}

func TestInflectionYear(t *testing.T) {
	t.Parallel()
	tests := []struct {
		peak, rate, want float64
	}{
		{2080, 0.05, 2080 - math.Log(2+math.Sqrt(3))/0.05},
		{2045, 0.2, 2045 - math.Log(2+math.Sqrt(3))/0.2},
	}
	for _, tt := range tests {
		if got := InflectionYear(tt.peak, tt.rate); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("InflectionYear(%v, %v) = %v, want %v", tt.peak, tt.rate, got, tt.want)
		}
		if InflectionYear(tt.peak, tt.rate) >= tt.peak {
			t.Errorf("inflection year should precede the peak for positive rates")
		}
	}
}

func TestExp_ClampsExtremeArguments(t *testing.T) {
	t.Parallel()
	for _, x := range []float64{1e6, -1e6, math.MaxFloat64, -math.MaxFloat64} {
		v := Exp(x)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			t.Errorf("Exp(%v) = %v, want finite", x, v)
		}
	}
	if Exp(1) != math.E {
		t.Errorf("Exp(1) = %v, want e", Exp(1))
	}
}

func TestEvaluation_StaysFiniteFarFromPeak(t *testing.T) {
	t.Parallel()
	c := Curve{PeakYear: 2080, GrowthRate: 5, Capacity: 1e4, Baseline: 0}
	for _, year := range []float64{-1e9, 1000, 3000, 1e9} {
		cum, rate := c.Cumulative(year), c.Rate(year)
		if math.IsNaN(cum) || math.IsInf(cum, 0) || math.IsNaN(rate) || math.IsInf(rate, 0) {
			t.Errorf("year %v: cumulative %v rate %v, want finite", year, cum, rate)
		}
	}
}
