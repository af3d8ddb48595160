package projection

import (
	"math"
	"testing"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
)

func referenceFit() calibration.FittedParameters {
	return calibration.FittedParameters{
		GrowthRate:         0.05,
		PeakYear:           2080,
		AsymptoticCapacity: 6866.488450043012,
	}
}

func TestBaselineRule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rule BaselineRule
		year int
		want float64
	}{
		{"reference weight", DefaultBaselineRule(0.09), 2030, 1.0584736314074845},
		{"zero weight and constant", BaselineRule{}, 2030, 1},
		{"constant only", BaselineRule{Constant: math.Log(3)}, 1990, 3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.rule.Baseline(tt.year)
			if math.Abs(got-tt.want) > 1e-9*math.Max(1, tt.want) {
				t.Errorf("Baseline(%d) = %v, want %v", tt.year, got, tt.want)
			}
		})
	}
}

func TestProject_ReferenceScenario(t *testing.T) {
	t.Parallel()
	p := NewProjector(DefaultBaselineRule(0.09))
	got, err := p.Project(referenceFit(), Horizon{Start: 2030, End: 2100})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	if len(got.Points) != 71 {
		t.Fatalf("len(Points) = %d, want 71", len(got.Points))
	}
	if got.Points[0].Year != 2030 || got.Points[70].Year != 2100 {
		t.Errorf("years span [%d, %d], want [2030, 2100]", got.Points[0].Year, got.Points[70].Year)
	}

	var rate2050 float64
	for _, pt := range got.Points {
		if pt.Year == 2050 {
			rate2050 = pt.Rate
		}
	}
	if math.Abs(rate2050-50) > 5 {
		t.Errorf("rate at 2050 = %v, want within 5 of 50", rate2050)
	}

	last := got.Points[len(got.Points)-1]
	if last.Cumulative > got.Capacity {
		t.Errorf("cumulative at 2100 = %v exceeds capacity %v", last.Cumulative, got.Capacity)
	}
	if math.Abs(last.Cumulative-5020.0899538707) > 1e-6 {
		t.Errorf("cumulative at 2100 = %v, want ~5020.09", last.Cumulative)
	}
	if math.Abs(got.InflectionYear-2053.6608420615) > 1e-9 {
		t.Errorf("InflectionYear = %v, want ~2053.66", got.InflectionYear)
	}
	// e/(1+e)^2 is 1/6 at the inflection point.
	wantInflectionRate := (got.Capacity - got.Baseline) * got.GrowthRate / 6
	if math.Abs(got.InflectionRate-wantInflectionRate) > 1e-9 {
		t.Errorf("InflectionRate = %v, want %v", got.InflectionRate, wantInflectionRate)
	}
}

func TestProject_CumulativeIsMonotone(t *testing.T) {
	t.Parallel()
	got, err := NewProjector(DefaultBaselineRule(0.09)).Project(referenceFit(), Horizon{Start: 2030, End: 2200})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	for i := 1; i < len(got.Points); i++ {
		if got.Points[i].Cumulative < got.Points[i-1].Cumulative {
			t.Fatalf("cumulative decreased at %d", got.Points[i].Year)
		}
		if got.Points[i].Rate <= 0 {
			t.Fatalf("rate %v at %d is not positive", got.Points[i].Rate, got.Points[i].Year)
		}
	}
}

func TestProject_InflectionIndependentOfHorizon(t *testing.T) {
	t.Parallel()
	p := NewProjector(DefaultBaselineRule(0.09))
	short, err := p.Project(referenceFit(), Horizon{Start: 2030, End: 2040})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	long, err := p.Project(referenceFit(), Horizon{Start: 2030, End: 2300})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if short.InflectionYear != long.InflectionYear || short.InflectionRate != long.InflectionRate {
		t.Errorf("inflection differs: (%v, %v) vs (%v, %v)",
			short.InflectionYear, short.InflectionRate, long.InflectionYear, long.InflectionRate)
	}
}

func TestProject_SingleYearHorizon(t *testing.T) {
	t.Parallel()
	got, err := NewProjector(DefaultBaselineRule(0.09)).Project(referenceFit(), Horizon{Start: 2030, End: 2030})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(got.Points) != 1 || got.Points[0].Year != 2030 {
		t.Errorf("Points = %+v, want one point at 2030", got.Points)
	}
}

func TestProject_InvalidInput(t *testing.T) {
	t.Parallel()
	p := NewProjector(DefaultBaselineRule(0.09))

	if _, err := p.Project(referenceFit(), Horizon{Start: 2100, End: 2030}); !apperrors.IsInvalidParameter(err) {
		t.Errorf("inverted horizon: error = %v, want InvalidParameterError", err)
	}

	fit := referenceFit()
	fit.GrowthRate = 0
	if _, err := p.Project(fit, Horizon{Start: 2030, End: 2100}); !apperrors.IsInvalidParameter(err) {
		t.Errorf("zero growth rate: error = %v, want InvalidParameterError", err)
	}
}

func TestTrajectoryRates(t *testing.T) {
	t.Parallel()
	tr := Trajectory{Points: []Point{{Year: 2030, Rate: 1}, {Year: 2031, Rate: 2.5}}}
	got := tr.Rates()
	if len(got) != 2 || got[0] != 1 || got[1] != 2.5 {
		t.Errorf("Rates() = %v, want [1 2.5]", got)
	}
}

func TestBaselineRule_ExponentBound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		weight  float64
		wantErr bool
	}{
		{"reference weight", 0.09, false},
		{"large but bounded", 0.4, false},
		{"overflowing weight", 0.5, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rule := DefaultBaselineRule(tt.weight)
			err := rule.Validate(2030)
			if got := apperrors.IsInvalidParameter(err); got != tt.wantErr {
				t.Errorf("Validate(2030) error = %v, want invalid parameter: %v", err, tt.wantErr)
			}
			if b := rule.Baseline(2030); math.IsInf(b, 0) || math.IsNaN(b) {
				t.Errorf("Baseline(2030) = %v, want a finite value", b)
			}
		})
	}
}

func TestProject_BaselineStaysFinite(t *testing.T) {
	t.Parallel()
	h := Horizon{Start: 2030, End: 2100}

	if _, err := NewProjector(DefaultBaselineRule(0.5)).Project(referenceFit(), h); !apperrors.IsInvalidParameter(err) {
		t.Fatalf("overflowing weight: error = %v, want InvalidParameterError", err)
	}

	traj, err := NewProjector(DefaultBaselineRule(0.4)).Project(referenceFit(), h)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	finite := func(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }
	if !finite(traj.Baseline) || !finite(traj.InflectionRate) {
		t.Errorf("baseline %v, inflection rate %v", traj.Baseline, traj.InflectionRate)
	}
	for _, p := range traj.Points {
		if !finite(p.Cumulative) || !finite(p.Rate) {
			t.Fatalf("year %d: cumulative %v, rate %v", p.Year, p.Cumulative, p.Rate)
		}
	}
}
