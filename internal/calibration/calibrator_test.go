package calibration

import (
	"math"
	"sync"
	"testing"
	"time"

	apperrors "github.com/agbru/storagecast/internal/errors"
)

// referenceScenario is the end-to-end scenario used throughout the tests.
func referenceScenario(rate float64) GrowthScenario {
	return GrowthScenario{
		GrowthRate:    rate,
		StartYear:     2020,
		StartRate:     10,
		TargetYear:    2050,
		TargetRate:    50,
		PeakYearRange: Range{Min: 2030, Max: 2080, Count: 51},
		CapacityRange: Range{Min: 100, Max: 10000, Count: 50},
	}
}

func contains(values []float64, v float64) bool {
	for _, c := range values {
		if c == v {
			return true
		}
	}
	return false
}

func TestFit_ReferenceScenario(t *testing.T) {
	t.Parallel()
	s := referenceScenario(0.05)
	got, err := NewGridSearchCalibrator().Fit(s)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if got.PeakYear < 2030 || got.PeakYear > 2080 {
		t.Errorf("PeakYear = %v, want within [2030, 2080]", got.PeakYear)
	}
	if got.AsymptoticCapacity < 100 || got.AsymptoticCapacity > 10000 {
		t.Errorf("AsymptoticCapacity = %v, want within [100, 10000]", got.AsymptoticCapacity)
	}
	if !contains(LinearCandidates(s.PeakYearRange), got.PeakYear) {
		t.Errorf("PeakYear %v is not a grid point", got.PeakYear)
	}
	if !contains(LogCandidates(s.CapacityRange), got.AsymptoticCapacity) {
		t.Errorf("AsymptoticCapacity %v is not a grid point", got.AsymptoticCapacity)
	}

	// The start condition pushes the peak to the edge of the grid and the
	// target selects the 46th capacity (100 * 100^(45/49)).
	if got.PeakYear != 2080 {
		t.Errorf("PeakYear = %v, want 2080", got.PeakYear)
	}
	wantCapacity := 100 * math.Pow(100, 45.0/49.0)
	if math.Abs(got.AsymptoticCapacity-wantCapacity) > 1e-6*wantCapacity {
		t.Errorf("AsymptoticCapacity = %v, want %v", got.AsymptoticCapacity, wantCapacity)
	}
	if got.GrowthRate != 0.05 {
		t.Errorf("GrowthRate = %v, want 0.05", got.GrowthRate)
	}
	// Target residual of about 1.13 Gt/year, squared.
	if math.Abs(got.TargetError-1.2792657) > 1e-4 {
		t.Errorf("TargetError = %v, want ~1.27927", got.TargetError)
	}
}

func TestFit_Deterministic(t *testing.T) {
	t.Parallel()
	c := NewGridSearchCalibrator()
	s := referenceScenario(0.08)
	first, err := c.Fit(s)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Fit(s)
		if err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		if again != first {
			t.Fatalf("run %d: got %+v, want %+v", i, again, first)
		}
	}
}

func TestFit_ConcurrentCallsAgree(t *testing.T) {
	t.Parallel()
	c := NewGridSearchCalibrator()
	s := referenceScenario(0.1)
	want, err := c.Fit(s)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	var wg sync.WaitGroup
	results := make([]FittedParameters, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Fit(s)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if got != want {
			t.Errorf("goroutine %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestFit_ScenarioIndependence(t *testing.T) {
	t.Parallel()
	shared := NewGridSearchCalibrator()
	if _, err := shared.Fit(referenceScenario(0.08)); err != nil {
		t.Fatalf("Fit(0.08) error = %v", err)
	}
	after, err := shared.Fit(referenceScenario(0.05))
	if err != nil {
		t.Fatalf("Fit(0.05) error = %v", err)
	}
	alone, err := NewGridSearchCalibrator().Fit(referenceScenario(0.05))
	if err != nil {
		t.Fatalf("Fit(0.05) error = %v", err)
	}
	if after != alone {
		t.Errorf("fit for 0.05 changed after a sibling scenario: %+v vs %+v", after, alone)
	}
}

func TestFit_TieBreakPicksLowestIndex(t *testing.T) {
	t.Parallel()
	// With a very steep curve every peak year after the start year saturates
	// the exponent, so all start errors are identical.
	s := referenceScenario(1e6)
	got, err := NewGridSearchCalibrator().Fit(s)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got.PeakYear != 2030 {
		t.Errorf("PeakYear = %v, want first candidate 2030", got.PeakYear)
	}
	// The target rate is zero for every capacity, so the first capacity wins too.
	if got.AsymptoticCapacity != 100 {
		t.Errorf("AsymptoticCapacity = %v, want first candidate 100", got.AsymptoticCapacity)
	}
}

func TestFit_SinglePointGrid(t *testing.T) {
	t.Parallel()
	s := referenceScenario(0.05)
	s.PeakYearRange = Range{Min: 2060, Max: 2090, Count: 1}
	s.CapacityRange = Range{Min: 750, Max: 5000, Count: 1}

	got, err := NewGridSearchCalibrator().Fit(s)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got.PeakYear != 2060 || got.AsymptoticCapacity != 750 {
		t.Errorf("got (%v, %v), want (2060, 750)", got.PeakYear, got.AsymptoticCapacity)
	}
}

func TestFit_NonPositiveAmplitudeStillReturnsBestPoint(t *testing.T) {
	t.Parallel()
	s := referenceScenario(0.05)
	s.CapacityRange = Range{Min: 1, Max: 9, Count: 5}

	got, err := NewGridSearchCalibrator().Fit(s)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got.AsymptoticCapacity < 1 || got.AsymptoticCapacity > 9 {
		t.Errorf("AsymptoticCapacity = %v, want within [1, 9]", got.AsymptoticCapacity)
	}
	if math.IsNaN(got.TargetError) || math.IsInf(got.TargetError, 0) {
		t.Errorf("TargetError = %v, want finite", got.TargetError)
	}
}

func TestFit_NegativeGrowthRate(t *testing.T) {
	t.Parallel()
	got, err := NewGridSearchCalibrator().Fit(referenceScenario(-0.05))
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.IsNaN(got.PeakYear) || math.IsNaN(got.AsymptoticCapacity) {
		t.Errorf("got %+v, want finite parameters", got)
	}
}

func TestFit_InvalidParameters(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*GrowthScenario)
	}{
		{"zero growth rate", func(s *GrowthScenario) { s.GrowthRate = 0 }},
		{"NaN growth rate", func(s *GrowthScenario) { s.GrowthRate = math.NaN() }},
		{"infinite target rate", func(s *GrowthScenario) { s.TargetRate = math.Inf(1) }},
		{"zero peak-year count", func(s *GrowthScenario) { s.PeakYearRange.Count = 0 }},
		{"inverted peak-year range", func(s *GrowthScenario) { s.PeakYearRange.Min, s.PeakYearRange.Max = 2080, 2030 }},
		{"zero capacity count", func(s *GrowthScenario) { s.CapacityRange.Count = 0 }},
		{"inverted capacity range", func(s *GrowthScenario) { s.CapacityRange.Min, s.CapacityRange.Max = 500, 100 }},
		{"non-positive capacity", func(s *GrowthScenario) { s.CapacityRange.Min = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := referenceScenario(0.05)
			tt.mutate(&s)
			_, err := NewGridSearchCalibrator().Fit(s)
			if !apperrors.IsInvalidParameter(err) {
				t.Errorf("Fit() error = %v, want InvalidParameterError", err)
			}
		})
	}
}

func TestFit_RejectsBeforeSearching(t *testing.T) {
	t.Parallel()
	obs := &countingObserver{}
	c := NewGridSearchCalibrator(WithObserver(obs))

	out, err := c.Fit(referenceScenario(0))
	if !apperrors.IsInvalidParameter(err) {
		t.Fatalf("Fit() error = %v, want InvalidParameterError", err)
	}
	if out != (FittedParameters{}) {
		t.Errorf("Fit() returned partial output %+v", out)
	}
	if obs.fits != 0 {
		t.Errorf("observer saw %d fits, want none", obs.fits)
	}
}

type countingObserver struct {
	mu          sync.Mutex
	fits        int
	evaluations int
}

func (o *countingObserver) ObserveFit(_ float64, evaluations int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fits++
	o.evaluations += evaluations
}

func TestFit_ReportsEvaluationsToObserver(t *testing.T) {
	t.Parallel()
	obs := &countingObserver{}
	c := NewGridSearchCalibrator(WithObserver(obs))
	if _, err := c.Fit(referenceScenario(0.05)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if obs.fits != 1 {
		t.Errorf("fits = %d, want 1", obs.fits)
	}
	if want := 50 * (51 + 1); obs.evaluations != want {
		t.Errorf("evaluations = %d, want %d", obs.evaluations, want)
	}
}
