package calibration

import (
	"time"

	"gonum.org/v1/gonum/floats"

	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/logistic"
)

// GrowthScenario is the input of one calibration: a growth rate plus the
// start and target conditions and search bounds shared by every scenario of
// a request.
type GrowthScenario struct {
	GrowthRate float64
	StartYear  int
	StartRate  float64
	// StartRateSlope is carried through to reports; the search does not use it.
	StartRateSlope float64
	TargetYear     int
	TargetRate     float64
	PeakYearRange  Range
	CapacityRange  Range
}

// Validate rejects scenarios the search cannot evaluate.
func (s GrowthScenario) Validate() error {
	if !isFinite(s.GrowthRate) {
		return apperrors.NewInvalidParameter("growthRate", "must be finite, got %g", s.GrowthRate)
	}
	if s.GrowthRate == 0 {
		return apperrors.NewInvalidParameter("growthRate", "must be non-zero")
	}
	if !isFinite(s.StartRate) || !isFinite(s.TargetRate) || !isFinite(s.StartRateSlope) {
		return apperrors.NewInvalidParameter("startRate/targetRate", "must be finite")
	}
	if err := s.PeakYearRange.Validate("peakYearRange", false); err != nil {
		return err
	}
	return s.CapacityRange.Validate("capacityRange", true)
}

// FittedParameters is the outcome of calibrating one GrowthScenario.
type FittedParameters struct {
	GrowthRate float64 `json:"growthRate"`
	// PeakYear is the logistic midpoint year.
	PeakYear float64 `json:"peakYear"`
	// AsymptoticCapacity is the ceiling of the cumulative curve, in Gt.
	AsymptoticCapacity float64 `json:"asymptoticCapacity"`
	// StartError is the squared start-rate residual of the chosen peak year.
	StartError float64 `json:"startError"`
	// TargetError is the squared target-rate residual of the chosen capacity.
	TargetError float64 `json:"targetError"`
}

// Observer is notified after every completed fit.
type Observer interface {
	ObserveFit(growthRate float64, evaluations int, elapsed time.Duration)
}

// GridSearchCalibrator runs the two-stage grid search. It holds no state
// between fits and is safe for concurrent use.
type GridSearchCalibrator struct {
	observer Observer
}

// Option configures a GridSearchCalibrator.
type Option func(*GridSearchCalibrator)

// WithObserver registers an observer for fit statistics.
func WithObserver(o Observer) Option {
	return func(c *GridSearchCalibrator) { c.observer = o }
}

// NewGridSearchCalibrator creates a calibrator.
func NewGridSearchCalibrator(opts ...Option) *GridSearchCalibrator {
	c := &GridSearchCalibrator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit finds the (peak year, capacity) grid point that best matches the
// scenario's start and target conditions.
func (c *GridSearchCalibrator) Fit(s GrowthScenario) (FittedParameters, error) {
	if err := s.Validate(); err != nil {
		return FittedParameters{}, err
	}
	start := time.Now()

	peakYears := LinearCandidates(s.PeakYearRange)
	capacities := LogCandidates(s.CapacityRange)

	rate := s.GrowthRate
	startYear := float64(s.StartYear)
	targetYear := float64(s.TargetYear)

	startErrs := make([]float64, len(peakYears))
	bestPeak := make([]float64, len(capacities))
	bestStartErr := make([]float64, len(capacities))
	targetErrs := make([]float64, len(capacities))

	for i, capacity := range capacities {
		for k, peak := range peakYears {
			predicted := (capacity - s.StartRate) / (1 + logistic.Exp(rate*(peak-startYear)))
			d := predicted - s.StartRate
			startErrs[k] = d * d
		}
		row := floats.MinIdx(startErrs)
		bestPeak[i] = peakYears[row]
		bestStartErr[i] = startErrs[row]

		predictedRate := logistic.Rate(targetYear, bestPeak[i], rate, capacity, s.StartRate)
		d := s.TargetRate - predictedRate
		targetErrs[i] = d * d
	}

	fit := floats.MinIdx(targetErrs)
	if c.observer != nil {
		c.observer.ObserveFit(rate, len(capacities)*(len(peakYears)+1), time.Since(start))
	}
	return FittedParameters{
		GrowthRate:         rate,
		PeakYear:           bestPeak[fit],
		AsymptoticCapacity: capacities[fit],
		StartError:         bestStartErr[fit],
		TargetError:        targetErrs[fit],
	}, nil
}
