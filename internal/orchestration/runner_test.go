package orchestration_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/logging"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/series"
	"github.com/agbru/storagecast/internal/series/mocks"
)

type statusRecorder struct {
	mu       sync.Mutex
	statuses []string
}

func (s *statusRecorder) RecordRun(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func history() series.Series {
	return series.Series{Points: []series.Point{
		{Year: 2018, Rate: 0.03, Cumulative: 0.25},
		{Year: 2019, Rate: 0.035, Cumulative: 0.285},
		{Year: 2020, Rate: 0.04, Cumulative: 0.325},
	}}
}

func TestRunner_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Load(gomock.Any()).Return(history(), nil).Times(1)
	rec := &statusRecorder{}

	runner := &orchestration.Runner{
		Calibrator:  calibration.NewGridSearchCalibrator(),
		Provider:    provider,
		Concurrency: 2,
		Recorder:    rec,
	}
	req := scenario.Default()
	req.ReferenceYear = 2019

	res, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc := res.Document
	if len(doc.Scenarios) != len(req.GrowthRates) {
		t.Fatalf("len(Scenarios) = %d, want %d", len(doc.Scenarios), len(req.GrowthRates))
	}
	first := doc.Scenarios[0]
	if first.GrowthRate != 0.05 || first.PeakYear != 2080 {
		t.Errorf("first scenario = (%v, %v), want (0.05, 2080)", first.GrowthRate, first.PeakYear)
	}
	if math.Abs(first.AsymptoticCapacity-6866.488450043012) > 1e-6*6866.49 {
		t.Errorf("capacity = %v, want ~6866.49", first.AsymptoticCapacity)
	}
	if len(first.Points) != 71 {
		t.Errorf("len(Points) = %d, want 71", len(first.Points))
	}
	if doc.Reference == nil || doc.Reference.ObservedCumulative != 0.285 {
		t.Errorf("Reference = %+v, want observed 0.285 at 2019", doc.Reference)
	}
	if first.ReferenceCumulative == nil {
		t.Error("ReferenceCumulative not set")
	}
	if len(doc.History) != 3 {
		t.Errorf("len(History) = %d, want 3", len(doc.History))
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != orchestration.RunSucceeded {
		t.Errorf("statuses = %v, want [success]", rec.statuses)
	}
}

// panickingCalibrator fails the test if a grid search starts.
type panickingCalibrator struct{ t *testing.T }

func (p panickingCalibrator) Fit(calibration.GrowthScenario) (calibration.FittedParameters, error) {
	p.t.Error("grid search started for a rejected run")
	return calibration.FittedParameters{}, nil
}

func TestRunner_InvalidRequestStopsBeforeLoading(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: any Load call fails the test.
	provider := mocks.NewMockProvider(ctrl)
	rec := &statusRecorder{}
	runner := &orchestration.Runner{Calibrator: panickingCalibrator{t}, Provider: provider, Recorder: rec}

	req := scenario.Default()
	req.GrowthRates = []float64{0.05, 0}

	res, err := runner.Run(context.Background(), req)
	if !apperrors.IsInvalidParameter(err) {
		t.Fatalf("Run() error = %v, want InvalidParameterError", err)
	}
	if res != nil {
		t.Error("Run() returned partial output")
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != orchestration.RunFailed {
		t.Errorf("statuses = %v, want [error]", rec.statuses)
	}
}

func TestRunner_MissingReferenceYear(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Load(gomock.Any()).Return(history(), nil)
	runner := &orchestration.Runner{Calibrator: panickingCalibrator{t}, Provider: provider}

	req := scenario.Default()
	req.ReferenceYear = 2010

	_, err := runner.Run(context.Background(), req)
	var dataErr apperrors.DataIntegrityError
	if !errors.As(err, &dataErr) {
		t.Fatalf("Run() error = %v, want DataIntegrityError", err)
	}
	if dataErr.Year != 2010 {
		t.Errorf("Year = %d, want 2010", dataErr.Year)
	}
}

func TestRunner_ProviderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bad := apperrors.DataIntegrityError{Year: 2005, Message: "cumulative storage decreases"}
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Load(gomock.Any()).Return(series.Series{}, bad)
	runner := &orchestration.Runner{Calibrator: panickingCalibrator{t}, Provider: provider}

	_, err := runner.Run(context.Background(), scenario.Default())
	if !apperrors.IsDataIntegrity(err) {
		t.Errorf("Run() error = %v, want DataIntegrityError", err)
	}
	if apperrors.ExitCodeFor(err) != apperrors.ExitErrorData {
		t.Errorf("exit code = %d, want %d", apperrors.ExitCodeFor(err), apperrors.ExitErrorData)
	}
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &statusRecorder{}
	runner := &orchestration.Runner{Calibrator: calibration.NewGridSearchCalibrator(), Recorder: rec}

	_, err := runner.Run(ctx, scenario.Default())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != orchestration.RunCanceled {
		t.Errorf("statuses = %v, want [canceled]", rec.statuses)
	}
}

func TestReferenceFor(t *testing.T) {
	req := scenario.Default()
	ref, err := orchestration.ReferenceFor(req, history())
	if err != nil || ref != nil {
		t.Errorf("ReferenceFor() without a year = (%v, %v), want (nil, nil)", ref, err)
	}

	req.ReferenceYear = 2020
	ref, err = orchestration.ReferenceFor(req, history())
	if err != nil {
		t.Fatalf("ReferenceFor() error = %v", err)
	}
	if ref.Year != 2020 || ref.ObservedCumulative != 0.325 {
		t.Errorf("ReferenceFor() = %+v, want {2020 0.325}", ref)
	}
}

func TestRunner_LogsHistorySpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Load(gomock.Any()).Return(history(), nil)
	var buf bytes.Buffer
	logger, err := logging.NewFromLevel(&buf, "debug", "test", false)
	if err != nil {
		t.Fatal(err)
	}
	runner := &orchestration.Runner{
		Calibrator: calibration.NewGridSearchCalibrator(),
		Provider:   provider,
		Logger:     logger,
	}
	req := scenario.Default()
	req.GrowthRates = []float64{0.2}

	if _, err := runner.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{`"history_years":3`, `"history_first":2018`, `"history_last":2020`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log misses %s:\n%s", want, buf.String())
		}
	}
}
