package cli

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/projection"
)

func sampleResult(t *testing.T, index int, fit calibration.FittedParameters) orchestration.ScenarioResult {
	t.Helper()
	traj, err := projection.NewProjector(projection.DefaultBaselineRule(0.09)).
		Project(fit, projection.Horizon{Start: 2030, End: 2035})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	return orchestration.ScenarioResult{
		Index:      index,
		GrowthRate: fit.GrowthRate,
		Fit:        fit,
		Trajectory: traj,
		Duration:   time.Millisecond,
	}
}

func sampleResults(t *testing.T) []orchestration.ScenarioResult {
	return []orchestration.ScenarioResult{
		sampleResult(t, 0, calibration.FittedParameters{GrowthRate: 0.05, PeakYear: 2080, AsymptoticCapacity: 6866.488450043, TargetError: 1.2792657}),
		sampleResult(t, 1, calibration.FittedParameters{GrowthRate: 0.2, PeakYear: 2045, AsymptoticCapacity: 1389.495, TargetError: 0.5}),
	}
}

func TestPresentResults(t *testing.T) {
	useNoColor(t)
	var buf bytes.Buffer
	CLIResultPresenter{}.PresentResults(sampleResults(t), nil, &buf)
	out := buf.String()

	for _, want := range []string{
		"Scenario Summary", "Growth rate", "Peak year", "Capacity", "Target error",
		"0.05", "2080", "6,866.5 Gt", "2053.7", "1.2793",
		"0.2", "2045", "1,389.5 Gt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "At ") {
		t.Error("reference column printed without a reference")
	}
	if strings.Contains(out, "Trajectory for") {
		t.Error("trajectory printed without verbose")
	}
}

func TestPresentResultsWithReference(t *testing.T) {
	useNoColor(t)
	var buf bytes.Buffer
	ref := &export.Reference{Year: 2019, ObservedCumulative: 0.285}
	CLIResultPresenter{}.PresentResults(sampleResults(t), ref, &buf)

	if !strings.Contains(buf.String(), "At 2019 (obs 0.285 Gt)") {
		t.Errorf("missing reference header:\n%s", buf.String())
	}
}

func TestPresentResultsVerbose(t *testing.T) {
	useNoColor(t)
	var buf bytes.Buffer
	CLIResultPresenter{Verbose: true}.PresentResults(sampleResults(t)[:1], nil, &buf)
	out := buf.String()

	if !strings.Contains(out, "Trajectory for growth rate 0.05") {
		t.Errorf("missing trajectory heading:\n%s", out)
	}
	for year := 2030; year <= 2035; year++ {
		if !strings.Contains(out, "\n"+strconv.Itoa(year)+" ") {
			t.Errorf("missing year %d", year)
		}
	}
}

func TestPresentResultsFailure(t *testing.T) {
	useNoColor(t)
	results := sampleResults(t)
	results[1] = orchestration.ScenarioResult{Index: 1, GrowthRate: 0.2, Err: errors.New("boom")}

	var buf bytes.Buffer
	CLIResultPresenter{}.PresentResults(results, nil, &buf)
	if !strings.Contains(buf.String(), "Failure (boom)") {
		t.Errorf("failed scenario not reported:\n%s", buf.String())
	}
}

func TestHandleError(t *testing.T) {
	useNoColor(t)
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText string
	}{
		{"nil", nil, apperrors.ExitSuccess, ""},
		{"invalid parameter", apperrors.NewInvalidParameter("growthRates", "must not be zero"), apperrors.ExitErrorConfig, `Invalid parameter "growthRates"`},
		{"data integrity", apperrors.DataIntegrityError{Year: 2019, Message: "missing"}, apperrors.ExitErrorData, "Historical data rejected"},
		{"timeout", context.DeadlineExceeded, apperrors.ExitErrorTimeout, "Run stopped after"},
		{"canceled", context.Canceled, apperrors.ExitErrorCanceled, "Run stopped after"},
		{"generic", errors.New("disk full"), apperrors.ExitErrorGeneric, "Run failed after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := CLIResultPresenter{}.HandleError(tt.err, 2*time.Second, &buf)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(buf.String(), tt.wantText) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.wantText)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 3); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("ab", -1); got != "ab" {
		t.Errorf("padRight with negative length = %q", got)
	}
}
