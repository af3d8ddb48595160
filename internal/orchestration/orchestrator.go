package orchestration

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/projection"
)

// ProgressBufferMultiplier sizes the progress channel relative to the number
// of scenarios so that workers never block on a slow display.
const ProgressBufferMultiplier = 2

const tracerName = "github.com/agbru/storagecast/internal/orchestration"

// Plan describes the work of one run: the scenarios to fit and how to
// project them.
type Plan struct {
	Scenarios []calibration.GrowthScenario
	Horizon   projection.Horizon
	Projector *projection.Projector
	// Concurrency bounds the number of scenarios evaluated at once.
	// Zero or negative selects runtime.NumCPU().
	Concurrency int
}

func (p Plan) limit() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return runtime.NumCPU()
}

// ExecuteScenarios fits and projects every scenario of the plan
// concurrently.
//
// Each worker writes only its own slot, so results are returned in plan
// order regardless of completion order. The context is checked before each
// scenario starts; a fit already running is never interrupted. Scenarios
// skipped because of cancellation carry the context error.
func ExecuteScenarios(ctx context.Context, calibrator Calibrator, plan Plan, progressReporter ProgressReporter, out io.Writer) []ScenarioResult {
	tracer := otel.Tracer(tracerName)
	results := make([]ScenarioResult, len(plan.Scenarios))
	progressChan := make(chan ProgressUpdate, len(plan.Scenarios)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(plan.Scenarios), out)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.limit())

	for i, s := range plan.Scenarios {
		idx, sc := i, s
		g.Go(func() error {
			results[idx] = ScenarioResult{Index: idx, GrowthRate: sc.GrowthRate}
			if err := gctx.Err(); err != nil {
				results[idx].Err = err
				return nil
			}

			_, span := tracer.Start(gctx, "scenario.evaluate",
				trace.WithAttributes(
					attribute.Int("scenario.index", idx),
					attribute.Float64("scenario.growth_rate", sc.GrowthRate),
				))
			defer span.End()

			start := time.Now()
			res := evaluate(calibrator, plan, sc)
			res.Index = idx
			res.Duration = time.Since(start)
			results[idx] = res

			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			} else {
				span.SetAttributes(
					attribute.Float64("fit.peak_year", res.Fit.PeakYear),
					attribute.Float64("fit.capacity", res.Fit.AsymptoticCapacity),
				)
			}
			progressChan <- ProgressUpdate{ScenarioIndex: idx, GrowthRate: sc.GrowthRate, Value: 1}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

func evaluate(calibrator Calibrator, plan Plan, s calibration.GrowthScenario) ScenarioResult {
	res := ScenarioResult{GrowthRate: s.GrowthRate}
	fit, err := calibrator.Fit(s)
	if err != nil {
		res.Err = err
		return res
	}
	res.Fit = fit
	traj, err := plan.Projector.Project(fit, plan.Horizon)
	if err != nil {
		res.Err = err
		return res
	}
	res.Trajectory = traj
	return res
}

// FirstError returns the error of the earliest failed scenario, or nil.
func FirstError(results []ScenarioResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// AnalyzeResults presents the results and derives the run's exit code. A run
// succeeds only when every scenario succeeded.
func AnalyzeResults(results []ScenarioResult, ref *export.Reference, presenter ResultPresenter, handler ErrorHandler, elapsed time.Duration, out io.Writer) int {
	presenter.PresentResults(results, ref, out)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(out, "\nRun status: Failure. %d of %d scenarios could not be completed.\n", failed, len(results))
		return handler.HandleError(FirstError(results), elapsed, out)
	}

	fmt.Fprintf(out, "\nRun status: Success. %d scenarios calibrated.\n", len(results))
	return apperrors.ExitSuccess
}
