package orchestration

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/logging"
	"github.com/agbru/storagecast/internal/projection"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/series"
)

// RunRecorder counts finished runs by outcome.
type RunRecorder interface {
	RecordRun(status string)
}

// Run outcomes passed to RunRecorder.
const (
	RunSucceeded = "success"
	RunFailed    = "error"
	RunCanceled  = "canceled"
)

// Runner executes complete requests: validation, history loading, the
// reference-year check, concurrent evaluation and document assembly.
type Runner struct {
	Calibrator  Calibrator
	Provider    series.Provider
	Concurrency int
	Reporter    ProgressReporter
	Recorder    RunRecorder
	Logger      logging.Logger
	Out         io.Writer
}

// RunResult is everything a finished run produced.
type RunResult struct {
	Document *export.Document
	Results  []ScenarioResult
	Duration time.Duration
}

// Run processes req. Invalid requests and missing reference data are
// rejected before any grid search starts. If any scenario fails the whole
// run fails; partial documents are never returned.
func (r *Runner) Run(ctx context.Context, req scenario.Request) (*RunResult, error) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(attribute.Int("run.scenarios", len(req.GrowthRates))))
	defer span.End()

	res, err := r.run(ctx, req)
	r.record(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger().Error("run failed", err, logging.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	res.Duration = time.Since(start)
	span.SetAttributes(attribute.String("run.id", res.Document.RunID))
	r.logger().Info("run completed",
		logging.String("run_id", res.Document.RunID),
		logging.Int("scenarios", len(res.Results)),
		logging.Duration("elapsed", res.Duration))
	return res, nil
}

func (r *Runner) run(ctx context.Context, req scenario.Request) (*RunResult, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	history, err := r.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := ReferenceFor(req, history)
	if err != nil {
		return nil, err
	}

	plan := Plan{
		Scenarios:   req.Scenarios(),
		Horizon:     req.Horizon(),
		Projector:   projection.NewProjector(req.BaselineRule()),
		Concurrency: r.Concurrency,
	}
	fields := []logging.Field{
		logging.Int("scenarios", len(plan.Scenarios)),
		logging.Int("history_years", history.Len()),
		logging.Int("horizon_years", plan.Horizon.Years()),
	}
	if first, last, ok := history.Span(); ok {
		fields = append(fields, logging.Int("history_first", first), logging.Int("history_last", last))
	}
	r.logger().Debug("starting run", fields...)

	reporter := r.Reporter
	if reporter == nil {
		reporter = NullProgressReporter{}
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}
	results := ExecuteScenarios(ctx, r.Calibrator, plan, reporter, out)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := FirstError(results); err != nil {
		if apperrors.IsContextError(err) || apperrors.IsInvalidParameter(err) {
			return nil, err
		}
		return nil, apperrors.CalculationError{Cause: err}
	}

	fits := make([]calibration.FittedParameters, 0, len(results))
	trajectories := make([]projection.Trajectory, 0, len(results))
	for _, res := range results {
		fits = append(fits, res.Fit)
		trajectories = append(trajectories, res.Trajectory)
	}
	doc, err := export.NewDocument(req, history, ref, fits, trajectories)
	if err != nil {
		return nil, err
	}
	return &RunResult{Document: doc, Results: results}, nil
}

func (r *Runner) loadHistory(ctx context.Context) (series.Series, error) {
	if r.Provider == nil {
		return series.Series{}, nil
	}
	s, err := r.Provider.Load(ctx)
	if err != nil {
		return series.Series{}, apperrors.WrapError(err, "loading historical series")
	}
	return s, nil
}

// ReferenceFor looks up the request's reference year in history. It returns
// nil when no reference year is set and a DataIntegrityError when the year
// is not recorded.
func ReferenceFor(req scenario.Request, history series.Series) (*export.Reference, error) {
	if req.ReferenceYear == 0 {
		return nil, nil
	}
	p, err := history.At(req.ReferenceYear)
	if err != nil {
		return nil, err
	}
	return &export.Reference{Year: p.Year, ObservedCumulative: p.Cumulative}, nil
}

func (r *Runner) record(err error) {
	if r.Recorder == nil {
		return
	}
	switch {
	case err == nil:
		r.Recorder.RecordRun(RunSucceeded)
	case apperrors.IsContextError(err):
		r.Recorder.RecordRun(RunCanceled)
	default:
		r.Recorder.RecordRun(RunFailed)
	}
}

func (r *Runner) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Nop()
	}
	return r.Logger
}
