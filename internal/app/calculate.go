package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/agbru/storagecast/internal/cli"
	"github.com/agbru/storagecast/internal/config"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/ui"
)

// runCalculate orchestrates one calibration run from the command line.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	logger, code := a.newLogger("cli")
	if logger == nil {
		return code
	}

	req, err := a.request()
	if err != nil {
		return cli.CLIResultPresenter{}.HandleError(err, 0, a.ErrWriter)
	}

	// Setup lifecycle (timeout + signals)
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	concurrency := config.EffectiveConcurrency(a.Config.Concurrency, len(req.GrowthRates))
	machineOutput := a.Config.Quiet || a.Config.JSON
	if !machineOutput {
		cli.PrintExecutionConfig(req, a.Config.Timeout, concurrency, out)
		cli.PrintExecutionMode(req.GrowthRates, out)
	}

	// Progress goes to the terminal only when a human reads the output.
	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if machineOutput {
		reporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	runner := orchestration.Runner{
		Calibrator:  a.calibrator(),
		Provider:    a.provider(),
		Concurrency: concurrency,
		Reporter:    reporter,
		Logger:      logger,
		Out:         progressOut,
	}
	start := time.Now()
	run, err := runner.Run(ctx, req)
	if err != nil {
		return cli.CLIResultPresenter{}.HandleError(err, time.Since(start), a.ErrWriter)
	}

	exitCode, err := cli.DisplayResults(out, run, cli.OutputConfig{
		JSON:    a.Config.JSON,
		Quiet:   a.Config.Quiet,
		Verbose: a.Config.Verbose,
	})
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing results: %v\n", err)
		return exitCode
	}
	if exitCode != apperrors.ExitSuccess {
		return exitCode
	}
	return a.saveRun(ctx, run, out)
}

// saveRun persists the run document to the configured file and database.
func (a *Application) saveRun(ctx context.Context, run *orchestration.RunResult, out io.Writer) int {
	exporter, closeExporter, err := a.exporter(ctx, true)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	defer closeExporter()
	if exporter == nil {
		return apperrors.ExitSuccess
	}

	if err := exporter.Export(ctx, run.Document); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving run: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if !a.Config.Quiet && !a.Config.JSON {
		if a.Config.OutputFile != "" {
			fmt.Fprintf(out, "\n%s✓ Run saved to: %s%s%s\n",
				ui.ColorGreen(), ui.ColorCyan(), a.Config.OutputFile, ui.ColorReset())
		}
		if a.Config.DBPath != "" {
			fmt.Fprintf(out, "%s✓ Run %s recorded in: %s%s%s\n",
				ui.ColorGreen(), run.Document.RunID, ui.ColorCyan(), a.Config.DBPath, ui.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// exporter assembles the configured exporters. includeFile is false for the
// HTTP service, where a single output file would be overwritten by every
// request. The returned exporter is nil when nothing is configured; the
// close function is always safe to call.
func (a *Application) exporter(ctx context.Context, includeFile bool) (export.Exporter, func(), error) {
	var exporters export.MultiExporter
	closeFn := func() {}

	if includeFile && a.Config.OutputFile != "" {
		exporters = append(exporters, export.JSONFileExporter{Path: a.Config.OutputFile})
	}
	if a.Config.DBPath != "" {
		db, err := export.OpenSQLite(ctx, a.Config.DBPath)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = func() { _ = db.Close() }
		exporters = append(exporters, export.NewSQLStore(db))
	}

	switch len(exporters) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return exporters[0], closeFn, nil
	default:
		return exporters, closeFn, nil
	}
}
