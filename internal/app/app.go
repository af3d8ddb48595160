package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agbru/storagecast/internal/calibration"
	"github.com/agbru/storagecast/internal/cli"
	"github.com/agbru/storagecast/internal/config"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/logging"
	"github.com/agbru/storagecast/internal/metrics"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/series"
	"github.com/agbru/storagecast/internal/server"
	"github.com/agbru/storagecast/internal/tui"
	"github.com/agbru/storagecast/internal/ui"
)

// Application represents the storagecast application instance.
type Application struct {
	Config     config.AppConfig
	Calibrator orchestration.Calibrator
	ErrWriter  io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithCalibrator replaces the grid-search calibrator.
func WithCalibrator(c orchestration.Calibrator) AppOption {
	return func(a *Application) { a.Calibrator = c }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "storagecast"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.Serve:
		return a.runServe(ctx)
	case a.Config.TUI:
		return a.runTUI(ctx)
	default:
		return a.runCalculate(ctx, out)
	}
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServe runs the HTTP service until SIGINT or SIGTERM.
func (a *Application) runServe(ctx context.Context) int {
	logger, code := a.newLogger("server")
	if logger == nil {
		return code
	}
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	provider := a.provider()
	collector := metrics.NewCollector()
	calibrator := a.Calibrator
	if calibrator == nil {
		calibrator = calibration.NewGridSearchCalibrator(calibration.WithObserver(collector))
	}

	exporter, closeExporter, err := a.exporter(ctx, false)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	defer closeExporter()

	srv := server.New(server.Config{
		Addr:           a.Config.Addr,
		Concurrency:    a.Config.Concurrency,
		RequestTimeout: a.Config.Timeout,
		Security:       server.DefaultSecurityConfig(),
	}, calibrator, provider, exporter, collector, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("server stopped", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runTUI launches the interactive scenario viewer.
func (a *Application) runTUI(ctx context.Context) int {
	req, err := a.request()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	provider := a.provider()

	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// Log lines on the terminal would tear the alternate screen.
	runner := orchestration.Runner{
		Calibrator:  a.calibrator(),
		Provider:    provider,
		Concurrency: config.EffectiveConcurrency(a.Config.Concurrency, len(req.GrowthRates)),
		Logger:      logging.Nop(),
	}
	return tui.Run(ctx, runner, req, Version)
}

// request builds the calibration request: the request file or the built-in
// reference request, then command-line overrides.
func (a *Application) request() (scenario.Request, error) {
	req := scenario.Default()
	if a.Config.RequestFile != "" {
		loaded, err := scenario.LoadFile(a.Config.RequestFile)
		if err != nil {
			return scenario.Request{}, err
		}
		req = loaded
	}
	if len(a.Config.GrowthRates) > 0 {
		req.GrowthRates = append([]float64(nil), a.Config.GrowthRates...)
	}
	if a.Config.YearEnd != 0 {
		req.YearEnd = a.Config.YearEnd
	}
	if a.Config.ReferenceYear != 0 {
		req.ReferenceYear = a.Config.ReferenceYear
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return scenario.Request{}, err
	}
	return req, nil
}

// provider returns the historical series source. Without a data file the
// series is empty, which is valid unless a reference year is requested.
func (a *Application) provider() series.Provider {
	if a.Config.DataFile == "" {
		return series.StaticProvider{}
	}
	return series.FileProvider{Path: a.Config.DataFile}
}

func (a *Application) calibrator() orchestration.Calibrator {
	if a.Calibrator != nil {
		return a.Calibrator
	}
	return calibration.NewGridSearchCalibrator()
}

// newLogger builds the structured logger writing to ErrWriter. A nil logger
// means the level was rejected and code is the exit code to return.
func (a *Application) newLogger(component string) (logging.Logger, int) {
	logger, err := logging.NewFromLevel(a.ErrWriter, a.Config.LogLevel, component, !a.Config.NoColor)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return nil, apperrors.ExitErrorConfig
	}
	return logger, apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
