// Package config parses the storagecast command line. Values come from
// flags, then STORAGECAST_* environment variables (optionally loaded from a
// .env file), then defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/agbru/storagecast/internal/errors"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "STORAGECAST_"

// Defaults.
const (
	DefaultTimeout  = 1 * time.Minute
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
	DefaultEnvFile  = ".env"
)

// AppConfig is the parsed configuration of one invocation.
type AppConfig struct {
	// RequestFile is a JSON or YAML calibration request. Empty selects the
	// built-in reference request.
	RequestFile string
	// DataFile is the historical series (year rate cumulative rows).
	DataFile string
	// GrowthRates overrides the request's growth-rate list when non-empty.
	GrowthRates []float64
	// YearEnd overrides the request's last projected year when non-zero.
	YearEnd int
	// ReferenceYear overrides the request's reference year when non-zero.
	ReferenceYear int

	OutputFile  string
	DBPath      string
	JSON        bool
	Timeout     time.Duration
	Concurrency int

	Verbose  bool
	Quiet    bool
	NoColor  bool
	TUI      bool
	LogLevel string

	Serve bool
	Addr  string

	EnvFile    string
	Completion string
}

// Validate checks flag combinations and ranges.
func (c AppConfig) Validate() error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	if c.Concurrency < 0 {
		return apperrors.NewConfigError("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.YearEnd < 0 {
		return apperrors.NewConfigError("year-end must not be negative, got %d", c.YearEnd)
	}
	for _, r := range c.GrowthRates {
		if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return apperrors.NewConfigError("growth rates must be finite and non-zero, got %g", r)
		}
	}
	if c.Quiet && c.TUI {
		return apperrors.NewConfigError("--quiet and --tui are mutually exclusive")
	}
	if c.Serve && c.TUI {
		return apperrors.NewConfigError("--serve and --tui are mutually exclusive")
	}
	switch c.Completion {
	case "", "bash", "zsh", "fish", "powershell":
	default:
		return apperrors.NewConfigError("unsupported completion shell %q", c.Completion)
	}
	return nil
}

// rateList is a flag.Value for comma-separated growth rates.
type rateList struct{ target *[]float64 }

func (r rateList) String() string {
	if r.target == nil {
		return ""
	}
	parts := make([]string, len(*r.target))
	for i, v := range *r.target {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (r rateList) Set(s string) error {
	rates, err := ParseRates(s)
	if err != nil {
		return err
	}
	*r.target = rates
	return nil
}

// ParseRates parses a comma-separated list of growth rates.
func ParseRates(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid growth rate %q", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("empty growth-rate list")
	}
	return out, nil
}

// ParseConfig parses args (without the program name) into an AppConfig.
// flag.ErrHelp is returned unchanged when help was requested.
func ParseConfig(programName string, args []string, errorOutput io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorOutput)

	var c AppConfig
	fs.StringVar(&c.RequestFile, "request", "", "Calibration request file (.json, .yaml).")
	fs.StringVar(&c.RequestFile, "r", "", "Shorthand for --request.")
	fs.StringVar(&c.DataFile, "data", "", "Historical series file (year rate cumulative).")
	fs.Var(rateList{&c.GrowthRates}, "rates", "Comma-separated growth rates overriding the request.")
	fs.IntVar(&c.YearEnd, "year-end", 0, "Last projected year (default from request, else 2100).")
	fs.IntVar(&c.ReferenceYear, "reference-year", 0, "Historical year to compare fitted curves against.")
	fs.StringVar(&c.OutputFile, "output", "", "Write the result document to this JSON file.")
	fs.StringVar(&c.OutputFile, "o", "", "Shorthand for --output.")
	fs.StringVar(&c.DBPath, "db", "", "Persist the run into this SQLite database.")
	fs.BoolVar(&c.JSON, "json", false, "Print the result document as JSON instead of a table.")
	fs.DurationVar(&c.Timeout, "timeout", DefaultTimeout, "Maximum run time.")
	fs.IntVar(&c.Concurrency, "concurrency", 0, "Scenarios evaluated in parallel (0 = number of CPUs).")
	fs.BoolVar(&c.Verbose, "verbose", false, "Print every projected year.")
	fs.BoolVar(&c.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&c.Quiet, "quiet", false, "Print only the summary.")
	fs.BoolVar(&c.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&c.NoColor, "no-color", false, "Disable colored output.")
	fs.BoolVar(&c.TUI, "tui", false, "Browse the results in the interactive viewer.")
	fs.StringVar(&c.LogLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error).")
	fs.BoolVar(&c.Serve, "serve", false, "Run the HTTP service.")
	fs.StringVar(&c.Addr, "addr", DefaultAddr, "Listen address of the HTTP service.")
	fs.StringVar(&c.EnvFile, "env-file", DefaultEnvFile, "Environment file loaded before STORAGECAST_* overrides.")
	fs.StringVar(&c.Completion, "completion", "", "Print a completion script (bash, zsh, fish, powershell).")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err := loadEnvFile(c.EnvFile, isFlagSet(fs, "env-file")); err != nil {
		return AppConfig{}, err
	}
	applyEnvOverrides(&c, fs)

	if c.NoColor || os.Getenv("NO_COLOR") != "" {
		c.NoColor = true
	}
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// loadEnvFile loads KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing default file is ignored; a
// missing file named explicitly is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return apperrors.NewConfigError("env file %s: %v", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.NewConfigError("env file %s: %v", path, err)
	}
	return nil
}
