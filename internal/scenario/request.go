// Package scenario defines the calibration request accepted by the CLI and
// the HTTP service, its decoding from JSON or YAML and its validation.
package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/agbru/storagecast/internal/calibration"
	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/projection"
)

// Request is a full calibration request: the shared start and target
// conditions, the search grids, the growth rates to evaluate and the
// projection settings.
type Request struct {
	StartYear      int     `json:"startYear" yaml:"startYear" validate:"required"`
	StartRate      float64 `json:"startRate" yaml:"startRate"`
	StartRateSlope float64 `json:"startRateSlope" yaml:"startRateSlope"`
	TargetYear     int     `json:"targetYear" yaml:"targetYear" validate:"required"`
	TargetRate     float64 `json:"targetRate" yaml:"targetRate"`

	PeakYearRange calibration.Range `json:"peakYearRange" yaml:"peakYearRange"`
	CapacityRange calibration.Range `json:"capacityRange" yaml:"capacityRange"`
	GrowthRates   []float64         `json:"growthRates" yaml:"growthRates" validate:"required,min=1,dive,ne=0"`

	ProjectionWeight float64 `json:"projectionWeight" yaml:"projectionWeight"`
	YearRateChange   int     `json:"yearRateChange" yaml:"yearRateChange" validate:"required"`
	// YearEnd is the last projected year; zero selects projection.DefaultYearEnd.
	YearEnd int `json:"yearEnd,omitempty" yaml:"yearEnd,omitempty" validate:"omitempty,gtefield=YearRateChange"`
	// CalibrationConstant overrides projection.DefaultCalibrationConstant.
	CalibrationConstant *float64 `json:"calibrationConstant,omitempty" yaml:"calibrationConstant,omitempty"`
	// ReferenceYear, when set, must be present in the historical series.
	ReferenceYear int `json:"referenceYear,omitempty" yaml:"referenceYear,omitempty" validate:"omitempty,gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default returns the reference request: 10 Gt/year in 2020 growing to
// 50 Gt/year by 2050, rate regime change in 2030.
func Default() Request {
	return Request{
		StartYear:        2020,
		StartRate:        10,
		TargetYear:       2050,
		TargetRate:       50,
		PeakYearRange:    calibration.Range{Min: 2030, Max: 2080, Count: 51},
		CapacityRange:    calibration.Range{Min: 100, Max: 10000, Count: 50},
		GrowthRates:      []float64{0.05, 0.08, 0.1, 0.2},
		ProjectionWeight: 0.09,
		YearRateChange:   2030,
		YearEnd:          projection.DefaultYearEnd,
	}
}

// ApplyDefaults fills optional fields left unset.
func (r *Request) ApplyDefaults() {
	if r.YearEnd == 0 {
		r.YearEnd = projection.DefaultYearEnd
	}
	if r.CalibrationConstant == nil {
		c := projection.DefaultCalibrationConstant
		r.CalibrationConstant = &c
	}
}

// Validate checks the whole request. It returns an InvalidParameterError for
// the first problem found, before any grid search can start.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return apperrors.NewInvalidParameter(fe.Field(), "failed %q check (value %v)", fe.ActualTag(), fe.Value())
		}
		return err
	}
	if math.IsNaN(r.ProjectionWeight) || math.IsInf(r.ProjectionWeight, 0) {
		return apperrors.NewInvalidParameter("projectionWeight", "must be finite")
	}
	if c := r.CalibrationConstant; c != nil && (math.IsNaN(*c) || math.IsInf(*c, 0)) {
		return apperrors.NewInvalidParameter("calibrationConstant", "must be finite")
	}
	if err := r.BaselineRule().Validate(r.YearRateChange); err != nil {
		return err
	}
	for _, s := range r.Scenarios() {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return r.Horizon().Validate()
}

// Scenarios returns one GrowthScenario per growth rate, in request order.
func (r Request) Scenarios() []calibration.GrowthScenario {
	out := make([]calibration.GrowthScenario, len(r.GrowthRates))
	for i, rate := range r.GrowthRates {
		out[i] = calibration.GrowthScenario{
			GrowthRate:     rate,
			StartYear:      r.StartYear,
			StartRate:      r.StartRate,
			StartRateSlope: r.StartRateSlope,
			TargetYear:     r.TargetYear,
			TargetRate:     r.TargetRate,
			PeakYearRange:  r.PeakYearRange,
			CapacityRange:  r.CapacityRange,
		}
	}
	return out
}

// Horizon returns the projection horizon [YearRateChange, YearEnd].
func (r Request) Horizon() projection.Horizon {
	end := r.YearEnd
	if end == 0 {
		end = projection.DefaultYearEnd
	}
	return projection.Horizon{Start: r.YearRateChange, End: end}
}

// BaselineRule returns the projection baseline rule of the request.
func (r Request) BaselineRule() projection.BaselineRule {
	rule := projection.DefaultBaselineRule(r.ProjectionWeight)
	if r.CalibrationConstant != nil {
		rule.Constant = *r.CalibrationConstant
	}
	return rule
}

// Format is an encoding of a request file.
type Format string

// Supported request formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension; anything that is
// not .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a request, applies defaults and validates it.
func Decode(r io.Reader, format Format) (Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Request{}, fmt.Errorf("reading request: %w", err)
	}

	var req Request
	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, &req); err != nil {
			return Request{}, apperrors.NewInvalidParameter("request", "malformed YAML: %v", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return Request{}, apperrors.NewInvalidParameter("request", "malformed JSON: %v", err)
		}
	default:
		return Request{}, apperrors.NewInvalidParameter("format", "unsupported request format %q", format)
	}

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// LoadFile decodes the request stored at path.
func LoadFile(path string) (Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return Request{}, fmt.Errorf("opening request file: %w", err)
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}
