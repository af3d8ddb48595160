//go:generate mockgen -source=document.go -destination=mocks/mock_export.go -package=mocks

// Package export assembles the output document of a run and writes it to
// its destinations: a JSON file and an SQLite database.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/storagecast/internal/calibration"
	"github.com/agbru/storagecast/internal/projection"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/series"
)

// Scenario is the exported result for one growth rate.
type Scenario struct {
	GrowthRate         float64 `json:"growthRate"`
	PeakYear           float64 `json:"peakYear"`
	AsymptoticCapacity float64 `json:"asymptoticCapacity"`
	InflectionYear     float64 `json:"inflectionYear"`
	InflectionRate     float64 `json:"inflectionRate"`
	Baseline           float64 `json:"baseline"`
	StartError         float64 `json:"startError"`
	TargetError        float64 `json:"targetError"`
	// ReferenceCumulative is the fitted curve's cumulative value at the
	// request's reference year, when one is set.
	ReferenceCumulative *float64           `json:"referenceCumulative,omitempty"`
	Points              []projection.Point `json:"points"`
}

// Reference is the observed value at the request's reference year.
type Reference struct {
	Year               int     `json:"year"`
	ObservedCumulative float64 `json:"observedCumulative"`
}

// Document is the complete output of one run.
type Document struct {
	RunID       string           `json:"runId"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Request     scenario.Request `json:"request"`
	History     []series.Point   `json:"history"`
	Reference   *Reference       `json:"reference,omitempty"`
	Scenarios   []Scenario       `json:"scenarios"`
}

// NewDocument combines fits and their trajectories, which must be index
// aligned, into a document with a fresh run identifier.
func NewDocument(req scenario.Request, history series.Series, ref *Reference,
	fits []calibration.FittedParameters, trajectories []projection.Trajectory) (*Document, error) {
	if len(fits) != len(trajectories) {
		return nil, fmt.Errorf("export: %d fits but %d trajectories", len(fits), len(trajectories))
	}
	doc := &Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Request:     req,
		History:     history.Points,
		Reference:   ref,
		Scenarios:   make([]Scenario, len(fits)),
	}
	if doc.History == nil {
		doc.History = []series.Point{}
	}
	for i, f := range fits {
		t := trajectories[i]
		s := Scenario{
			GrowthRate:         f.GrowthRate,
			PeakYear:           f.PeakYear,
			AsymptoticCapacity: f.AsymptoticCapacity,
			InflectionYear:     t.InflectionYear,
			InflectionRate:     t.InflectionRate,
			Baseline:           t.Baseline,
			StartError:         f.StartError,
			TargetError:        f.TargetError,
			Points:             t.Points,
		}
		if ref != nil {
			v := t.Curve().Cumulative(float64(ref.Year))
			s.ReferenceCumulative = &v
		}
		doc.Scenarios[i] = s
	}
	return doc, nil
}

// Exporter writes a finished document somewhere.
type Exporter interface {
	Export(ctx context.Context, doc *Document) error
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// ReadJSON decodes a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if _, err := uuid.Parse(doc.RunID); err != nil {
		return nil, fmt.Errorf("decoding document: invalid run id %q: %w", doc.RunID, err)
	}
	return &doc, nil
}

// JSONFileExporter writes the document to a file, replacing any previous
// content.
type JSONFileExporter struct {
	Path string
}

// Export implements Exporter.
func (e JSONFileExporter) Export(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(e.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(e.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", e.Path, err)
	}
	if err := WriteJSON(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// MultiExporter fans a document out to several exporters in order and stops
// at the first failure.
type MultiExporter []Exporter

// Export implements Exporter.
func (m MultiExporter) Export(ctx context.Context, doc *Document) error {
	for _, e := range m {
		if err := e.Export(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
