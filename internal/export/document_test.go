package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agbru/storagecast/internal/calibration"
	"github.com/agbru/storagecast/internal/projection"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/series"
)

func sampleDocument(t *testing.T, ref *Reference) *Document {
	t.Helper()
	req := scenario.Default()
	req.GrowthRates = []float64{0.05}
	req.ApplyDefaults()

	fits := []calibration.FittedParameters{
		{GrowthRate: 0.05, PeakYear: 2080, AsymptoticCapacity: 6866.488450043012, StartError: 0.01, TargetError: 1.28},
	}
	traj, err := projection.NewProjector(req.BaselineRule()).Project(fits[0], projection.Horizon{Start: 2030, End: 2035})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	trajectories := []projection.Trajectory{traj}
	history := series.Series{Points: []series.Point{{Year: 2020, Rate: 0.04, Cumulative: 0.3}}}

	doc, err := NewDocument(req, history, ref, fits, trajectories)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return doc
}

func TestNewDocument(t *testing.T) {
	t.Parallel()
	doc := sampleDocument(t, nil)

	if doc.RunID == "" {
		t.Error("RunID is empty")
	}
	if doc.GeneratedAt.IsZero() {
		t.Error("GeneratedAt is zero")
	}
	if len(doc.Scenarios) != 1 {
		t.Fatalf("len(Scenarios) = %d, want 1", len(doc.Scenarios))
	}
	sc := doc.Scenarios[0]
	if sc.PeakYear != 2080 || sc.TargetError != 1.28 || len(sc.Points) != 6 {
		t.Errorf("scenario = %+v", sc)
	}
	if sc.ReferenceCumulative != nil {
		t.Error("ReferenceCumulative set without a reference year")
	}
	if len(doc.History) != 1 {
		t.Errorf("len(History) = %d, want 1", len(doc.History))
	}
}

func TestNewDocument_Reference(t *testing.T) {
	t.Parallel()
	doc := sampleDocument(t, &Reference{Year: 2020, ObservedCumulative: 0.3})
	got := doc.Scenarios[0].ReferenceCumulative
	if got == nil {
		t.Fatal("ReferenceCumulative not set")
	}
	if *got <= 0 || *got >= doc.Scenarios[0].AsymptoticCapacity {
		t.Errorf("ReferenceCumulative = %v, want within (0, capacity)", *got)
	}
}

func TestNewDocument_MisalignedInputs(t *testing.T) {
	t.Parallel()
	fits := []calibration.FittedParameters{{GrowthRate: 0.05}}
	if _, err := NewDocument(scenario.Default(), series.Series{}, nil, fits, nil); err == nil {
		t.Error("expected an error for misaligned fits and trajectories")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()
	doc := sampleDocument(t, &Reference{Year: 2020, ObservedCumulative: 0.3})

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"asymptoticCapacity"`) {
		t.Errorf("output lacks asymptoticCapacity: %s", buf.String())
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.RunID != doc.RunID || !got.GeneratedAt.Equal(doc.GeneratedAt) {
		t.Errorf("header = (%s, %v), want (%s, %v)", got.RunID, got.GeneratedAt, doc.RunID, doc.GeneratedAt)
	}
	if len(got.Scenarios) != 1 || len(got.Scenarios[0].Points) != len(doc.Scenarios[0].Points) {
		t.Fatalf("scenarios did not survive the round trip: %+v", got.Scenarios)
	}
	if got.Scenarios[0].Points[3] != doc.Scenarios[0].Points[3] {
		t.Errorf("point = %+v, want %+v", got.Scenarios[0].Points[3], doc.Scenarios[0].Points[3])
	}
	if got.Reference == nil || got.Reference.Year != 2020 {
		t.Errorf("Reference = %+v, want year 2020", got.Reference)
	}
}

func TestReadJSON_Rejects(t *testing.T) {
	t.Parallel()
	for name, input := range map[string]string{
		"malformed":      `{"runId":`,
		"invalid run id": `{"runId":"not-a-uuid","scenarios":[]}`,
	} {
		if _, err := ReadJSON(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestJSONFileExporter(t *testing.T) {
	t.Parallel()
	doc := sampleDocument(t, nil)
	path := filepath.Join(t.TempDir(), "results.json")

	if err := (JSONFileExporter{Path: path}).Export(context.Background(), doc); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ReadJSON(f)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.RunID != doc.RunID {
		t.Errorf("RunID = %s, want %s", got.RunID, doc.RunID)
	}
}
