package orchestration

import "testing"

func TestNewProgressAggregator(t *testing.T) {
	tests := []struct {
		n       int
		wantNil bool
	}{
		{3, false},
		{1, false},
		{0, true},
		{-1, true},
	}
	for _, tt := range tests {
		agg := NewProgressAggregator(tt.n)
		if (agg == nil) != tt.wantNil {
			t.Errorf("NewProgressAggregator(%d) nil = %v, want %v", tt.n, agg == nil, tt.wantNil)
			continue
		}
		if agg != nil && agg.NumScenarios() != tt.n {
			t.Errorf("NumScenarios() = %d, want %d", agg.NumScenarios(), tt.n)
		}
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	agg := NewProgressAggregator(2)

	ap := agg.Update(ProgressUpdate{ScenarioIndex: 0, Value: 1})
	if ap.ScenarioIndex != 0 || ap.Value != 1 {
		t.Errorf("update echoed (%d, %v), want (0, 1)", ap.ScenarioIndex, ap.Value)
	}
	if ap.AverageProgress != 0.5 {
		t.Errorf("AverageProgress = %v, want 0.5", ap.AverageProgress)
	}

	ap = agg.Update(ProgressUpdate{ScenarioIndex: 1, Value: 1})
	if ap.AverageProgress != 1 {
		t.Errorf("AverageProgress = %v, want 1", ap.AverageProgress)
	}
	if agg.CalculateAverage() != 1 {
		t.Errorf("CalculateAverage() = %v, want 1", agg.CalculateAverage())
	}
	if agg.GetETA() != 0 {
		t.Errorf("GetETA() = %v after completion, want 0", agg.GetETA())
	}
}

func TestDrainChannel(t *testing.T) {
	ch := make(chan ProgressUpdate, 3)
	ch <- ProgressUpdate{ScenarioIndex: 0, Value: 1}
	ch <- ProgressUpdate{ScenarioIndex: 1, Value: 1}
	close(ch)

	DrainChannel(ch)

	if _, ok := <-ch; ok {
		t.Error("channel still holds updates after DrainChannel")
	}
}
