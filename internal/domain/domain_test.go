package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRawRecord_Values(t *testing.T) {
	rec := RawRecord{
		SiteID: "S01", SamplingDate: "2023-05-02", Species: "salmo trutta", GearType: "seine",
		Count: "none", Weight: "", Latitude: "44.5", Longitude: "-72.5",
	}

	values := rec.Values()
	if len(values) != len(Columns) {
		t.Fatalf("expected %d values, got %d", len(Columns), len(values))
	}

	back, err := RawRecordFromValues(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != rec {
		t.Errorf("expected %+v, got %+v", rec, back)
	}
}

func TestRawRecordFromValues_Mismatch(t *testing.T) {
	_, err := RawRecordFromValues([]string{"S01", "2023-05-02"})
	if !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("expected ErrColumnMismatch, got %v", err)
	}
}

func TestNewTable(t *testing.T) {
	raw := &RawTable{Records: []RawRecord{
		{SiteID: "S01", Species: "Salmo trutta", GearType: "seine", Count: "4", Latitude: " 44.5 ", Longitude: "-72.25"},
	}}

	table, err := NewTable(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", table.Len())
	}

	row := table.Rows[0]
	if row.Latitude != 44.5 || row.Longitude != -72.25 {
		t.Errorf("unexpected coordinates: %v, %v", row.Latitude, row.Longitude)
	}
	if row.Count != nil || row.Weight != nil || row.SamplingDate != nil {
		t.Error("typed fields should stay empty until cleaning steps run")
	}
	if row.Raw.Count != "4" {
		t.Errorf("raw values should be kept, got %q", row.Raw.Count)
	}
}

func TestNewTable_InvalidCoordinate(t *testing.T) {
	raw := &RawTable{Records: []RawRecord{
		{SiteID: "S01", Latitude: "44.5", Longitude: "-72.5"},
		{SiteID: "S02", Latitude: "44.5", Longitude: "west"},
	}}

	_, err := NewTable(raw)
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if got := err.Error(); got != `row 1: longitude: invalid coordinate: "west"` {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestTable_Clone(t *testing.T) {
	orig := &Table{Rows: []Observation{{SiteID: "S01", Count: Int64Ptr(3)}}}

	clone := orig.Clone()
	clone.Rows[0].SiteID = "S99"
	clone.Rows[0].Count = nil

	if orig.Rows[0].SiteID != "S01" || orig.Rows[0].Count == nil {
		t.Error("clone must not share rows with the original")
	}
}

func TestObservation_DateKey(t *testing.T) {
	var o Observation
	if o.DateKey() != "" {
		t.Error("missing date should give empty key")
	}

	d := time.Date(2023, time.June, 9, 0, 0, 0, 0, time.UTC)
	o.SamplingDate = &d
	if o.DateKey() != "2023-06-09" {
		t.Errorf("unexpected key %q", o.DateKey())
	}
}

func TestQCRun_Lifecycle(t *testing.T) {
	run := NewQCRun("default", "raw.csv")

	if run.Status != RunStatusRunning {
		t.Errorf("expected RUNNING, got %s", run.Status)
	}
	if run.Status.IsTerminal() {
		t.Error("RUNNING should not be terminal")
	}
	if run.Duration() != 0 {
		t.Error("unfinished run should have zero duration")
	}

	run.Steps = append(run.Steps,
		StepResult{StepID: "a", Counters: map[string]int64{"x": 2}},
		StepResult{StepID: "b", Counters: map[string]int64{"x": 3, "y": 1}},
	)
	if got := run.Counter("x"); got != 5 {
		t.Errorf("expected counter x = 5, got %d", got)
	}

	run.MarkSucceeded(42)
	if run.Status != RunStatusSucceeded || run.OutputRows != 42 || run.FinishedAt == nil {
		t.Errorf("unexpected state after MarkSucceeded: %+v", run)
	}
	if !run.Status.IsTerminal() {
		t.Error("SUCCEEDED should be terminal")
	}
}

func TestQCRun_MarkFailed(t *testing.T) {
	run := NewQCRun("default", "")
	run.MarkFailed("boom")

	if run.Status != RunStatusFailed || run.Error != "boom" || run.FinishedAt == nil {
		t.Errorf("unexpected state after MarkFailed: %+v", run)
	}
}
