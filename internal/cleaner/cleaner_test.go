package cleaner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/engine"
	"github.com/shaiso/surveyqc/internal/generator"
	"github.com/shaiso/surveyqc/internal/rules"
	"github.com/shaiso/surveyqc/internal/steps"
	"github.com/shaiso/surveyqc/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(metrics *telemetry.Metrics) *Runner {
	return New(Config{Metrics: metrics, Logger: quietLogger()})
}

func rec(site, date, species, count, weight string) domain.RawRecord {
	return domain.RawRecord{
		SiteID:       site,
		SamplingDate: date,
		Species:      species,
		GearType:     "seine",
		Count:        count,
		Weight:       weight,
		Latitude:     "44.50000",
		Longitude:    "-72.50000",
	}
}

// simplified — проекция строки для сравнения через cmp.
type simplified struct {
	Site    string
	Date    string
	Species string
	Count   *int64
	Weight  *float64
}

func simplify(t *domain.Table) []simplified {
	out := make([]simplified, len(t.Rows))
	for i, o := range t.Rows {
		out[i] = simplified{
			Site:    o.SiteID,
			Date:    o.DateKey(),
			Species: o.Species,
			Count:   o.Count,
			Weight:  o.Weight,
		}
	}
	return out
}

func TestRun_DefaultPlan(t *testing.T) {
	raw := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "Salmo trutta", "4", "1.2"),
		rec("S01", "2023-05-03", "BROWN  TROUT", "none", ""),
		rec("S02", "2023-05-02", " salmo  trutta ", "unknown", "1250"),
		rec("S01", "2023-05-02", "Salmo trutta", "4", "1.2"),
		rec("S03", "2023/05/04", "brook trout", "", "n/a"),
		rec("S04", "not a date", "Cottus cognatus", "3.0", "0.4"),
	}}

	metrics := telemetry.NewMetrics()
	res, err := newTestRunner(metrics).Run(context.Background(), nil, raw, "raw.csv")
	require.NoError(t, err)
	require.NotNil(t, res.Table)

	want := []simplified{
		{"S01", "2023-05-02", "salmo_trutta", domain.Int64Ptr(4), domain.Float64Ptr(1.2)},
		{"S01", "2023-05-03", "salmo_trutta", domain.Int64Ptr(0), nil},
		{"S02", "2023-05-02", "salmo_trutta", nil, nil},
		{"S03", "2023-05-04", "salvelinus_fontinalis", nil, nil},
		{"S04", "", "cottus_cognatus", domain.Int64Ptr(3), domain.Float64Ptr(0.4)},
	}
	if diff := cmp.Diff(want, simplify(res.Table)); diff != "" {
		t.Errorf("cleaned table mismatch (-want +got):\n%s", diff)
	}

	run := res.Run
	assert.Equal(t, domain.RunStatusSucceeded, run.Status)
	assert.Equal(t, "default", run.Plan)
	assert.Equal(t, "raw.csv", run.Source)
	assert.Equal(t, 6, run.InputRows)
	assert.Equal(t, 5, run.OutputRows)
	require.Len(t, run.Steps, 5)
	assert.NotNil(t, run.FinishedAt)

	assert.EqualValues(t, 1, run.Counter(steps.CounterDuplicatesRemoved))
	assert.EqualValues(t, 1, run.Counter(steps.CounterWeightOutliers))
	assert.EqualValues(t, 1, run.Counter(steps.CounterDatesMissing))
	assert.EqualValues(t, 1, run.Counter("count_zeroed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("SUCCEEDED")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.Rows.WithLabelValues("output")))
}

func TestRun_InputUntouched(t *testing.T) {
	raw := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "BROWN TROUT", "none", "1250"),
	}}
	before := raw.Records[0]

	_, err := newTestRunner(nil).Run(context.Background(), nil, raw, "")
	require.NoError(t, err)

	assert.Equal(t, before, raw.Records[0])
}

func TestRun_ManualFixes(t *testing.T) {
	raw := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "salmo trutta", "4", "1.2"),
		rec("S01", "2023-05-03", "salmo trutta", "7", "2.5"),
	}}

	plan := &domain.Plan{
		Name: "manual",
		Steps: []domain.StepDef{
			{ID: "numeric", Type: steps.StepTypeCoerceNumeric},
			{ID: "fixes", Type: steps.StepTypeFixOutliers, Config: map[string]any{
				"fixes": []any{
					map[string]any{"row": 1, "field": "weight", "value": "NA"},
					map[string]any{"row": 0, "field": "count", "value": "5"},
				},
				"max_weight_kg": 0,
				"max_count":     0,
			}},
		},
	}

	res, err := newTestRunner(nil).Run(context.Background(), plan, raw, "")
	require.NoError(t, err)

	rows := res.Table.Rows
	require.Len(t, rows, 2)
	assert.Equal(t, domain.Int64Ptr(5), rows[0].Count)
	assert.Nil(t, rows[1].Weight)
	assert.EqualValues(t, 2, res.Run.Counter(steps.CounterManualFixes))
}

func TestRun_Errors(t *testing.T) {
	good := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "salmo trutta", "4", "1.2"),
	}}

	tests := []struct {
		name    string
		plan    *domain.Plan
		raw     *domain.RawTable
		wantErr error
	}{
		{
			name:    "no input",
			raw:     nil,
			wantErr: ErrNoInput,
		},
		{
			name:    "empty plan",
			plan:    &domain.Plan{Name: "empty"},
			raw:     good,
			wantErr: ErrInvalidPlan,
		},
		{
			name: "unknown step type",
			plan: &domain.Plan{Name: "bad", Steps: []domain.StepDef{
				{ID: "x", Type: "interpolate"},
			}},
			raw:     good,
			wantErr: engine.ErrUnknownStepType,
		},
		{
			name: "bad coordinate",
			raw: &domain.RawTable{Records: []domain.RawRecord{
				{SiteID: "S01", Latitude: "north", Longitude: "-72"},
			}},
			wantErr: domain.ErrInvalidCoordinate,
		},
		{
			name: "bad step config",
			plan: &domain.Plan{Name: "bad", Steps: []domain.StepDef{
				{ID: "dup", Type: steps.StepTypeDedupe, Config: map[string]any{"keys": []any{"weight"}}},
			}},
			raw:     good,
			wantErr: steps.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := telemetry.NewMetrics()
			res, err := newTestRunner(metrics).Run(context.Background(), tt.plan, tt.raw, "")

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			require.NotNil(t, res)
			assert.Nil(t, res.Table)
			assert.Equal(t, domain.RunStatusFailed, res.Run.Status)
			assert.NotEmpty(t, res.Run.Error)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("FAILED")))
		})
	}
}

func TestRun_StepFailureKeepsCompletedSteps(t *testing.T) {
	raw := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "salmo trutta", "4", "1.2"),
	}}
	plan := &domain.Plan{Name: "partial", Steps: []domain.StepDef{
		{ID: "dates", Type: steps.StepTypeParseDates},
		{ID: "dup", Type: steps.StepTypeDedupe, Config: map[string]any{"keys": []any{"latitude"}}},
	}}

	res, err := newTestRunner(nil).Run(context.Background(), plan, raw, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepFailed))
	assert.Contains(t, err.Error(), "dup")
	assert.Len(t, res.Run.Steps, 1)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "salmo trutta", "4", "1.2"),
	}}

	_, err := newTestRunner(nil).Run(ctx, nil, raw, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, steps.ErrStepCancelled))
}

func TestRun_GeneratedTableInvariants(t *testing.T) {
	r := rules.Default()

	cfg := generator.DefaultConfig()
	cfg.Rows = 400
	cfg.DuplicateRate = 0.1
	raw := generator.New(cfg, r).Generate()

	res, err := New(Config{Rules: r, Logger: quietLogger()}).Run(context.Background(), nil, raw, "")
	require.NoError(t, err)

	table := res.Table
	assert.Equal(t, 400, table.Len())
	assert.EqualValues(t, 40, res.Run.Counter(steps.CounterDuplicatesRemoved))

	seen := make(map[string]bool)
	for i, o := range table.Rows {
		key := o.SiteID + "|" + o.DateKey()
		assert.False(t, seen[key], "row %d: duplicate key %s", i, key)
		seen[key] = true

		require.NotNil(t, o.SamplingDate, "row %d", i)
		assert.True(t, r.IsCanonical(o.Species), "row %d: species %q", i, o.Species)

		if o.Count != nil {
			assert.GreaterOrEqual(t, *o.Count, int64(0))
			assert.LessOrEqual(t, *o.Count, r.Bounds.MaxCount)
		}
		if o.Weight != nil {
			assert.GreaterOrEqual(t, *o.Weight, 0.0)
			assert.LessOrEqual(t, *o.Weight, r.Bounds.MaxWeightKg)
		}
	}

	assert.Zero(t, res.Run.Counter(steps.CounterSpeciesUnresolved))
}

func TestRun_Deterministic(t *testing.T) {
	raw := generator.New(generator.DefaultConfig(), nil).Generate()

	first, err := newTestRunner(nil).Run(context.Background(), nil, raw, "")
	require.NoError(t, err)
	second, err := newTestRunner(nil).Run(context.Background(), nil, raw, "")
	require.NoError(t, err)

	if diff := cmp.Diff(simplify(first.Table), simplify(second.Table)); diff != "" {
		t.Errorf("repeated runs differ (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, first.Run.ID, second.Run.ID)
}

func TestRun_Timing(t *testing.T) {
	raw := generator.New(generator.DefaultConfig(), nil).Generate()

	res, err := newTestRunner(nil).Run(context.Background(), nil, raw, "")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Run.Duration(), time.Duration(0))
	for _, s := range res.Run.Steps {
		assert.NotEmpty(t, s.StepID)
		assert.NotNil(t, s.Counters)
	}
}

func TestRun_StepLogsCarryRunAndStep(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	raw := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "2023-05-02", "Salmo trutta", "4", "1.2"),
	}}

	res, err := New(Config{Logger: logger}).Run(context.Background(), nil, raw, "")
	require.NoError(t, err)

	var stepLines int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, `"msg":"step completed"`) {
			continue
		}
		stepLines++
		assert.Contains(t, line, `"run_id":"`+res.Run.ID.String()+`"`)
		assert.Contains(t, line, `"step_id":`)
	}
	assert.Equal(t, 5, stepLines)
	assert.Contains(t, buf.String(), `"step_id":"duplicates","step_type":"dedupe"`)
}
