package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/surveyqc/internal/domain"
)

// fakeRow отдаёт заранее заданные значения колонок в Scan.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, v := range r.values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.SetZero()
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

// fakeRows — pgx.Rows поверх списка fakeRow.
type fakeRows struct {
	rows   []fakeRow
	pos    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1].values, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return r.rows[r.pos-1].Scan(dest...)
}

// fakeDB запоминает запрос и аргументы и отдаёт заготовленные строки.
type fakeDB struct {
	rows  *fakeRows
	row   fakeRow
	query string
	args  []any
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.query, db.args = sql, args
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.query, db.args = sql, args
	return db.rows, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.query, db.args = sql, args
	return db.row
}

func (db *fakeDB) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not supported")
}

// runRow строит строку qc_runs в порядке колонок SELECT.
func runRow(t *testing.T, run *domain.QCRun) fakeRow {
	t.Helper()

	stepsJSON, err := json.Marshal(run.Steps)
	require.NoError(t, err)

	return fakeRow{values: []any{
		run.ID,
		run.Plan,
		nullString(run.Source),
		run.Status,
		run.InputRows,
		run.OutputRows,
		stepsJSON,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
	}}
}

func sampleRun(plan string, status domain.RunStatus) *domain.QCRun {
	started := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)

	return &domain.QCRun{
		ID:         uuid.New(),
		Plan:       plan,
		Source:     "raw.csv",
		Status:     status,
		InputRows:  210,
		OutputRows: 200,
		Steps: []domain.StepResult{
			{StepID: "duplicates", Type: "dedupe", Counters: map[string]int64{"duplicates_removed": 10}},
		},
		StartedAt:  started,
		FinishedAt: &finished,
	}
}

func TestScanRun(t *testing.T) {
	want := sampleRun("default", domain.RunStatusSucceeded)

	got, err := scanRun(runRow(t, want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestScanRun_NullColumns(t *testing.T) {
	want := sampleRun("load", domain.RunStatusFailed)
	want.Source = ""
	want.Steps = nil
	want.Error = "step failed: outliers"

	row := runRow(t, want)
	row.values[6] = []byte(nil)

	got, err := scanRun(row)
	require.NoError(t, err)
	assert.Empty(t, got.Source)
	assert.Nil(t, got.Steps)
	assert.Equal(t, "step failed: outliers", got.Error)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
}

func TestScanRun_NotFound(t *testing.T) {
	_, err := scanRun(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunRepo_GetByID(t *testing.T) {
	want := sampleRun("default", domain.RunStatusSucceeded)
	db := &fakeDB{row: runRow(t, want)}

	got, err := NewRunRepo(db).GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, []any{want.ID}, db.args)
}

func TestRunRepo_List(t *testing.T) {
	first := sampleRun("default", domain.RunStatusSucceeded)
	second := sampleRun("default", domain.RunStatusSucceeded)
	rows := &fakeRows{rows: []fakeRow{runRow(t, first), runRow(t, second)}}
	db := &fakeDB{rows: rows}

	runs, err := NewRunRepo(db).List(context.Background(), RunFilter{
		Plan:   "default",
		Status: domain.RunStatusSucceeded,
	})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, *first, runs[0])
	assert.Equal(t, *second, runs[1])
	assert.True(t, rows.closed)

	require.Len(t, db.args, 4)
	assert.Equal(t, "default", *db.args[0].(*string))
	assert.Equal(t, "SUCCEEDED", *db.args[1].(*string))
	assert.Equal(t, 20, db.args[2])
	assert.Equal(t, 0, db.args[3])
}

func TestRunRepo_ListNoFilter(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{}}

	runs, err := NewRunRepo(db).List(context.Background(), RunFilter{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, runs)

	assert.Nil(t, db.args[0].(*string))
	assert.Nil(t, db.args[1].(*string))
	assert.Equal(t, 5, db.args[2])
	assert.Equal(t, 10, db.args[3])
}

func TestRunRepo_CreateRequiresTerminalStatus(t *testing.T) {
	db := &fakeDB{}
	run := domain.NewQCRun("default", "raw.csv")

	err := NewRunRepo(db).Create(context.Background(), run)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, db.query)
}

func TestObservationRepo_CountByRun(t *testing.T) {
	id := uuid.New()
	db := &fakeDB{row: fakeRow{values: []any{int64(200)}}}

	n, err := NewObservationRepo(db).CountByRun(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 200, n)
	assert.Equal(t, []any{id}, db.args)
}
