package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shaiso/surveyqc/internal/domain"
)

// observationColumns — колонки COPY в порядке observationValues.
var observationColumns = []string{
	"run_id", "row_no", "site_id", "sampling_date", "species",
	"gear_type", "count", "weight_kg", "latitude", "longitude",
}

// ObservationRepo — репозиторий очищенных наблюдений.
type ObservationRepo struct {
	db DBTX
}

// NewObservationRepo создаёт новый ObservationRepo.
func NewObservationRepo(db DBTX) *ObservationRepo {
	return &ObservationRepo{db: db}
}

// CopyFrom загружает таблицу через COPY. Пропуски пишутся как NULL.
func (r *ObservationRepo) CopyFrom(ctx context.Context, runID uuid.UUID, t *domain.Table) (int64, error) {
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"observations"},
		observationColumns,
		pgx.CopyFromSlice(t.Len(), func(i int) ([]any, error) {
			return observationValues(runID, i, &t.Rows[i]), nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy observations: %w", err)
	}
	return n, nil
}

// CountByRun возвращает количество наблюдений прохода.
func (r *ObservationRepo) CountByRun(ctx context.Context, runID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM observations WHERE run_id = $1`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// observationValues строит строку COPY. nil-указатели становятся NULL.
func observationValues(runID uuid.UUID, rowNo int, o *domain.Observation) []any {
	return []any{
		runID,
		rowNo,
		o.SiteID,
		o.SamplingDate,
		nullString(o.Species),
		nullString(o.GearType),
		o.Count,
		o.Weight,
		o.Latitude,
		o.Longitude,
	}
}
