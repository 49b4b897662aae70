package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/surveyqc/internal/domain"
)

// RunRepo — репозиторий записей о проходах очистки.
type RunRepo struct {
	db DBTX
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(db DBTX) *RunRepo {
	return &RunRepo{db: db}
}

// Create сохраняет запись о проходе.
func (r *RunRepo) Create(ctx context.Context, run *domain.QCRun) error {
	if !run.Status.IsTerminal() {
		return fmt.Errorf("%w: run %s is %s", ErrInvalidState, run.ID, run.Status)
	}

	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO qc_runs (id, plan, source, status, input_rows, output_rows,
		                     steps, started_at, finished_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
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
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: run %s", ErrAlreadyExists, run.ID)
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает проход по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.QCRun, error) {
	query := `
		SELECT id, plan, source, status, input_rows, output_rows, steps,
		       started_at, finished_at, error
		FROM qc_runs
		WHERE id = $1
	`
	return scanRun(r.db.QueryRow(ctx, query, id))
}

// RunFilter — параметры фильтрации проходов.
type RunFilter struct {
	Plan   string
	Status domain.RunStatus
	Limit  int
	Offset int
}

// List возвращает проходы, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.QCRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, plan, source, status, input_rows, output_rows, steps,
		       started_at, finished_at, error
		FROM qc_runs
		WHERE ($1::text IS NULL OR plan = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query,
		nullString(filter.Plan),
		nullString(string(filter.Status)),
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.QCRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в QCRun. pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*domain.QCRun, error) {
	var run domain.QCRun
	var stepsJSON []byte
	var source, runError *string

	err := row.Scan(
		&run.ID,
		&run.Plan,
		&source,
		&run.Status,
		&run.InputRows,
		&run.OutputRows,
		&stepsJSON,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if stepsJSON != nil {
		if err := json.Unmarshal(stepsJSON, &run.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	if source != nil {
		run.Source = *source
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
