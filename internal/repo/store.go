package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/surveyqc/internal/domain"
)

// SaveRun в одной транзакции сохраняет запись о проходе и очищенную таблицу.
// Возвращает количество загруженных строк.
func SaveRun(ctx context.Context, pool *pgxpool.Pool, run *domain.QCRun, t *domain.Table) (int64, error) {
	var loaded int64

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if err := EnsureSchema(ctx, tx); err != nil {
			return err
		}
		if err := NewRunRepo(tx).Create(ctx, run); err != nil {
			return err
		}
		if t == nil {
			return nil
		}

		n, err := NewObservationRepo(tx).CopyFrom(ctx, run.ID, t)
		if err != nil {
			return err
		}
		loaded = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save run %s: %w", run.ID, err)
	}

	return loaded, nil
}
