package repository

import (
	"context"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/store"
)

// EmailLogRepository is the append-only audit trail of simulated emails.
type EmailLogRepository struct {
	table *store.Table[models.EmailLog]
}

func NewEmailLogRepository(backend store.Backend) *EmailLogRepository {
	return &EmailLogRepository{table: store.NewTable[models.EmailLog](backend, store.TableEmailLogs, nil)}
}

// List returns all logs, newest first.
func (r *EmailLogRepository) List(ctx context.Context) ([]models.EmailLog, error) {
	all, err := r.table.List(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(all, func(e models.EmailLog) int64 { return e.Timestamp.UnixNano() })
	return all, nil
}

func (r *EmailLogRepository) Append(ctx context.Context, entry *models.EmailLog) error {
	return r.table.Insert(ctx, *entry)
}
