package repository

import (
	"context"
	"sort"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/store"
)

// NotificationRepository handles in-app notifications. Rows are never deleted.
type NotificationRepository struct {
	table *store.Table[models.AppNotification]
}

func NewNotificationRepository(backend store.Backend) *NotificationRepository {
	return &NotificationRepository{table: store.NewTable[models.AppNotification](backend, store.TableNotifications, nil)}
}

// List returns all notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]models.AppNotification, error) {
	all, err := r.table.List(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(all, func(n models.AppNotification) int64 { return n.Timestamp.UnixNano() })
	return all, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.AppNotification) error {
	return r.table.Insert(ctx, *n)
}

// MarkRead flags one notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) (*models.AppNotification, error) {
	n, err := r.table.Update(ctx, id, func(n *models.AppNotification) error {
		n.Read = true
		return nil
	})
	if err != nil {
		return nil, translate(err, ErrNotificationNotFound)
	}
	return &n, nil
}

// newestFirst sorts rows by descending key; ties keep reverse insertion order.
func newestFirst[T any](rows []T, key func(T) int64) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) > key(rows[j]) })
}
