package store

import (
	"context"
	"errors"
)

// Table identifiers.
const (
	TableUsers         = "users"
	TableStations      = "stations"
	TableRequests      = "requests"
	TableNotifications = "notifications"
	TableEmailLogs     = "email_logs"

	// Claim tables reserve unique keys. Insert fails with ErrDuplicate in
	// every backend, which makes a claim row the uniqueness constraint.
	TableUserEmails   = "user_emails"
	TableStationCodes = "station_codes"
)

var (
	// ErrNotFound is returned when a row id does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when a compare-and-swap sees a newer version.
	ErrConflict = errors.New("store: version conflict")
	// ErrDuplicate is returned when inserting an id that already exists.
	ErrDuplicate = errors.New("store: duplicate id")
)

// Row is a raw stored record. Version starts at 1 and increases by one on
// every successful swap.
type Row struct {
	ID      string
	Version int64
	Data    []byte
}

// Backend persists rows grouped by table. Rows are listed in insertion order.
type Backend interface {
	List(ctx context.Context, table string) ([]Row, error)
	Get(ctx context.Context, table, id string) (Row, error)
	Insert(ctx context.Context, table, id string, data []byte) (Row, error)
	// Swap replaces the row data only if its current version equals version.
	Swap(ctx context.Context, table, id string, version int64, data []byte) (Row, error)
	Delete(ctx context.Context, table, id string) error
	// Seed inserts rows the first time table is ever initialised and is a
	// no-op afterwards, including across process restarts.
	Seed(ctx context.Context, table string, rows []Row) error
	Close() error
}
