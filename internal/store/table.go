package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Record is a row value with a stable string id.
type Record interface {
	RecordID() string
}

// Table is a typed view over one backend table. Rows are JSON documents.
type Table[T Record] struct {
	backend Backend
	name    string
	seed    func() []T

	seedMu sync.Mutex
	seeded bool
}

// NewTable binds a typed table. seed may be nil; when set it is invoked
// once, on first access, to produce default rows.
func NewTable[T Record](backend Backend, name string, seed func() []T) *Table[T] {
	return &Table[T]{backend: backend, name: name, seed: seed}
}

// Name returns the table identifier.
func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) ensureSeeded(ctx context.Context) error {
	t.seedMu.Lock()
	defer t.seedMu.Unlock()
	if t.seeded {
		return nil
	}

	var rows []Row
	if t.seed != nil {
		for _, v := range t.seed() {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("store: encode seed %s: %w", t.name, err)
			}
			rows = append(rows, Row{ID: v.RecordID(), Data: data})
		}
	}
	if err := t.backend.Seed(ctx, t.name, rows); err != nil {
		return err
	}
	t.seeded = true
	return nil
}

func (t *Table[T]) decode(row Row) (T, error) {
	var v T
	if err := json.Unmarshal(row.Data, &v); err != nil {
		return v, fmt.Errorf("store: decode %s/%s: %w", t.name, row.ID, err)
	}
	return v, nil
}

// List returns every row in insertion order.
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	if err := t.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	rows, err := t.backend.List(ctx, t.name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := t.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Get returns the row and its current version.
func (t *Table[T]) Get(ctx context.Context, id string) (T, int64, error) {
	var zero T
	if err := t.ensureSeeded(ctx); err != nil {
		return zero, 0, err
	}
	row, err := t.backend.Get(ctx, t.name, id)
	if err != nil {
		return zero, 0, err
	}
	v, err := t.decode(row)
	if err != nil {
		return zero, 0, err
	}
	return v, row.Version, nil
}

// Find returns the first row matching pred, or ErrNotFound.
func (t *Table[T]) Find(ctx context.Context, pred func(T) bool) (T, error) {
	var zero T
	all, err := t.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, v := range all {
		if pred(v) {
			return v, nil
		}
	}
	return zero, ErrNotFound
}

// Insert stores a new row.
func (t *Table[T]) Insert(ctx context.Context, v T) error {
	if err := t.ensureSeeded(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", t.name, err)
	}
	_, err = t.backend.Insert(ctx, t.name, v.RecordID(), data)
	return err
}

// Update reads the row, applies mutate and writes it back with a single
// compare-and-swap. A concurrent writer makes it fail with ErrConflict.
// An error from mutate aborts the write and is returned unchanged.
func (t *Table[T]) Update(ctx context.Context, id string, mutate func(*T) error) (T, error) {
	var zero T
	current, version, err := t.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := mutate(&current); err != nil {
		return zero, err
	}
	data, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("store: encode %s/%s: %w", t.name, id, err)
	}
	if _, err := t.backend.Swap(ctx, t.name, id, version, data); err != nil {
		return zero, err
	}
	return current, nil
}

// Delete removes the row.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if err := t.ensureSeeded(ctx); err != nil {
		return err
	}
	return t.backend.Delete(ctx, t.name, id)
}
