package store

import (
	"context"
	"sync"
)

type memTable struct {
	rows   map[string]Row
	order  []string
	seeded bool
}

// MemoryBackend keeps rows in process memory.
type MemoryBackend struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[string]*memTable)}
}

func (m *MemoryBackend) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{rows: make(map[string]Row)}
		m.tables[name] = t
	}
	return t
}

func cloneRow(r Row) Row {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	return Row{ID: r.ID, Version: r.Version, Data: data}
}

func (m *MemoryBackend) List(_ context.Context, table string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	rows := make([]Row, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, cloneRow(t.rows[id]))
	}
	return rows, nil
}

func (m *MemoryBackend) Get(_ context.Context, table, id string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.table(table).rows[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return cloneRow(row), nil
}

func (m *MemoryBackend) Insert(_ context.Context, table, id string, data []byte) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(m.table(table), Row{ID: id, Data: data})
}

func (m *MemoryBackend) insertLocked(t *memTable, row Row) (Row, error) {
	if _, exists := t.rows[row.ID]; exists {
		return Row{}, ErrDuplicate
	}
	row.Version = 1
	row = cloneRow(row)
	t.rows[row.ID] = row
	t.order = append(t.order, row.ID)
	return cloneRow(row), nil
}

func (m *MemoryBackend) Swap(_ context.Context, table, id string, version int64, data []byte) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	current, ok := t.rows[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	if current.Version != version {
		return Row{}, ErrConflict
	}
	next := cloneRow(Row{ID: id, Version: version + 1, Data: data})
	t.rows[id] = next
	return cloneRow(next), nil
}

func (m *MemoryBackend) Delete(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryBackend) Seed(_ context.Context, table string, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	if t.seeded {
		return nil
	}
	t.seeded = true
	for _, row := range rows {
		if _, err := m.insertLocked(t, row); err != nil && err != ErrDuplicate {
			return err
		}
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
