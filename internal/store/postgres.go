package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS fuelsoyo_records (
		table_name TEXT        NOT NULL,
		id         TEXT        NOT NULL,
		seq        BIGSERIAL,
		version    BIGINT      NOT NULL DEFAULT 1,
		data       JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (table_name, id)
	);
	CREATE TABLE IF NOT EXISTS fuelsoyo_seeded_tables (
		table_name TEXT PRIMARY KEY,
		seeded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// PostgresBackend stores every table in one JSONB-backed relation.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend wraps an open pool (see libs/db).
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Migrate creates the backing relations when missing.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (p *PostgresBackend) List(ctx context.Context, table string) ([]Row, error) {
	const query = `
		SELECT id, version, data
		FROM fuelsoyo_records
		WHERE table_name = $1
		ORDER BY seq
	`
	rows, err := p.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Version, &r.Data); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PostgresBackend) Get(ctx context.Context, table, id string) (Row, error) {
	const query = `
		SELECT id, version, data
		FROM fuelsoyo_records
		WHERE table_name = $1 AND id = $2
	`
	var r Row
	err := p.db.QueryRowContext(ctx, query, table, id).Scan(&r.ID, &r.Version, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return r, nil
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertRow(ctx context.Context, q execQuerier, table, id string, data []byte) (Row, error) {
	const query = `
		INSERT INTO fuelsoyo_records (table_name, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_name, id) DO NOTHING
		RETURNING version
	`
	row := Row{ID: id, Data: data}
	err := q.QueryRowContext(ctx, query, table, id, data).Scan(&row.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrDuplicate
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

func (p *PostgresBackend) Insert(ctx context.Context, table, id string, data []byte) (Row, error) {
	return insertRow(ctx, p.db, table, id, data)
}

func (p *PostgresBackend) Swap(ctx context.Context, table, id string, version int64, data []byte) (Row, error) {
	const query = `
		UPDATE fuelsoyo_records
		SET data = $4,
		    version = version + 1,
		    updated_at = NOW()
		WHERE table_name = $1 AND id = $2 AND version = $3
		RETURNING version
	`
	row := Row{ID: id, Data: data}
	err := p.db.QueryRowContext(ctx, query, table, id, version, data).Scan(&row.Version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := p.Get(ctx, table, id); getErr != nil {
			return Row{}, getErr
		}
		return Row{}, ErrConflict
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

func (p *PostgresBackend) Delete(ctx context.Context, table, id string) error {
	const query = `DELETE FROM fuelsoyo_records WHERE table_name = $1 AND id = $2`
	result, err := p.db.ExecContext(ctx, query, table, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresBackend) Seed(ctx context.Context, table string, rows []Row) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const mark = `INSERT INTO fuelsoyo_seeded_tables (table_name) VALUES ($1) ON CONFLICT DO NOTHING`
	result, err := tx.ExecContext(ctx, mark, table)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return nil
	}

	for _, r := range rows {
		if _, err := insertRow(ctx, tx, table, r.ID, r.Data); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("store: seed %s/%s: %w", table, r.ID, err)
		}
	}
	return tx.Commit()
}

// Close is a no-op; the pool is owned by the caller.
func (p *PostgresBackend) Close() error { return nil }
