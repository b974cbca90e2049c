package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps one key per row plus a sorted-set index per table.
//
//	<prefix>:<table>:row:<id>  JSON envelope {version, data}
//	<prefix>:<table>:index     ZSET of ids scored by insertion sequence
//	<prefix>:<table>:seq       insertion counter
//	<prefix>:<table>:seeded    seed marker
type RedisBackend struct {
	client *redis.Client
	prefix string
}

type redisEnvelope struct {
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// NewRedisBackend builds a backend using keys under prefix.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "fuelsoyo"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) rowKey(table, id string) string {
	return fmt.Sprintf("%s:%s:row:%s", r.prefix, table, id)
}

func (r *RedisBackend) indexKey(table string) string {
	return fmt.Sprintf("%s:%s:index", r.prefix, table)
}

func (r *RedisBackend) seqKey(table string) string {
	return fmt.Sprintf("%s:%s:seq", r.prefix, table)
}

func (r *RedisBackend) seededKey(table string) string {
	return fmt.Sprintf("%s:%s:seeded", r.prefix, table)
}

func decodeEnvelope(id string, raw string) (Row, error) {
	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Row{}, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return Row{ID: id, Version: env.Version, Data: []byte(env.Data)}, nil
}

func encodeEnvelope(version int64, data []byte) ([]byte, error) {
	return json.Marshal(redisEnvelope{Version: version, Data: data})
}

func (r *RedisBackend) List(ctx context.Context, table string) ([]Row, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(table), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.rowKey(table, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry outlived its row
			continue
		}
		row, err := decodeEnvelope(ids[i], raw)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *RedisBackend) Get(ctx context.Context, table, id string) (Row, error) {
	raw, err := r.client.Get(ctx, r.rowKey(table, id)).Result()
	if errors.Is(err, redis.Nil) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return decodeEnvelope(id, raw)
}

func (r *RedisBackend) Insert(ctx context.Context, table, id string, data []byte) (Row, error) {
	payload, err := encodeEnvelope(1, data)
	if err != nil {
		return Row{}, err
	}

	ok, err := r.client.SetNX(ctx, r.rowKey(table, id), payload, 0).Result()
	if err != nil {
		return Row{}, err
	}
	if !ok {
		return Row{}, ErrDuplicate
	}

	seq, err := r.client.Incr(ctx, r.seqKey(table)).Result()
	if err != nil {
		return Row{}, err
	}
	if err := r.client.ZAdd(ctx, r.indexKey(table), redis.Z{Score: float64(seq), Member: id}).Err(); err != nil {
		return Row{}, err
	}
	return Row{ID: id, Version: 1, Data: data}, nil
}

func (r *RedisBackend) Swap(ctx context.Context, table, id string, version int64, data []byte) (Row, error) {
	key := r.rowKey(table, id)
	next := Row{ID: id, Version: version + 1, Data: data}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := decodeEnvelope(id, raw)
		if err != nil {
			return err
		}
		if current.Version != version {
			return ErrConflict
		}

		payload, err := encodeEnvelope(next.Version, data)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return Row{}, ErrConflict
	}
	if err != nil {
		return Row{}, err
	}
	return next, nil
}

func (r *RedisBackend) Delete(ctx context.Context, table, id string) error {
	removed, err := r.client.Del(ctx, r.rowKey(table, id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return r.client.ZRem(ctx, r.indexKey(table), id).Err()
}

// seedAttempts bounds the optimistic retries of Seed.
const seedAttempts = 5

// Seed writes rows and the seed marker in one MULTI/EXEC, so a crash or a
// concurrent seeder never leaves a marked table with missing rows.
func (r *RedisBackend) Seed(ctx context.Context, table string, rows []Row) error {
	marker, seqKey, indexKey := r.seededKey(table), r.seqKey(table), r.indexKey(table)

	payloads := make([][]byte, len(rows))
	for i, row := range rows {
		payload, err := encodeEnvelope(1, row.Data)
		if err != nil {
			return fmt.Errorf("store: seed %s/%s: %w", table, row.ID, err)
		}
		payloads[i] = payload
	}

	for range seedAttempts {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			seeded, err := tx.Exists(ctx, marker).Result()
			if err != nil {
				return err
			}
			if seeded > 0 {
				return nil
			}
			seq, err := tx.Get(ctx, seqKey).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for i, row := range rows {
					pipe.SetNX(ctx, r.rowKey(table, row.ID), payloads[i], 0)
					pipe.ZAddNX(ctx, indexKey, redis.Z{Score: float64(seq + int64(i) + 1), Member: row.ID})
				}
				if len(rows) > 0 {
					pipe.IncrBy(ctx, seqKey, int64(len(rows)))
				}
				pipe.Set(ctx, marker, "1", 0)
				return nil
			})
			return err
		}, marker, seqKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("store: seed %s: %w", table, err)
		}
		return nil
	}
	return fmt.Errorf("store: seed %s: %w", table, ErrConflict)
}

// Close is a no-op; the client is owned by the caller.
func (r *RedisBackend) Close() error { return nil }
