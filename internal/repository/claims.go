package repository

import (
	"context"
	"errors"
	"strings"

	"fuelsoyo/internal/store"
)

// claim reserves a unique key for the row that owns it.
type claim struct {
	Key     string `json:"key"`
	OwnerID string `json:"owner_id"`
}

func (c claim) RecordID() string { return c.Key }

// claimSet is a table of reserved keys. Reserving relies on the backend's
// atomic Insert, so two writers racing for one key cannot both win.
type claimSet struct {
	table *store.Table[claim]
	taken error
}

func newClaimSet(backend store.Backend, name string, taken error, seed func() []claim) *claimSet {
	return &claimSet{table: store.NewTable(backend, name, seed), taken: taken}
}

func (c *claimSet) reserve(ctx context.Context, key, ownerID string) error {
	err := c.table.Insert(ctx, claim{Key: key, OwnerID: ownerID})
	if errors.Is(err, store.ErrDuplicate) {
		return c.taken
	}
	return err
}

// release drops key if it is still held by ownerID.
func (c *claimSet) release(ctx context.Context, key, ownerID string) error {
	held, _, err := c.table.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if held.OwnerID != ownerID {
		return nil
	}
	if err := c.table.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
