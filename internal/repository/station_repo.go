package repository

import (
	"context"
	"sync"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/store"
)

// StationRepository handles the stations table.
type StationRepository struct {
	table *store.Table[models.Station]
	codes *claimSet
}

// NewStationRepository binds the stations table, seeding it from seed on first use.
func NewStationRepository(backend store.Backend, seed func() []models.Station) *StationRepository {
	if seed != nil {
		seed = sync.OnceValue(seed)
	}
	var claims func() []claim
	if seed != nil {
		claims = func() []claim {
			stations := seed()
			out := make([]claim, 0, len(stations))
			for _, s := range stations {
				out = append(out, claim{Key: s.StationCode, OwnerID: s.ID})
			}
			return out
		}
	}
	return &StationRepository{
		table: store.NewTable(backend, store.TableStations, seed),
		codes: newClaimSet(backend, store.TableStationCodes, ErrStationCodeTaken, claims),
	}
}

func (r *StationRepository) List(ctx context.Context) ([]models.Station, error) {
	return r.table.List(ctx)
}

func (r *StationRepository) GetByID(ctx context.Context, id string) (*models.Station, error) {
	station, _, err := r.table.Get(ctx, id)
	if err != nil {
		return nil, translate(err, ErrStationNotFound)
	}
	return &station, nil
}

// GetByCode resolves an exact station code.
func (r *StationRepository) GetByCode(ctx context.Context, code string) (*models.Station, error) {
	station, err := r.table.Find(ctx, func(s models.Station) bool { return s.StationCode == code })
	if err != nil {
		return nil, translate(err, ErrStationNotFound)
	}
	return &station, nil
}

// Create reserves the station code, then stores the row.
// ErrStationCodeTaken means the code belongs to another station.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	if err := r.codes.reserve(ctx, station.StationCode, station.ID); err != nil {
		return err
	}
	if err := r.table.Insert(ctx, *station); err != nil {
		_ = r.codes.release(ctx, station.StationCode, station.ID)
		return err
	}
	return nil
}

// Update applies mutate under compare-and-swap.
func (r *StationRepository) Update(ctx context.Context, id string, mutate func(*models.Station) error) (*models.Station, error) {
	station, err := r.table.Update(ctx, id, mutate)
	if err != nil {
		return nil, translate(err, ErrStationNotFound)
	}
	return &station, nil
}

// Delete removes the station and frees its code.
func (r *StationRepository) Delete(ctx context.Context, id string) error {
	station, _, err := r.table.Get(ctx, id)
	if err != nil {
		return translate(err, ErrStationNotFound)
	}
	if err := r.table.Delete(ctx, id); err != nil {
		return translate(err, ErrStationNotFound)
	}
	return r.codes.release(ctx, station.StationCode, id)
}
