package repository

import (
	"context"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/store"
)

// RequestRepository handles station registration requests.
type RequestRepository struct {
	table *store.Table[models.StationRequest]
}

// NewRequestRepository binds the requests table. It starts empty.
func NewRequestRepository(backend store.Backend) *RequestRepository {
	return &RequestRepository{table: store.NewTable[models.StationRequest](backend, store.TableRequests, nil)}
}

// List returns requests, optionally filtered by status (empty means all).
func (r *RequestRepository) List(ctx context.Context, status models.RequestStatus) ([]models.StationRequest, error) {
	all, err := r.table.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	var out []models.StationRequest
	for _, req := range all {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.StationRequest, error) {
	req, _, err := r.table.Get(ctx, id)
	if err != nil {
		return nil, translate(err, ErrRequestNotFound)
	}
	return &req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *models.StationRequest) error {
	return r.table.Insert(ctx, *req)
}

func (r *RequestRepository) Update(ctx context.Context, id string, mutate func(*models.StationRequest) error) (*models.StationRequest, error) {
	req, err := r.table.Update(ctx, id, mutate)
	if err != nil {
		return nil, translate(err, ErrRequestNotFound)
	}
	return &req, nil
}
