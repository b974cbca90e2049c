package repository

import (
	"context"
	"strings"
	"sync"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/store"
)

// UserRepository handles the users table.
type UserRepository struct {
	table  *store.Table[models.User]
	emails *claimSet
}

// NewUserRepository binds the users table. Emails are reserved in a claim
// table so that registration stays unique across concurrent writers.
func NewUserRepository(backend store.Backend, seed func() []models.User) *UserRepository {
	if seed != nil {
		seed = sync.OnceValue(seed)
	}
	var claims func() []claim
	if seed != nil {
		claims = func() []claim {
			users := seed()
			out := make([]claim, 0, len(users))
			for _, u := range users {
				out = append(out, claim{Key: emailKey(u.Email), OwnerID: u.ID})
			}
			return out
		}
	}
	return &UserRepository{
		table:  store.NewTable(backend, store.TableUsers, seed),
		emails: newClaimSet(backend, store.TableUserEmails, ErrEmailTaken, claims),
	}
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.table.List(ctx)
}

// ListByRole returns users holding role.
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	all, err := r.table.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, _, err := r.table.Get(ctx, id)
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}

// GetByEmail fetches a user by email, ignoring case and surrounding spaces.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	user, err := r.table.Find(ctx, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}

// Create reserves the user's email, then stores the row. ErrEmailTaken
// means another account already holds the address.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	key := emailKey(user.Email)
	if err := r.emails.reserve(ctx, key, user.ID); err != nil {
		return err
	}
	if err := r.table.Insert(ctx, *user); err != nil {
		_ = r.emails.release(ctx, key, user.ID)
		return err
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	user, err := r.table.Update(ctx, id, mutate)
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}
