package repository

import (
	"errors"

	"fuelsoyo/internal/store"
)

var (
	ErrStationNotFound      = errors.New("station not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrRequestNotFound      = errors.New("station request not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrStationCodeTaken     = errors.New("station code already taken")
)

// translate maps store.ErrNotFound onto the repository-specific sentinel.
func translate(err, notFound error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}
