package models

import "time"

// Role gates dashboards and operations.
type Role string

const (
	RoleDriver   Role = "driver"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// Preferences are the notification channels a user accepts.
type Preferences struct {
	Email    bool `json:"email"`
	WhatsApp bool `json:"whatsapp"`
}

// User is the stored account row, password hash included.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"passwordHash"`
	Role         Role         `json:"role"`
	StationID    string       `json:"stationId,omitempty"`
	Favorites    []string     `json:"favorites"`
	Preferences  *Preferences `json:"preferences,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// RecordID implements store.Record.
func (u User) RecordID() string { return u.ID }

// EmailEnabled is true unless the user explicitly turned email off.
func (u User) EmailEnabled() bool {
	return u.Preferences == nil || u.Preferences.Email
}

// PublicUser is the session-safe projection of User.
type PublicUser struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	StationID   string       `json:"stationId,omitempty"`
	Favorites   []string     `json:"favorites"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Public strips credentials.
func (u User) Public() PublicUser {
	favorites := make([]string, len(u.Favorites))
	copy(favorites, u.Favorites)
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		StationID:   u.StationID,
		Favorites:   favorites,
		Preferences: u.Preferences,
	}
}
