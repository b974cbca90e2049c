package models

import "time"

// Fuel kinds tracked per station.
const (
	FuelGasoline = "gasoline"
	FuelDiesel   = "diesel"
)

// FuelStatus is the live availability of both fuel kinds.
type FuelStatus struct {
	Gasoline    bool      `json:"gasoline"`
	Diesel      bool      `json:"diesel"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// MapPoint is a percentage position on the static city map.
type MapPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GeoPoint holds real coordinates used for distance calculations.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is a fuel outlet with its reported status.
type Station struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Phone       string     `json:"phone"`
	Coords      MapPoint   `json:"coords"`
	Location    GeoPoint   `json:"location"`
	Status      FuelStatus `json:"status"`
	ImageURL    string     `json:"imageUrl"`
	StationCode string     `json:"stationCode"`
	OpenHours   string     `json:"openHours"`
	Manager     string     `json:"manager,omitempty"`
}

// RecordID implements store.Record.
func (s Station) RecordID() string { return s.ID }

// StatusPatch is a partial status update. Nil fields are left untouched.
type StatusPatch struct {
	Gasoline *bool `json:"gasoline,omitempty"`
	Diesel   *bool `json:"diesel,omitempty"`
}

// Apply merges the patch into status and stamps it with at. LastUpdated
// always moves forward, even when at is not after the previous stamp.
func (p StatusPatch) Apply(status FuelStatus, at time.Time) FuelStatus {
	if p.Gasoline != nil {
		status.Gasoline = *p.Gasoline
	}
	if p.Diesel != nil {
		status.Diesel = *p.Diesel
	}
	if !at.After(status.LastUpdated) {
		at = status.LastUpdated.Add(time.Millisecond)
	}
	status.LastUpdated = at
	return status
}

// StationDetailsPatch overwrites descriptive fields only.
type StationDetailsPatch struct {
	Name      *string   `json:"name,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	OpenHours *string   `json:"openHours,omitempty"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	Manager   *string   `json:"manager,omitempty"`
	Location  *GeoPoint `json:"location,omitempty"`
}

// Apply copies the set fields onto s.
func (p StationDetailsPatch) Apply(s *Station) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.OpenHours != nil {
		s.OpenHours = *p.OpenHours
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.Manager != nil {
		s.Manager = *p.Manager
	}
	if p.Location != nil {
		s.Location = *p.Location
	}
}
