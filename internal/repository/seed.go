package repository

import (
	"time"

	"fuelsoyo/internal/models"
)

// SoyoCenter is the reference point new stations are scattered around.
var SoyoCenter = models.GeoPoint{Lat: -6.1349, Lng: 12.3689}

// SeedStations returns the default station set, stamped relative to now.
func SeedStations(now func() time.Time) func() []models.Station {
	return func() []models.Station {
		at := now().UTC()
		return []models.Station{
			{
				ID:          "1",
				Name:        "Posto Sonangol Central",
				Address:     "Av. Principal, Centro, Soyo",
				Phone:       "+244 923 456 789",
				Coords:      models.MapPoint{X: 45, Y: 50},
				Location:    models.GeoPoint{Lat: -6.1349, Lng: 12.3689},
				Status:      models.FuelStatus{Gasoline: true, Diesel: true, LastUpdated: at},
				ImageURL:    "https://picsum.photos/id/111/800/400",
				StationCode: "SONA001",
				OpenHours:   "06:00 - 22:00",
				Manager:     "João Manuel",
			},
			{
				ID:          "2",
				Name:        "Posto Pumangol Norte",
				Address:     "Rua do Comércio, Bairro Norte",
				Phone:       "+244 923 456 790",
				Coords:      models.MapPoint{X: 60, Y: 30},
				Location:    models.GeoPoint{Lat: -6.1250, Lng: 12.3750},
				Status:      models.FuelStatus{Gasoline: false, Diesel: true, LastUpdated: at.Add(-time.Hour)},
				ImageURL:    "https://picsum.photos/id/188/800/400",
				StationCode: "PUMA002",
				OpenHours:   "05:00 - 23:00",
				Manager:     "Maria António",
			},
			{
				ID:          "3",
				Name:        "Posto Galp Aeroporto",
				Address:     "Estrada do Aeroporto",
				Phone:       "+244 923 456 793",
				Coords:      models.MapPoint{X: 30, Y: 70},
				Location:    models.GeoPoint{Lat: -6.1450, Lng: 12.3800},
				Status:      models.FuelStatus{Gasoline: true, Diesel: false, LastUpdated: at.Add(-2 * time.Hour)},
				ImageURL:    "https://picsum.photos/id/203/800/400",
				StationCode: "GALP003",
				OpenHours:   "24 Horas",
				Manager:     "Carlos Silva",
			},
			{
				ID:          "4",
				Name:        "Posto Total Sul",
				Address:     "Av. da Independência, Bairro Sul",
				Phone:       "+244 923 456 791",
				Coords:      models.MapPoint{X: 70, Y: 80},
				Location:    models.GeoPoint{Lat: -6.1500, Lng: 12.3550},
				Status:      models.FuelStatus{Gasoline: false, Diesel: false, LastUpdated: at.Add(-10000 * time.Second)},
				ImageURL:    "https://picsum.photos/id/214/800/400",
				StationCode: "TOTA004",
				OpenHours:   "06:00 - 21:00",
				Manager:     "Ana Paula",
			},
		}
	}
}

// SeedUsers returns the demo accounts. hash turns the shared demo password
// into a stored hash; a hashing failure leaves that account without one, so
// it cannot log in.
func SeedUsers(password string, hash func(string) (string, error), now func() time.Time) func() []models.User {
	return func() []models.User {
		digest, err := hash(password)
		if err != nil {
			digest = ""
		}
		at := now().UTC()
		on := func(whatsapp bool) *models.Preferences {
			return &models.Preferences{Email: true, WhatsApp: whatsapp}
		}
		return []models.User{
			{ID: "u1", Name: "Admin User", Email: "admin@fuelsoyo.com", Role: models.RoleAdmin, PasswordHash: digest, Preferences: on(true), Favorites: []string{}, CreatedAt: at},
			{ID: "u2", Name: "Operador Sonangol", Email: "op@sonangol.com", Role: models.RoleOperator, StationID: "1", PasswordHash: digest, Preferences: on(true), Favorites: []string{}, CreatedAt: at},
			{ID: "u3", Name: "Motorista Exemplo", Email: "motorista@gmail.com", Role: models.RoleDriver, PasswordHash: digest, Preferences: on(true), Favorites: []string{"1", "2"}, CreatedAt: at},
			{ID: "u4", Name: "Cliente Teste", Email: "cliente@teste.com", Role: models.RoleDriver, PasswordHash: digest, Preferences: on(false), Favorites: []string{}, CreatedAt: at},
		}
	}
}
