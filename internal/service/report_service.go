package service

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/repository"
)

// ReportDateLayout is the accepted format of report bounds.
const ReportDateLayout = "2006-01-02"

const trackedHours = 30 * 24

// Seeder hands out deterministic generators: equal keys yield equal sequences.
type Seeder interface {
	For(key string) *rand.Rand
}

// HashSeeder seeds a PCG source from the FNV-1a hash of the key.
type HashSeeder struct{}

func (HashSeeder) For(key string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))
}

// ReportService builds the admin dashboard reports.
type ReportService struct {
	stations *repository.StationRepository
	users    *repository.UserRepository
	seeder   Seeder
	opts     options
}

// NewReportService builds ReportService. A nil seeder selects HashSeeder.
func NewReportService(stations *repository.StationRepository, users *repository.UserRepository, seeder Seeder, opts ...Option) *ReportService {
	if seeder == nil {
		seeder = HashSeeder{}
	}
	return &ReportService{stations: stations, users: users, seeder: seeder, opts: buildOptions(opts)}
}

// ParseReportRange parses inclusive report bounds.
func ParseReportRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(ReportDateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("start", "must be a date formatted YYYY-MM-DD")
	}
	to, err := time.Parse(ReportDateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("end", "must be a date formatted YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid("end", "must not be before start")
	}
	return from, to, nil
}

// Generate produces all three reports for the range. Figures are stable for
// the same stations and bounds.
func (s *ReportService) Generate(ctx context.Context, start, end time.Time) (*models.Reports, error) {
	stations, err := s.stations.List(ctx)
	if err != nil {
		return nil, err
	}
	operators, err := s.users.ListByRole(ctx, models.RoleOperator)
	if err != nil {
		return nil, err
	}

	from, to := start.Format(ReportDateLayout), end.Format(ReportDateLayout)
	byID := make(map[string]models.Station, len(stations))
	reports := &models.Reports{
		Availability: make([]models.AvailabilityReportItem, 0, len(stations)),
		Activity:     []models.OperatorActivityReportItem{},
		Popularity:   make([]models.PopularityReportItem, 0, len(stations)),
	}

	for _, st := range stations {
		byID[st.ID] = st

		r := s.seeder.For(st.ID + from)
		gasoline := 60 + r.Float64()*40
		reports.Availability = append(reports.Availability, models.AvailabilityReportItem{
			StationName:          st.Name,
			GasolineAvailability: int(gasoline),
			DieselAvailability:   int(50 + r.Float64()*45),
			TotalHoursTracked:    trackedHours,
			DowntimeHours:        int(math.Floor(trackedHours * (1 - gasoline/100))),
		})

		p := s.seeder.For(st.ID + "pop")
		reports.Popularity = append(reports.Popularity, models.PopularityReportItem{
			StationName:       st.Name,
			Views:             int(500 + p.Float64()*5000),
			Favorites:         int(20 + p.Float64()*300),
			SearchAppearances: int(1000 + p.Float64()*10000),
		})
	}
	sort.SliceStable(reports.Popularity, func(i, j int) bool {
		return reports.Popularity[i].Views > reports.Popularity[j].Views
	})

	now := s.opts.clock()
	for _, op := range operators {
		st, ok := byID[op.StationID]
		if !ok {
			continue
		}
		r := s.seeder.For(op.ID + to)
		reports.Activity = append(reports.Activity, models.OperatorActivityReportItem{
			OperatorName:        op.Name,
			StationName:         st.Name,
			TotalUpdates:        int(10 + r.Float64()*50),
			AverageResponseTime: int(5 + r.Float64()*25),
			LastActive:          now.Add(-time.Duration(r.Float64()*1e7) * time.Millisecond),
		})
	}
	return reports, nil
}
