package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportRange(t *testing.T) {
	from, to, err := ParseReportRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, to.Sub(from))

	_, _, err = ParseReportRange("2025-02-01", "2025-01-01")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "end")

	_, _, err = ParseReportRange("01/01/2025", "2025-01-01")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "start")
}

func TestHashSeeder_IsDeterministic(t *testing.T) {
	a := HashSeeder{}.For("1pop")
	b := HashSeeder{}.For("1pop")
	c := HashSeeder{}.For("2pop")
	x, y, z := a.Float64(), b.Float64(), c.Float64()
	assert.Equal(t, x, y)
	assert.NotEqual(t, x, z)
}

func TestGenerateReports(t *testing.T) {
	f := newFixture(t)
	from, to, err := ParseReportRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)

	first, err := f.reports.Generate(f.ctx, from, to)
	require.NoError(t, err)
	second, err := f.reports.Generate(f.ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first.Availability, 4)
	for _, item := range first.Availability {
		assert.GreaterOrEqual(t, item.GasolineAvailability, 60)
		assert.Less(t, item.GasolineAvailability, 100)
		assert.GreaterOrEqual(t, item.DieselAvailability, 50)
		assert.Less(t, item.DieselAvailability, 95)
		assert.Equal(t, 720, item.TotalHoursTracked)
		assert.LessOrEqual(t, item.DowntimeHours, 288)
	}

	require.Len(t, first.Popularity, 4)
	for i := 1; i < len(first.Popularity); i++ {
		assert.GreaterOrEqual(t, first.Popularity[i-1].Views, first.Popularity[i].Views)
	}

	require.Len(t, first.Activity, 1)
	assert.Equal(t, "Operador Sonangol", first.Activity[0].OperatorName)
	assert.Equal(t, "Posto Sonangol Central", first.Activity[0].StationName)
	assert.False(t, first.Activity[0].LastActive.After(f.clock.Now()))

	other, err := f.reports.Generate(f.ctx, from.AddDate(0, 0, 1), to)
	require.NoError(t, err)
	assert.Equal(t, first.Popularity, other.Popularity, "popularity ignores the range")
}
