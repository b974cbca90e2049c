package models

import "time"

type AvailabilityReportItem struct {
	StationName          string `json:"stationName"`
	GasolineAvailability int    `json:"gasolineAvailability"`
	DieselAvailability   int    `json:"dieselAvailability"`
	TotalHoursTracked    int    `json:"totalHoursTracked"`
	DowntimeHours        int    `json:"downtimeHours"`
}

type OperatorActivityReportItem struct {
	OperatorName        string    `json:"operatorName"`
	StationName         string    `json:"stationName"`
	TotalUpdates        int       `json:"totalUpdates"`
	AverageResponseTime int       `json:"averageResponseTime"`
	LastActive          time.Time `json:"lastActive"`
}

type PopularityReportItem struct {
	StationName       string `json:"stationName"`
	Views             int    `json:"views"`
	Favorites         int    `json:"favorites"`
	SearchAppearances int    `json:"searchAppearances"`
}

// Reports bundles the three admin dashboard reports.
type Reports struct {
	Availability []AvailabilityReportItem     `json:"availability"`
	Activity     []OperatorActivityReportItem `json:"activity"`
	Popularity   []PopularityReportItem       `json:"popularity"`
}
