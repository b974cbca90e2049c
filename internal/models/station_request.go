package models

import "time"

// RequestStatus is the lifecycle state of a StationRequest.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// StationRequest is a partner's application to list a new station.
type StationRequest struct {
	ID          string        `json:"id"`
	StationName string        `json:"stationName"`
	Address     string        `json:"address"`
	ManagerName string        `json:"managerName"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email"`
	Status      RequestStatus `json:"status"`
	SubmittedAt time.Time     `json:"date"`
	DecidedAt   *time.Time    `json:"decidedAt,omitempty"`
	StationID   string        `json:"stationId,omitempty"`
}

// RecordID implements store.Record.
func (r StationRequest) RecordID() string { return r.ID }

// Decided is true once the request left pending.
func (r StationRequest) Decided() bool { return r.Status != RequestPending }
