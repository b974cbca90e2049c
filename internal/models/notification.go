package models

import "time"

// Sentinel notification targets.
const (
	TargetAdmin    = "admin"
	TargetAllUsers = "all_users"
)

// Severity drives how a notification is rendered.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// AppNotification is an in-app message addressed to a user or a sentinel group.
type AppNotification struct {
	ID        string    `json:"id"`
	Target    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
	Link      string    `json:"link,omitempty"`
}

// RecordID implements store.Record.
func (n AppNotification) RecordID() string { return n.ID }

// VisibleTo reports whether the notification belongs in the feed of the
// given user: direct target, admins for "admin", drivers for "all_users".
func (n AppNotification) VisibleTo(userID string, role Role) bool {
	switch {
	case n.Target == userID:
		return true
	case role == RoleAdmin && n.Target == TargetAdmin:
		return true
	case role == RoleDriver && n.Target == TargetAllUsers:
		return true
	}
	return false
}

// DeliveryStatus of a simulated email.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// EmailLog is the audit row standing in for an email send.
type EmailLog struct {
	ID        string         `json:"id"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Status    DeliveryStatus `json:"status"`
}

// RecordID implements store.Record.
func (e EmailLog) RecordID() string { return e.ID }
