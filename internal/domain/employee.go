package domain

import "time"

// AvailabilityStatus enumerates employee presence states.
type AvailabilityStatus string

const (
	AvailabilityAvailable    AvailabilityStatus = "Available"
	AvailabilityBusy         AvailabilityStatus = "Busy"
	AvailabilityInMeeting    AvailabilityStatus = "In Meeting"
	AvailabilityDoNotDisturb AvailabilityStatus = "Do Not Disturb"
	AvailabilityOffline      AvailabilityStatus = "Offline"
)

// ValidAvailability reports whether s is a known availability value.
func ValidAvailability(s AvailabilityStatus) bool {
	switch s {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityInMeeting,
		AvailabilityDoNotDisturb, AvailabilityOffline:
		return true
	}
	return false
}

// Employee is a worker-directory entry eligible for ticket assignment.
type Employee struct {
	Username         string             `json:"username"`
	FullName         string             `json:"full_name"`
	Role             string             `json:"role"`
	Expertise        string             `json:"expertise"`
	Responsibilities string             `json:"responsibilities"`
	Availability     AvailabilityStatus `json:"availability_status"`
	StatusUntil      *time.Time         `json:"status_until,omitempty"`
	PasswordHash     string             `json:"-"`
	IsAdmin          bool               `json:"is_admin"`
	Active           bool               `json:"active"`
	CreatedAt        time.Time          `json:"created_at"`
}

// CallNotificationStatus tracks delivery of a pending call.
type CallNotificationStatus string

const (
	CallNotificationPending  CallNotificationStatus = "pending"
	CallNotificationAccepted CallNotificationStatus = "accepted"
	CallNotificationExpired  CallNotificationStatus = "expired"
)

// CallNotification asks an employee to join a conversation session.
type CallNotification struct {
	ID             string                 `json:"id"`
	TargetUsername string                 `json:"target_username"`
	TicketID       string                 `json:"ticket_id"`
	TicketSubject  string                 `json:"ticket_subject"`
	CallerLabel    string                 `json:"caller_label"`
	Payload        map[string]any         `json:"payload"`
	Status         CallNotificationStatus `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
}
