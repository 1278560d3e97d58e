package domain

import "time"

type PickupMode string

const (
	PickupModeASAP      PickupMode = "asap"
	PickupModeScheduled PickupMode = "scheduled"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusAccepted      Status = "accepted"
	StatusRejected      Status = "rejected"
	StatusCompleted     Status = "completed"
	StatusAutoCancelled Status = "auto_cancelled"
)

// Terminal reports whether the status admits no further status-changing transition.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusAutoCancelled:
		return true
	}
	return false
}

// StatusLog represents an audit entry for order status changes
type StatusLog struct {
	ID        int
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
