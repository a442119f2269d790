// Package booking implements the conversational appointment flow: intent
// extraction, availability, slot holds, and confirmation.
package booking

import "time"

// Status tracks the lifecycle of an appointment.
type Status string

const (
	// StatusPending is a slot hold awaiting customer confirmation.
	StatusPending Status = "pending"
	// StatusScheduled is a confirmed appointment with a calendar event.
	StatusScheduled Status = "scheduled"
	// StatusConfirmed is kept for rows imported from calendar sync.
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Appointment is the central entity. StartsAt is stored in UTC; all interval
// arithmetic happens in the tenant's timezone before hitting storage.
type Appointment struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	CustomerID      string     `json:"customer_id"`
	CustomerName    string     `json:"customer_name,omitempty"`
	Service         string     `json:"service,omitempty"`
	StartsAt        time.Time  `json:"starts_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          Status     `json:"status"`
	HoldExpiresAt   *time.Time `json:"hold_expires_at,omitempty"`

	CalendarEventID   string `json:"calendar_event_id,omitempty"`
	CalendarEventLink string `json:"calendar_event_link,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EndsAt returns the exclusive end of the appointment interval.
func (a *Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsLiveHoldAt reports whether the appointment is a pending hold whose
// expiry has not yet passed. Expired holds are logically absent; they are
// filtered at read time, never swept.
func (a *Appointment) IsLiveHoldAt(now time.Time) bool {
	return a.Status == StatusPending && a.HoldExpiresAt != nil && a.HoldExpiresAt.After(now)
}

// BlocksSlotAt reports whether the appointment occupies its interval for
// conflict purposes: scheduled/confirmed rows always do, pending rows only
// while their hold is live.
func (a *Appointment) BlocksSlotAt(now time.Time) bool {
	switch a.Status {
	case StatusScheduled, StatusConfirmed:
		return true
	case StatusPending:
		return a.IsLiveHoldAt(now)
	default:
		return false
	}
}
