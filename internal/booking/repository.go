package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage port for appointments. Expired holds are never
// swept; every read that cares passes `now` and filters on it.
type Repository interface {
	// ListBlocking returns the tenant's appointments that occupy any part of
	// [from, to) for conflict purposes at `now`.
	ListBlocking(ctx context.Context, tenantID string, from, to, now time.Time) ([]Appointment, error)

	// CreateHold inserts a pending appointment with its hold expiry set.
	CreateHold(ctx context.Context, appt *Appointment) error

	// ExtendHold pushes the expiry of an existing hold forward.
	ExtendHold(ctx context.Context, id string, expiresAt time.Time) error

	// LatestLiveHold returns the customer's most recently created live hold,
	// or ErrAppointmentNotFound.
	LatestLiveHold(ctx context.Context, tenantID, customerID string, now time.Time) (*Appointment, error)

	// FindLiveHoldForSlot returns the customer's live hold on the exact
	// start time, or ErrAppointmentNotFound.
	FindLiveHoldForSlot(ctx context.Context, tenantID, customerID string, startsAt, now time.Time) (*Appointment, error)

	// ReleaseOtherHolds cancels every live hold the customer has except the
	// one identified by keepID. A customer holds at most one slot at a time.
	ReleaseOtherHolds(ctx context.Context, tenantID, customerID, keepID string, now time.Time) error

	// Promote flips a pending hold to scheduled, records the calendar event,
	// and clears the expiry.
	Promote(ctx context.Context, id, eventID, eventLink string) error

	// UpdateStatus sets the status of an appointment.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ListCalendarBacked returns the tenant's scheduled/confirmed
	// appointments that carry a calendar event id, for sync reconciliation.
	ListCalendarBacked(ctx context.Context, tenantID string) ([]Appointment, error)

	// WithSlotLock runs fn while holding an exclusive lock on the
	// (tenant, slot) pair, serializing concurrent hold placement.
	WithSlotLock(ctx context.Context, tenantID string, slot time.Time, fn func(ctx context.Context) error) error
}

// InMemoryRepository backs tests and local development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	rows  map[string]*Appointment
	locks map[string]*sync.Mutex
}

// NewInMemoryRepository creates an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		rows:  make(map[string]*Appointment),
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *InMemoryRepository) ListBlocking(_ context.Context, tenantID string, from, to, now time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, row := range r.rows {
		if row.TenantID != tenantID || !row.BlocksSlotAt(now) {
			continue
		}
		if overlaps(row.StartsAt, row.EndsAt(), from, to) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) CreateHold(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	cp := *appt
	r.rows[cp.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ExtendHold(_ context.Context, id string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	exp := expiresAt
	row.HoldExpiresAt = &exp
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) LatestLiveHold(_ context.Context, tenantID, customerID string, now time.Time) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Appointment
	for _, row := range r.rows {
		if row.TenantID != tenantID || row.CustomerID != customerID || !row.IsLiveHoldAt(now) {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, ErrAppointmentNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *InMemoryRepository) FindLiveHoldForSlot(_ context.Context, tenantID, customerID string, startsAt, now time.Time) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.TenantID == tenantID && row.CustomerID == customerID &&
			row.StartsAt.Equal(startsAt) && row.IsLiveHoldAt(now) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *InMemoryRepository) ReleaseOtherHolds(_ context.Context, tenantID, customerID, keepID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.TenantID == tenantID && row.CustomerID == customerID &&
			row.ID != keepID && row.IsLiveHoldAt(now) {
			row.Status = StatusCancelled
			row.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (r *InMemoryRepository) Promote(_ context.Context, id, eventID, eventLink string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	row.Status = StatusScheduled
	row.HoldExpiresAt = nil
	row.CalendarEventID = eventID
	row.CalendarEventLink = eventLink
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) ListCalendarBacked(_ context.Context, tenantID string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, row := range r.rows {
		if row.TenantID != tenantID || row.CalendarEventID == "" {
			continue
		}
		if row.Status == StatusScheduled || row.Status == StatusConfirmed {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) WithSlotLock(ctx context.Context, tenantID string, slot time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("%s|%d", tenantID, slot.UTC().Unix())

	r.mu.Lock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

// Get returns a copy of a row by ID. Used by tests and the confirm flow.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *row
	return &cp, nil
}
