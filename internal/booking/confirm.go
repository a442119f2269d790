package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/internal/calendar"
	"github.com/atendezap/atende-ai-platform/internal/observability/metrics"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

// CalendarAdapter is the slice of the calendar integration the confirmer
// uses. *calendar.GoogleAdapter satisfies it.
type CalendarAdapter interface {
	CreateEvent(ctx context.Context, ev calendar.Event) (*calendar.CreatedEvent, error)
}

// CalendarFactory builds a calendar adapter for a tenant, or returns
// (nil, nil) when the tenant has no calendar connected.
type CalendarFactory func(ctx context.Context, cfg *business.Config) (CalendarAdapter, error)

// Confirmer promotes live holds to scheduled appointments.
type Confirmer struct {
	repo        Repository
	calendarFor CalendarFactory
	now         func() time.Time
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
}

// NewConfirmer wires a confirmer. A nil factory disables calendar sync; nil
// clock and logger get defaults.
func NewConfirmer(repo Repository, calendarFor CalendarFactory, now func() time.Time, logger *logging.Logger, m *metrics.BookingMetrics) *Confirmer {
	if calendarFor == nil {
		calendarFor = func(context.Context, *business.Config) (CalendarAdapter, error) { return nil, nil }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Confirmer{repo: repo, calendarFor: calendarFor, now: now, logger: logger, metrics: m}
}

// Confirm promotes the customer's latest live hold. The calendar event is
// created before the status flip; if the provider fails, the hold is left
// untouched so the customer can retry while it is still live. Returns
// ErrNoPendingHold when nothing is live, ErrCalendarUnavailable on provider
// failure.
func (c *Confirmer) Confirm(ctx context.Context, cfg *business.Config, customerID string) (*Appointment, error) {
	now := c.now().UTC()

	hold, err := c.repo.LatestLiveHold(ctx, cfg.TenantID, customerID, now)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			c.metrics.ObserveConfirmation("no_hold")
			return nil, ErrNoPendingHold
		}
		return nil, err
	}

	var eventID, eventLink string
	adapter, err := c.calendarFor(ctx, cfg)
	if err != nil {
		c.metrics.ObserveConfirmation("calendar_error")
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if adapter != nil {
		created, err := adapter.CreateEvent(ctx, c.buildEvent(cfg, hold))
		if err != nil {
			c.metrics.ObserveConfirmation("calendar_error")
			return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
		}
		eventID = created.EventID
		eventLink = created.EventLink
	}

	if err := c.repo.Promote(ctx, hold.ID, eventID, eventLink); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The hold expired between the read and the flip.
			c.metrics.ObserveConfirmation("no_hold")
			return nil, ErrNoPendingHold
		}
		return nil, err
	}

	hold.Status = StatusScheduled
	hold.HoldExpiresAt = nil
	hold.CalendarEventID = eventID
	hold.CalendarEventLink = eventLink
	hold.UpdatedAt = now

	c.metrics.ObserveConfirmation("confirmed")
	c.logger.WithTenant(cfg.TenantID).Info("appointment confirmed",
		"customer_id", customerID,
		"appointment_id", hold.ID,
		"starts_at", hold.StartsAt,
	)
	return hold, nil
}

func (c *Confirmer) buildEvent(cfg *business.Config, hold *Appointment) calendar.Event {
	summary := hold.Service
	if summary == "" {
		summary = "Atendimento"
	}
	if hold.CustomerName != "" {
		summary = summary + " - " + hold.CustomerName
	}

	loc := cfg.Location()
	start := hold.StartsAt.In(loc)
	return calendar.Event{
		Summary:     summary,
		Description: fmt.Sprintf("Agendamento via %s", cfg.Name),
		Start:       start,
		End:         start.Add(time.Duration(hold.DurationMinutes) * time.Minute),
		Timezone:    cfg.Timezone,
	}
}
