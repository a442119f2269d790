package booking

import (
	"context"

	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

// EventChecker is the slice of the calendar integration the sync pass uses.
// *calendar.GoogleAdapter satisfies it.
type EventChecker interface {
	EventCancelled(ctx context.Context, eventID string) (bool, error)
}

// EventCheckerFactory builds a checker for a tenant, or returns (nil, nil)
// when the tenant has no calendar connected.
type EventCheckerFactory func(ctx context.Context, cfg *business.Config) (EventChecker, error)

// NotifyFunc delivers a message to a customer on the tenant's channel.
type NotifyFunc func(ctx context.Context, cfg *business.Config, customerID, text string) error

// CalendarSync reconciles provider-side cancellations back into storage.
// A scheduled appointment whose calendar event was deleted by the business
// transitions to cancelled, and the customer is told.
type CalendarSync struct {
	repo       Repository
	checkerFor EventCheckerFactory
	notify     NotifyFunc
	logger     *logging.Logger
}

// NewCalendarSync wires a sync pass. A nil notify skips customer messages.
func NewCalendarSync(repo Repository, checkerFor EventCheckerFactory, notify NotifyFunc, logger *logging.Logger) *CalendarSync {
	if checkerFor == nil {
		checkerFor = func(context.Context, *business.Config) (EventChecker, error) { return nil, nil }
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarSync{repo: repo, checkerFor: checkerFor, notify: notify, logger: logger}
}

// Run checks every calendar-backed appointment of the tenant and returns how
// many were cancelled. Lookup failures on individual events are logged and
// skipped so one flaky event does not stall the rest of the pass.
func (s *CalendarSync) Run(ctx context.Context, cfg *business.Config) (int, error) {
	log := s.logger.WithTenant(cfg.TenantID)

	checker, err := s.checkerFor(ctx, cfg)
	if err != nil {
		return 0, err
	}
	if checker == nil {
		return 0, nil
	}

	appts, err := s.repo.ListCalendarBacked(ctx, cfg.TenantID)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range appts {
		appt := &appts[i]

		gone, err := checker.EventCancelled(ctx, appt.CalendarEventID)
		if err != nil {
			log.Warn("calendar event lookup failed",
				"appointment_id", appt.ID,
				"event_id", appt.CalendarEventID,
				"error", err,
			)
			continue
		}
		if !gone {
			continue
		}

		if err := s.repo.UpdateStatus(ctx, appt.ID, StatusCancelled); err != nil {
			return cancelled, err
		}
		cancelled++
		log.Info("appointment cancelled from calendar",
			"appointment_id", appt.ID,
			"customer_id", appt.CustomerID,
		)

		if s.notify != nil {
			if err := s.notify(ctx, cfg, appt.CustomerID, CancelledByBusinessMessage(appt, cfg.Location())); err != nil {
				log.Warn("cancellation notice failed",
					"appointment_id", appt.ID,
					"customer_id", appt.CustomerID,
					"error", err,
				)
			}
		}
	}
	return cancelled, nil
}
