package booking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

// PersonaResponder produces the conversational reply for messages that carry
// no booking intent.
type PersonaResponder interface {
	Reply(ctx context.Context, cfg *business.Config, message string) (string, error)
}

// InboundMessage is a normalized customer message, channel-agnostic.
type InboundMessage struct {
	CustomerID   string
	CustomerName string
	Text         string
}

// OutcomeKind labels which branch of the flow produced the reply.
type OutcomeKind string

const (
	OutcomeConfirmed        OutcomeKind = "confirmed"
	OutcomeNothingToConfirm OutcomeKind = "nothing_to_confirm"
	OutcomeCalendarFailed   OutcomeKind = "calendar_failed"
	OutcomeHoldPlaced       OutcomeKind = "hold_placed"
	OutcomeSlotsOffered     OutcomeKind = "slots_offered"
	OutcomeClarification    OutcomeKind = "clarification"
	OutcomePersona          OutcomeKind = "persona"
)

// Outcome is the orchestrator's result: the reply to send and which branch
// produced it.
type Outcome struct {
	Kind        OutcomeKind
	Reply       string
	Appointment *Appointment
}

// Orchestrator is the per-message state machine. Confirmation is checked
// first, then booking intent, then the persona fallback. It is stateless
// between messages; all conversational state lives in the appointments table.
type Orchestrator struct {
	extractor  *IntentExtractor
	classifier ConfirmationClassifier
	holds      *HoldManager
	confirmer  *Confirmer
	persona    PersonaResponder
	repo       Repository
	holdTTL    time.Duration
	now        func() time.Time
	logger     *logging.Logger
	tracer     trace.Tracer
}

// OrchestratorConfig collects the orchestrator's collaborators.
type OrchestratorConfig struct {
	Extractor  *IntentExtractor
	Classifier ConfirmationClassifier
	Holds      *HoldManager
	Confirmer  *Confirmer
	Persona    PersonaResponder
	Repo       Repository
	HoldTTL    time.Duration
	Now        func() time.Time
	Logger     *logging.Logger
}

// NewOrchestrator wires the state machine. Extractor, classifier, TTL,
// clock, and logger default when unset; the rest are required.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Extractor == nil {
		cfg.Extractor = NewIntentExtractor(cfg.Now)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewKeywordConfirmationClassifier()
	}
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = DefaultHoldTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Orchestrator{
		extractor:  cfg.Extractor,
		classifier: cfg.Classifier,
		holds:      cfg.Holds,
		confirmer:  cfg.Confirmer,
		persona:    cfg.Persona,
		repo:       cfg.Repo,
		holdTTL:    cfg.HoldTTL,
		now:        cfg.Now,
		logger:     cfg.Logger,
		tracer:     otel.Tracer("booking/orchestrator"),
	}
}

// Handle runs one inbound message through the flow and returns the reply.
// A non-nil error means persistence failed and the message should be retried
// by the channel; every domain-level miss (expired hold, full day, calendar
// outage) comes back as a normal Outcome instead.
func (o *Orchestrator) Handle(ctx context.Context, cfg *business.Config, msg InboundMessage) (*Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "HandleMessage")
	defer span.End()

	if o.classifier.IsConfirmation(msg.Text) {
		return o.handleConfirmation(ctx, cfg, msg)
	}

	intent := o.extractor.Extract(msg.Text, cfg.ServiceNames())
	if intent.HasIntent {
		return o.handleIntent(ctx, cfg, msg, intent)
	}

	reply, err := o.persona.Reply(ctx, cfg, msg.Text)
	if err != nil {
		o.logger.WithTenant(cfg.TenantID).Warn("persona reply failed", "error", err)
		return &Outcome{Kind: OutcomePersona, Reply: ApologyMessage()}, nil
	}
	return &Outcome{Kind: OutcomePersona, Reply: reply}, nil
}

func (o *Orchestrator) handleConfirmation(ctx context.Context, cfg *business.Config, msg InboundMessage) (*Outcome, error) {
	appt, err := o.confirmer.Confirm(ctx, cfg, msg.CustomerID)
	switch {
	case err == nil:
		return &Outcome{
			Kind:        OutcomeConfirmed,
			Reply:       ConfirmedMessage(appt, cfg.Location()),
			Appointment: appt,
		}, nil
	case errors.Is(err, ErrNoPendingHold):
		return &Outcome{Kind: OutcomeNothingToConfirm, Reply: NothingToConfirmMessage()}, nil
	case errors.Is(err, ErrCalendarUnavailable):
		o.logger.WithTenant(cfg.TenantID).Error("calendar unavailable on confirm", "error", err)
		return &Outcome{Kind: OutcomeCalendarFailed, Reply: CalendarFailMessage()}, nil
	default:
		return nil, err
	}
}

func (o *Orchestrator) handleIntent(ctx context.Context, cfg *business.Config, msg InboundMessage, intent Intent) (*Outcome, error) {
	loc := cfg.Location()
	duration := cfg.Window.DefaultDurationMinutes
	if intent.Service != "" {
		duration = cfg.DurationFor(intent.Service)
	}

	if intent.Date == "" {
		// No date resolved; the best guess is today.
		y, m, d := o.now().In(loc).Date()
		return o.offerSlots(ctx, cfg, time.Date(y, m, d, 0, 0, 0, 0, loc), duration, OutcomeSlotsOffered, "")
	}

	day, err := time.ParseInLocation("2006-01-02", intent.Date, loc)
	if err != nil {
		return &Outcome{Kind: OutcomeClarification, Reply: MissingDateTimeMessage([]string{"date"})}, nil
	}

	if intent.Time == "" {
		return o.offerSlots(ctx, cfg, day, duration, OutcomeSlotsOffered, "")
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", intent.Date+" "+intent.Time, loc)
	if err != nil {
		return &Outcome{Kind: OutcomeClarification, Reply: MissingDateTimeMessage([]string{"time"})}, nil
	}
	now := o.now()
	if !start.After(now) {
		return &Outcome{Kind: OutcomeClarification, Reply: PastTimeMessage()}, nil
	}
	if !cfg.Window.DayAvailable(start.Weekday()) {
		return &Outcome{Kind: OutcomeClarification, Reply: ClosedDayMessage(day)}, nil
	}
	if !WithinWindow(start, duration, cfg.Window) {
		// Open day, but the requested time is outside opening hours.
		return o.offerSlots(ctx, cfg, day, duration, OutcomeSlotsOffered, "")
	}

	result, err := o.holds.PlaceHold(ctx, HoldRequest{
		TenantID:        cfg.TenantID,
		CustomerID:      msg.CustomerID,
		CustomerName:    msg.CustomerName,
		Service:         intent.Service,
		StartsAt:        start.UTC(),
		DurationMinutes: duration,
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			return o.offerSlots(ctx, cfg, day, duration, OutcomeSlotsOffered, "taken")
		}
		return nil, err
	}
	return &Outcome{
		Kind:        OutcomeHoldPlaced,
		Reply:       HoldPlacedMessage(result.Appointment, loc, o.holdTTL),
		Appointment: result.Appointment,
	}, nil
}

// offerSlots computes the day's openings and phrases them. mood "taken"
// prefixes the conflict apology.
func (o *Orchestrator) offerSlots(ctx context.Context, cfg *business.Config, day time.Time, duration int, kind OutcomeKind, mood string) (*Outcome, error) {
	slots, err := o.FreeSlotsForDay(ctx, cfg, day, duration)
	if err != nil {
		return nil, err
	}
	reply := AvailableSlotsMessage(day, slots)
	if mood == "taken" {
		reply = SlotTakenMessage(day, slots)
	}
	return &Outcome{Kind: kind, Reply: reply}, nil
}

// FreeSlotsForDay loads the day's blocking appointments and returns the open
// start times in the tenant's zone, past times excluded. Shared with the
// portal's availability endpoint.
func (o *Orchestrator) FreeSlotsForDay(ctx context.Context, cfg *business.Config, day time.Time, durationMinutes int) ([]time.Time, error) {
	loc := cfg.Location()
	year, month, d := day.In(loc).Date()
	dayStart := time.Date(year, month, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	now := o.now()
	existing, err := o.repo.ListBlocking(ctx, cfg.TenantID, dayStart.UTC(), dayEnd.UTC(), now.UTC())
	if err != nil {
		return nil, err
	}

	all := FreeSlots(dayStart, durationMinutes, cfg.Window, loc, existing)
	slots := all[:0:0]
	for _, s := range all {
		if s.After(now) {
			slots = append(slots, s)
		}
	}
	return slots, nil
}
