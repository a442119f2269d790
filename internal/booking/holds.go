package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/atendezap/atende-ai-platform/internal/observability/metrics"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

// DefaultHoldTTL is how long a slot hold blocks the calendar while waiting
// for the customer to confirm.
const DefaultHoldTTL = 10 * time.Minute

// HoldRequest describes the slot a customer wants held.
type HoldRequest struct {
	TenantID        string
	CustomerID      string
	CustomerName    string
	Service         string
	StartsAt        time.Time // UTC
	DurationMinutes int
}

// HoldResult is the outcome of a successful PlaceHold.
type HoldResult struct {
	Appointment *Appointment
	// Renewed is true when the customer re-requested a slot they already
	// held; the expiry was pushed forward instead of inserting a new row.
	Renewed bool
}

// HoldManager places and renews slot holds. All placement runs under the
// repository's per-slot lock so two customers racing for the same slot are
// serialized rather than both passing the conflict check.
type HoldManager struct {
	repo    Repository
	holdTTL time.Duration
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	tracer  trace.Tracer
}

// NewHoldManager wires a hold manager. Zero TTL falls back to DefaultHoldTTL,
// nil clock to time.Now, nil logger to a default logger.
func NewHoldManager(repo Repository, holdTTL time.Duration, now func() time.Time, logger *logging.Logger, m *metrics.BookingMetrics) *HoldManager {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HoldManager{
		repo:    repo,
		holdTTL: holdTTL,
		now:     now,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("booking/holds"),
	}
}

// PlaceHold reserves the requested slot as a pending appointment. Requesting
// a slot the customer already holds renews the hold. Any other live hold the
// customer had is cancelled; one customer holds at most one slot at a time.
// Returns ErrSlotConflict when the interval is taken.
func (h *HoldManager) PlaceHold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	ctx, span := h.tracer.Start(ctx, "PlaceHold")
	defer span.End()

	var result *HoldResult
	err := h.repo.WithSlotLock(ctx, req.TenantID, req.StartsAt, func(ctx context.Context) error {
		var err error
		result, err = h.placeLocked(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.metrics.ObserveHoldPlaced(result.Renewed)
	h.logger.WithTenant(req.TenantID).Info("slot hold placed",
		"customer_id", req.CustomerID,
		"starts_at", req.StartsAt,
		"renewed", result.Renewed,
	)
	return result, nil
}

func (h *HoldManager) placeLocked(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	now := h.now().UTC()
	start := req.StartsAt.UTC()
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	// Re-requesting a held slot renews it.
	if existing, err := h.repo.FindLiveHoldForSlot(ctx, req.TenantID, req.CustomerID, start, now); err == nil {
		expiry := now.Add(h.holdTTL)
		if err := h.repo.ExtendHold(ctx, existing.ID, expiry); err != nil {
			return nil, fmt.Errorf("booking: renew hold: %w", err)
		}
		existing.HoldExpiresAt = &expiry
		return &HoldResult{Appointment: existing, Renewed: true}, nil
	} else if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, err
	}

	blocking, err := h.repo.ListBlocking(ctx, req.TenantID, start, end, now)
	if err != nil {
		return nil, err
	}
	// The customer's own live holds do not block; the new hold supersedes
	// them below.
	conflicts := blocking[:0:0]
	for _, row := range blocking {
		if row.CustomerID == req.CustomerID && row.IsLiveHoldAt(now) {
			continue
		}
		conflicts = append(conflicts, row)
	}
	if HasConflict(start, req.DurationMinutes, conflicts) {
		h.metrics.ObserveSlotConflict()
		return nil, ErrSlotConflict
	}

	expiry := now.Add(h.holdTTL)
	appt := &Appointment{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		Service:         req.Service,
		StartsAt:        start,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusPending,
		HoldExpiresAt:   &expiry,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.repo.CreateHold(ctx, appt); err != nil {
		return nil, err
	}
	if err := h.repo.ReleaseOtherHolds(ctx, req.TenantID, req.CustomerID, appt.ID, now); err != nil {
		return nil, err
	}
	return &HoldResult{Appointment: appt}, nil
}
