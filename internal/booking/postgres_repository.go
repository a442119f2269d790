package booking

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is the overlap of PgxPool and pgx.Tx used by the row methods, so
// the same code runs inside and outside WithSlotLock transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txContextKey struct{}

// PostgresRepository persists appointments in the appointments table.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository wraps a pgx pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// q returns the transaction bound to ctx by WithSlotLock, or the pool.
func (r *PostgresRepository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

const appointmentColumns = `id, tenant_id, customer_id, customer_name, service,
	starts_at, duration_minutes, status, hold_expires_at,
	calendar_event_id, calendar_event_link, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.TenantID, &a.CustomerID, &a.CustomerName, &a.Service,
		&a.StartsAt, &a.DurationMinutes, &a.Status, &a.HoldExpiresAt,
		&a.CalendarEventID, &a.CalendarEventLink, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("booking: scan appointment: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) ListBlocking(ctx context.Context, tenantID string, from, to, now time.Time) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1
		  AND starts_at < $3
		  AND starts_at + (duration_minutes * INTERVAL '1 minute') > $2
		  AND (
		    status IN ('scheduled', 'confirmed')
		    OR (status = 'pending' AND hold_expires_at > $4)
		  )
		ORDER BY starts_at`

	rows, err := r.q(ctx).Query(ctx, query, tenantID, from.UTC(), to.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("booking: list blocking appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: list blocking appointments: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CreateHold(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, tenant_id, customer_id, customer_name,
			service, starts_at, duration_minutes, status, hold_expires_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	_, err := r.q(ctx).Exec(ctx, query,
		appt.ID, appt.TenantID, appt.CustomerID, appt.CustomerName,
		appt.Service, appt.StartsAt.UTC(), appt.DurationMinutes, appt.Status,
		appt.HoldExpiresAt, appt.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("booking: create hold: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ExtendHold(ctx context.Context, id string, expiresAt time.Time) error {
	query := `
		UPDATE appointments
		SET hold_expires_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.q(ctx).Exec(ctx, query, id, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("booking: extend hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PostgresRepository) LatestLiveHold(ctx context.Context, tenantID, customerID string, now time.Time) (*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1 AND customer_id = $2
		  AND status = 'pending' AND hold_expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`

	return scanAppointment(r.q(ctx).QueryRow(ctx, query, tenantID, customerID, now.UTC()))
}

func (r *PostgresRepository) FindLiveHoldForSlot(ctx context.Context, tenantID, customerID string, startsAt, now time.Time) (*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1 AND customer_id = $2 AND starts_at = $3
		  AND status = 'pending' AND hold_expires_at > $4
		LIMIT 1`

	return scanAppointment(r.q(ctx).QueryRow(ctx, query, tenantID, customerID, startsAt.UTC(), now.UTC()))
}

func (r *PostgresRepository) ReleaseOtherHolds(ctx context.Context, tenantID, customerID, keepID string, now time.Time) error {
	query := `
		UPDATE appointments
		SET status = 'cancelled', updated_at = NOW()
		WHERE tenant_id = $1 AND customer_id = $2 AND id <> $3
		  AND status = 'pending' AND hold_expires_at > $4`

	_, err := r.q(ctx).Exec(ctx, query, tenantID, customerID, keepID, now.UTC())
	if err != nil {
		return fmt.Errorf("booking: release other holds: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Promote(ctx context.Context, id, eventID, eventLink string) error {
	query := `
		UPDATE appointments
		SET status = 'scheduled', hold_expires_at = NULL,
		    calendar_event_id = $2, calendar_event_link = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.q(ctx).Exec(ctx, query, id, eventID, eventLink)
	if err != nil {
		return fmt.Errorf("booking: promote hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q(ctx).Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("booking: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCalendarBacked(ctx context.Context, tenantID string) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1
		  AND status IN ('scheduled', 'confirmed')
		  AND calendar_event_id <> ''
		ORDER BY starts_at`

	rows, err := r.q(ctx).Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("booking: list calendar-backed appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: list calendar-backed appointments: %w", err)
	}
	return out, nil
}

// WithSlotLock serializes hold placement on a (tenant, slot) pair with a
// transaction-scoped advisory lock. The lock key survives for the duration
// of the transaction and is released automatically on commit or rollback, so
// two customers racing for the same slot are ordered instead of both
// passing the conflict check.
func (r *PostgresRepository) WithSlotLock(ctx context.Context, tenantID string, slot time.Time, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("booking: begin slot lock tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockKey(tenantID, slot)); err != nil {
		return fmt.Errorf("booking: acquire slot lock: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("booking: commit slot lock tx: %w", err)
	}
	return nil
}

// slotLockKey maps (tenant, slot) onto the advisory lock keyspace.
func slotLockKey(tenantID string, slot time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(tenantID))
	h.Write([]byte{'|'})
	h.Write([]byte(slot.UTC().Format(time.RFC3339)))
	return int64(h.Sum64())
}
