package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// BookingRepository persists bookings and meeting notes.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `b.id, b.event_type_id, b.host_id, b.invitee_name, b.invitee_email, b.invitee_notes, b.guests,
b.start_time, b.end_time, b.duration_minutes, b.invitee_timezone, b.status, b.cancel_reason, b.cancelled_by,
b.cancelled_at, b.created_at, b.updated_at`

const meetingColumns = bookingColumns + `, e.name AS event_type_name, e.color AS event_type_color, n.content AS note`

const meetingJoins = ` FROM bookings b
JOIN event_types e ON e.id = b.event_type_id
LEFT JOIN meeting_notes n ON n.booking_id = b.id`

// CreateIfFree inserts the booking unless another active booking of the same host
// overlaps [blockStart, blockEnd). The check and the insert run under a per-host
// advisory lock so two concurrent requests cannot both succeed.
func (r *BookingRepository) CreateIfFree(ctx context.Context, booking *models.Booking, blockStart, blockEnd time.Time) (err error) {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = models.BookingScheduled
	}
	if booking.Guests == nil {
		booking.Guests = []string{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.HostID); err != nil {
		return fmt.Errorf("lock host bookings: %w", err)
	}

	const overlap = `SELECT COUNT(*) FROM bookings WHERE host_id = $1 AND status <> 'cancelled' AND start_time < $3 AND end_time > $2`
	var count int
	if err = tx.GetContext(ctx, &count, overlap, booking.HostID, blockStart.UTC(), blockEnd.UTC()); err != nil {
		return fmt.Errorf("check booking overlap: %w", err)
	}
	if count > 0 {
		err = ErrBookingOverlap
		return err
	}

	const insert = `INSERT INTO bookings (id, event_type_id, host_id, invitee_name, invitee_email, invitee_notes, guests,
start_time, end_time, duration_minutes, invitee_timezone, status, created_at, updated_at)
VALUES (:id, :event_type_id, :host_id, :invitee_name, :invitee_email, :invitee_notes, :guests,
:start_time, :end_time, :duration_minutes, :invitee_timezone, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindMeeting loads one of the host's bookings with event type and note.
func (r *BookingRepository) FindMeeting(ctx context.Context, hostID, id string) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + meetingJoins + ` WHERE b.id = $1 AND b.host_id = $2`
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, id, hostID); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ListMeetings returns a page of the host's bookings for the requested scope.
// Upcoming meetings are ordered soonest first, past and all newest first.
func (r *BookingRepository) ListMeetings(ctx context.Context, filter models.BookingFilter) ([]models.Meeting, int, error) {
	conditions := []string{"b.host_id = $1"}
	args := []interface{}{filter.HostID}
	order := "b.start_time DESC"

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch filter.Scope {
	case models.MeetingsUpcoming:
		args = append(args, now.UTC())
		conditions = append(conditions, fmt.Sprintf("b.end_time >= $%d AND b.status <> 'cancelled'", len(args)))
		order = "b.start_time ASC"
	case models.MeetingsPast:
		args = append(args, now.UTC())
		conditions = append(conditions, fmt.Sprintf("(b.end_time < $%d OR b.status = 'cancelled')", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s%s%s ORDER BY %s LIMIT %d OFFSET %d", meetingColumns, meetingJoins, where, order, size, offset)
	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM bookings b" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}
	return meetings, total, nil
}

// ListBusy returns the ranges of the host's active bookings that touch [from, to).
func (r *BookingRepository) ListBusy(ctx context.Context, hostID string, from, to time.Time) ([]models.BusyRange, error) {
	const query = `SELECT start_time, end_time FROM bookings
WHERE host_id = $1 AND status <> 'cancelled' AND start_time < $3 AND end_time > $2 ORDER BY start_time ASC`
	var ranges []models.BusyRange
	if err := r.db.SelectContext(ctx, &ranges, query, hostID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("list busy ranges: %w", err)
	}
	return ranges, nil
}

// Cancel marks an active booking cancelled. Cancelling twice returns ErrBookingNotActive.
func (r *BookingRepository) Cancel(ctx context.Context, id string, by models.CancelledBy, reason *string, at time.Time) error {
	const query = `UPDATE bookings SET status = 'cancelled', cancelled_by = $2, cancel_reason = $3, cancelled_at = $4, updated_at = $4
WHERE id = $1 AND status <> 'cancelled'`
	res, err := r.db.ExecContext(ctx, query, id, string(by), reason, at.UTC())
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrBookingNotActive
	}
	return nil
}

// UpsertNote stores the host's note for a booking.
func (r *BookingRepository) UpsertNote(ctx context.Context, note *models.MeetingNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	note.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO meeting_notes (id, booking_id, content, updated_at)
VALUES (:id, :booking_id, :content, :updated_at)
ON CONFLICT (booking_id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("upsert meeting note: %w", err)
	}
	return nil
}

// DeleteNote removes the note of a booking.
func (r *BookingRepository) DeleteNote(ctx context.Context, bookingID string) error {
	const query = `DELETE FROM meeting_notes WHERE booking_id = $1`
	res, err := r.db.ExecContext(ctx, query, bookingID)
	if err != nil {
		return fmt.Errorf("delete meeting note: %w", err)
	}
	return expectAffected(res)
}
