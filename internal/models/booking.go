package models

import (
	"time"

	"github.com/lib/pq"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingScheduled BookingStatus = "scheduled"
	BookingCancelled BookingStatus = "cancelled"
)

// CancelledBy records who cancelled a booking.
type CancelledBy string

const (
	CancelledByHost    CancelledBy = "host"
	CancelledByInvitee CancelledBy = "invitee"
)

// Booking is a confirmed meeting. Bookings are never deleted; cancellation is a status change.
type Booking struct {
	ID              string         `db:"id" json:"id"`
	EventTypeID     string         `db:"event_type_id" json:"event_type_id"`
	HostID          string         `db:"host_id" json:"host_id"`
	InviteeName     string         `db:"invitee_name" json:"invitee_name"`
	InviteeEmail    string         `db:"invitee_email" json:"invitee_email"`
	InviteeNotes    *string        `db:"invitee_notes" json:"invitee_notes,omitempty"`
	Guests          pq.StringArray `db:"guests" json:"guests"`
	StartTime       time.Time      `db:"start_time" json:"start_time"`
	EndTime         time.Time      `db:"end_time" json:"end_time"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Timezone        string         `db:"invitee_timezone" json:"timezone"`
	Status          BookingStatus  `db:"status" json:"status"`
	CancelReason    *string        `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy     *CancelledBy   `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time     `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Active reports whether the booking still blocks its time range.
func (b *Booking) Active() bool {
	return b.Status != BookingCancelled
}

// BusyRange is an absolute half-open time range that blocks slots.
type BusyRange struct {
	Start time.Time `db:"start_time"`
	End   time.Time `db:"end_time"`
}

// Overlaps reports half-open overlap with [start, end).
func (r BusyRange) Overlaps(start, end time.Time) bool {
	return start.Before(r.End) && r.Start.Before(end)
}

// MeetingScope filters host meeting lists.
type MeetingScope string

const (
	MeetingsUpcoming MeetingScope = "upcoming"
	MeetingsPast     MeetingScope = "past"
	MeetingsAll      MeetingScope = "all"
)

// BookingFilter captures host meeting list criteria.
type BookingFilter struct {
	HostID   string
	Scope    MeetingScope
	Now      time.Time
	Page     int
	PageSize int
}

// MeetingNote is the host's private note attached to a booking.
type MeetingNote struct {
	ID        string    `db:"id" json:"id"`
	BookingID string    `db:"booking_id" json:"booking_id"`
	Content   string    `db:"content" json:"content"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Meeting is a booking joined with its event type and note for host views.
type Meeting struct {
	Booking
	EventTypeName  string  `db:"event_type_name" json:"event_type_name"`
	EventTypeColor string  `db:"event_type_color" json:"event_type_color"`
	Note           *string `db:"note" json:"note,omitempty"`
}
