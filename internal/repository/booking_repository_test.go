package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
)

func sampleBooking() *models.Booking {
	start := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	return &models.Booking{
		EventTypeID:     "evt-1",
		HostID:          "host-1",
		InviteeName:     "Ada",
		InviteeEmail:    "ada@example.com",
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
		DurationMinutes: 30,
		Timezone:        "Europe/London",
	}
}

func TestBookingRepositoryCreateIfFree(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	booking := sampleBooking()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("host-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE host_id = \$1 AND status <> 'cancelled'`).
		WithArgs("host-1", booking.StartTime, booking.EndTime).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateIfFree(context.Background(), booking, booking.StartTime, booking.EndTime))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingScheduled, booking.Status)
	assert.NotNil(t, booking.Guests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateIfFreeRejectsOverlap(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	booking := sampleBooking()
	blockStart := booking.StartTime.Add(-10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs("host-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs("host-1", blockStart, booking.EndTime).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateIfFree(context.Background(), booking, blockStart, booking.EndTime)
	assert.True(t, errors.Is(err, ErrBookingOverlap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListMeetingsUpcoming(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	start := now.Add(48 * time.Hour)

	columns := []string{"id", "event_type_id", "host_id", "invitee_name", "invitee_email", "invitee_notes", "guests",
		"start_time", "end_time", "duration_minutes", "invitee_timezone", "status", "cancel_reason", "cancelled_by",
		"cancelled_at", "created_at", "updated_at", "event_type_name", "event_type_color", "note"}
	mock.ExpectQuery(`LEFT JOIN meeting_notes n ON n.booking_id = b.id WHERE b.host_id = \$1 AND b.end_time >= \$2 AND b.status <> 'cancelled' ORDER BY b.start_time ASC LIMIT 10 OFFSET 10`).
		WithArgs("host-1", now).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"bk-1", "evt-1", "host-1", "Ada", "ada@example.com", nil, "{grace@example.com}",
			start, start.Add(30*time.Minute), 30, "Europe/London", "scheduled", nil, nil,
			nil, now, now, "Intro Call", "#8B5CF6", "bring slides"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings b WHERE b.host_id = \$1`).
		WithArgs("host-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	meetings, total, err := repo.ListMeetings(context.Background(), models.BookingFilter{
		HostID: "host-1", Scope: models.MeetingsUpcoming, Now: now, Page: 2, PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, meetings, 1)
	assert.Equal(t, "Intro Call", meetings[0].EventTypeName)
	assert.Equal(t, []string{"grace@example.com"}, []string(meetings[0].Guests))
	require.NotNil(t, meetings[0].Note)
	assert.Equal(t, "bring slides", *meetings[0].Note)
	assert.Nil(t, meetings[0].CancelledBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCancelTwice(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	reason := "conflict"
	at := time.Now()

	mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
		WithArgs("bk-1", "host", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
		WithArgs("bk-1", "host", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Cancel(context.Background(), "bk-1", models.CancelledByHost, &reason, at))
	assert.ErrorIs(t, repo.Cancel(context.Background(), "bk-1", models.CancelledByHost, &reason, at), ErrBookingNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListBusy(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	from := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT start_time, end_time FROM bookings`).
		WithArgs("host-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}).
			AddRow(from.Add(14*time.Hour), from.Add(14*time.Hour+30*time.Minute)))

	ranges, err := repo.ListBusy(context.Background(), "host-1", from, to)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.True(t, ranges[0].Overlaps(from.Add(14*time.Hour+15*time.Minute), from.Add(15*time.Hour)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryNotes(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(`INSERT INTO meeting_notes`).
		WithArgs(sqlmock.AnyArg(), "bk-1", "follow up", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM meeting_notes WHERE booking_id = \$1`).
		WithArgs("bk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	note := &models.MeetingNote{BookingID: "bk-1", Content: "follow up"}
	require.NoError(t, repo.UpsertNote(context.Background(), note))
	assert.NotEmpty(t, note.ID)
	require.NoError(t, repo.DeleteNote(context.Background(), "bk-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
