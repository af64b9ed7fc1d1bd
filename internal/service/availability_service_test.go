package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type fakeScheduleReader struct {
	schedule  *models.WeeklySchedule
	overrides []models.DateOverride
	getCalls  int
}

func (f *fakeScheduleReader) GetDefault(context.Context, string) (*models.WeeklySchedule, error) {
	f.getCalls++
	if f.schedule == nil {
		return nil, sql.ErrNoRows
	}
	cp := f.schedule.Clone()
	return &cp, nil
}

func (f *fakeScheduleReader) ListOverrides(context.Context, string, civil.Date, civil.Date) ([]models.DateOverride, error) {
	return f.overrides, nil
}

type fakeBusyReader struct {
	ranges   []models.BusyRange
	from, to time.Time
}

func (f *fakeBusyReader) ListBusy(_ context.Context, _ string, from, to time.Time) ([]models.BusyRange, error) {
	f.from, f.to = from, to
	return f.ranges, nil
}

// mondayMidnight is Monday 2024-03-04 00:00 UTC.
var mondayMidnight = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func hourEventType() models.EventType {
	return models.EventType{ID: "et-1", HostID: "host-1", Name: "Intro", Slug: "intro", DurationMinutes: 60, MaxDaysAhead: 60, IsActive: true}
}

func newTestAvailabilityService(eventTypes ...models.EventType) (*AvailabilityService, *fakeScheduleReader, *fakeBusyReader) {
	schedule := models.DefaultSchedule("UTC")
	schedule.ID = "sched-1"
	schedules := &fakeScheduleReader{schedule: &schedule}
	busy := &fakeBusyReader{}
	svc := NewAvailabilityService(newMockEventTypeRepo(eventTypes...), schedules, busy, nil, nil, nil, nil, AvailabilityServiceConfig{
		DefaultTimezone: "UTC",
		Now:             func() time.Time { return mondayMidnight },
	})
	return svc, schedules, busy
}

func TestAvailableSlotsInHostZone(t *testing.T) {
	svc, _, busy := newTestAvailabilityService(hourEventType())
	busy.ranges = []models.BusyRange{{
		Start: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 5, 11, 0, 0, 0, time.UTC),
	}}

	resp, err := svc.AvailableSlots(context.Background(), dto.AvailableSlotsQuery{EventTypeID: "et-1", Date: "2024-03-05", Timezone: "UTC"})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-05", resp.Date)
	assert.Equal(t, "UTC", resp.Timezone)
	require.Len(t, resp.Slots, 7)
	assert.Equal(t, "09:00", resp.Slots[0].LocalStart)
	assert.Equal(t, "11:00", resp.Slots[1].LocalStart)
	assert.Equal(t, "16:00", resp.Slots[6].LocalStart)
	assert.True(t, busy.from.Before(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, busy.to.After(time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)))
}

func TestAvailableSlotsInViewerZone(t *testing.T) {
	svc, _, _ := newTestAvailabilityService(hourEventType())

	resp, err := svc.AvailableSlots(context.Background(), dto.AvailableSlotsQuery{EventTypeID: "et-1", Date: "2024-03-05", Timezone: "Asia/Kolkata"})
	require.NoError(t, err)

	assert.Equal(t, "Asia/Kolkata", resp.Timezone)
	require.Len(t, resp.Slots, 8)
	assert.Equal(t, "14:30", resp.Slots[0].LocalStart)
	assert.Equal(t, "22:30", resp.Slots[7].LocalEnd)
	assert.True(t, resp.Slots[0].StartTime.Equal(time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)))
}

func TestAvailableSlotsDefaultsToHostZone(t *testing.T) {
	svc, schedules, _ := newTestAvailabilityService(hourEventType())
	schedules.schedule.Timezone = "America/New_York"

	resp, err := svc.AvailableSlots(context.Background(), dto.AvailableSlotsQuery{EventTypeID: "et-1", Date: "2024-03-05"})
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", resp.Timezone)
	require.NotEmpty(t, resp.Slots)
	assert.Equal(t, "09:00", resp.Slots[0].LocalStart)
}

func TestAvailableDatesForMonth(t *testing.T) {
	svc, _, _ := newTestAvailabilityService(hourEventType())

	resp, err := svc.AvailableDates(context.Background(), dto.AvailableDatesQuery{EventTypeID: "et-1", Month: "2024-03", Timezone: "UTC"})
	require.NoError(t, err)

	assert.Equal(t, "2024-03", resp.Month)
	require.Len(t, resp.Dates, 20)
	assert.Equal(t, "2024-03-04", resp.Dates[0])
	assert.Equal(t, "2024-03-29", resp.Dates[19])
	assert.NotContains(t, resp.Dates, "2024-03-09")
}

func TestAvailableDatesBeyondHorizon(t *testing.T) {
	svc, _, _ := newTestAvailabilityService(hourEventType())

	_, err := svc.AvailableDates(context.Background(), dto.AvailableDatesQuery{EventTypeID: "et-1", Month: "2024-07", Timezone: "UTC"})
	assert.ErrorIs(t, err, appErrors.ErrOutsideHorizon)
}

func TestAvailabilityFallsBackWithoutSchedule(t *testing.T) {
	svc, schedules, _ := newTestAvailabilityService(hourEventType())
	schedules.schedule = nil

	resp, err := svc.AvailableSlots(context.Background(), dto.AvailableSlotsQuery{EventTypeID: "et-1", Date: "2024-03-05", Timezone: "UTC"})
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 8)
}

func TestAvailabilityRejectsBadInput(t *testing.T) {
	inactive := hourEventType()
	inactive.ID = "et-2"
	inactive.IsActive = false
	svc, _, _ := newTestAvailabilityService(hourEventType(), inactive)
	ctx := context.Background()

	_, err := svc.AvailableSlots(ctx, dto.AvailableSlotsQuery{EventTypeID: "et-2", Date: "2024-03-05"})
	assert.ErrorIs(t, err, appErrors.ErrEventInactive)

	_, err = svc.AvailableSlots(ctx, dto.AvailableSlotsQuery{EventTypeID: "missing", Date: "2024-03-05"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.AvailableSlots(ctx, dto.AvailableSlotsQuery{EventTypeID: "et-1", Date: "2024-03-05", Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTimezone)

	_, err = svc.AvailableDates(ctx, dto.AvailableDatesQuery{EventTypeID: "et-1", Month: "March"})
	assert.True(t, appErrors.IsValidation(err))
}

func TestOfferedMatchesExactSlotStart(t *testing.T) {
	svc, _, _ := newTestAvailabilityService(hourEventType())
	ctx := context.Background()

	eventType, slot, ok, err := svc.Offered(ctx, "et-1", time.UTC, time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "et-1", eventType.ID)
	assert.True(t, slot.End.Equal(time.Date(2024, time.March, 5, 11, 0, 0, 0, time.UTC)))

	_, _, ok, err = svc.Offered(ctx, "et-1", time.UTC, time.Date(2024, time.March, 5, 10, 15, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = svc.Offered(ctx, "et-1", time.UTC, time.Date(2024, time.March, 9, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
}
