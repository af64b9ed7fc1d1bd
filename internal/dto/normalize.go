package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// The normalizers below accept every payload shape the booking backends have been seen
// to emit (snake_case, camelCase, short names, bare arrays) and produce the fixed model.

type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// pick decodes the first present, non-null key into dst.
func (f fields) pick(dst interface{}, keys ...string) (bool, error) {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return false, fmt.Errorf("field %s: %w", key, err)
		}
		return true, nil
	}
	return false, nil
}

func isArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// NormalizeSchedule decodes a schedule payload.
func NormalizeSchedule(data []byte) (models.WeeklySchedule, error) {
	var schedule models.WeeklySchedule
	f, err := decodeFields(data)
	if err != nil {
		return schedule, fmt.Errorf("decode schedule: %w", err)
	}
	for _, probe := range []struct {
		dst  interface{}
		keys []string
	}{
		{&schedule.ID, []string{"id", "schedule_id", "scheduleId"}},
		{&schedule.Name, []string{"name"}},
		{&schedule.Timezone, []string{"timezone", "time_zone", "timeZone", "tz"}},
		{&schedule.IsDefault, []string{"is_default", "isDefault"}},
		{&schedule.UpdatedAt, []string{"updated_at", "updatedAt"}},
	} {
		if _, err := f.pick(probe.dst, probe.keys...); err != nil {
			return schedule, err
		}
	}

	var entries []json.RawMessage
	if _, err := f.pick(&entries, "weekly_hours", "weeklyHours", "days", "hours"); err != nil {
		return schedule, err
	}
	hours := make([]WeeklyHoursDTO, 0, len(entries))
	for _, entry := range entries {
		day, err := normalizeWeeklyHours(entry)
		if err != nil {
			return schedule, err
		}
		hours = append(hours, day)
	}
	days, err := WeeklyHoursToDays(hours)
	if err != nil {
		return schedule, err
	}
	schedule.Days = days
	return schedule, nil
}

func normalizeWeeklyHours(data []byte) (WeeklyHoursDTO, error) {
	var out WeeklyHoursDTO
	f, err := decodeFields(data)
	if err != nil {
		return out, fmt.Errorf("decode weekly hours: %w", err)
	}
	found, err := f.pick(&out.DayOfWeek, "day_of_week", "dayOfWeek", "day", "weekday")
	if err != nil {
		return out, err
	}
	if !found {
		return out, fmt.Errorf("weekly hours entry without day_of_week")
	}
	var entries []json.RawMessage
	if _, err := f.pick(&entries, "intervals", "ranges", "slots"); err != nil {
		return out, err
	}
	for _, entry := range entries {
		interval, err := normalizeInterval(entry)
		if err != nil {
			return out, err
		}
		out.Intervals = append(out.Intervals, interval)
	}
	enabled, err := f.pick(&out.IsEnabled, "is_enabled", "isEnabled", "enabled")
	if err != nil {
		return out, err
	}
	if !enabled {
		out.IsEnabled = len(out.Intervals) > 0
	}
	return out, nil
}

func normalizeInterval(data []byte) (IntervalDTO, error) {
	var out IntervalDTO
	f, err := decodeFields(data)
	if err != nil {
		return out, fmt.Errorf("decode interval: %w", err)
	}
	if _, err := f.pick(&out.StartTime, "start_time", "startTime", "start", "from"); err != nil {
		return out, err
	}
	if _, err := f.pick(&out.EndTime, "end_time", "endTime", "end", "to"); err != nil {
		return out, err
	}
	// "09:00:00" from TIME columns.
	out.StartTime = trimSeconds(out.StartTime)
	out.EndTime = trimSeconds(out.EndTime)
	return out, nil
}

func trimSeconds(clock string) string {
	if len(clock) == 8 && clock[5] == ':' {
		return clock[:5]
	}
	return clock
}

// NormalizeDates decodes an available-dates payload. Entries may be dates or timestamps.
func NormalizeDates(data []byte) ([]civil.Date, error) {
	var raw []string
	if isArray(data) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode dates: %w", err)
		}
	} else {
		f, err := decodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("decode dates: %w", err)
		}
		if _, err := f.pick(&raw, "dates", "available_dates", "availableDates", "days"); err != nil {
			return nil, err
		}
	}

	dates := make([]civil.Date, 0, len(raw))
	for _, value := range raw {
		if len(value) > 10 {
			value = value[:10]
		}
		date, err := ParseDate(value)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, nil
}

// NormalizeSlots decodes an available-slots payload into slots presented in viewer.
// Entries may be objects or bare start timestamps; a missing end is start+duration.
func NormalizeSlots(data []byte, viewer *time.Location, duration time.Duration) ([]models.Slot, error) {
	var entries []json.RawMessage
	if isArray(data) {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode slots: %w", err)
		}
	} else {
		f, err := decodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("decode slots: %w", err)
		}
		if _, err := f.pick(&entries, "slots", "available_slots", "availableSlots", "times"); err != nil {
			return nil, err
		}
	}
	if viewer == nil {
		viewer = time.UTC
	}

	slots := make([]models.Slot, 0, len(entries))
	for _, entry := range entries {
		var start, end time.Time
		trimmed := bytes.TrimSpace(entry)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			if err := json.Unmarshal(trimmed, &start); err != nil {
				return nil, fmt.Errorf("decode slot: %w", err)
			}
		} else {
			f, err := decodeFields(trimmed)
			if err != nil {
				return nil, fmt.Errorf("decode slot: %w", err)
			}
			found, err := f.pick(&start, "start_time", "startTime", "start")
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("slot without start_time")
			}
			if _, err := f.pick(&end, "end_time", "endTime", "end"); err != nil {
				return nil, err
			}
		}
		if end.IsZero() {
			if duration <= 0 {
				return nil, fmt.Errorf("slot %s has no end and no duration is known", start.Format(time.RFC3339))
			}
			end = start.Add(duration)
		}
		localStart, localEnd := start.In(viewer), end.In(viewer)
		slots = append(slots, models.Slot{
			Start:      localStart,
			End:        localEnd,
			LocalStart: localStart.Format("15:04"),
			LocalEnd:   localEnd.Format("15:04"),
		})
	}
	return slots, nil
}

// NormalizeBooking decodes a created or fetched booking.
func NormalizeBooking(data []byte) (BookingResponse, error) {
	var out BookingResponse
	f, err := decodeFields(data)
	if err != nil {
		return out, fmt.Errorf("decode booking: %w", err)
	}
	var status string
	for _, probe := range []struct {
		dst  interface{}
		keys []string
	}{
		{&out.ID, []string{"id", "booking_id", "bookingId", "uid"}},
		{&out.EventTypeID, []string{"event_type_id", "eventTypeId"}},
		{&out.HostID, []string{"host_id", "hostId", "user_id", "userId"}},
		{&out.InviteeName, []string{"invitee_name", "inviteeName", "name"}},
		{&out.InviteeEmail, []string{"invitee_email", "inviteeEmail", "email"}},
		{&out.StartTime, []string{"start_time", "startTime", "start"}},
		{&out.EndTime, []string{"end_time", "endTime", "end"}},
		{&out.DurationMinutes, []string{"duration_minutes", "durationMinutes", "duration"}},
		{&out.Timezone, []string{"timezone", "invitee_timezone", "inviteeTimezone"}},
		{&status, []string{"status"}},
		{&out.CancelReason, []string{"cancel_reason", "cancelReason", "cancellation_reason", "cancellationReason"}},
		{&out.CancelToken, []string{"cancel_token", "cancelToken"}},
		{&out.EventTypeName, []string{"event_type_name", "eventTypeName"}},
	} {
		if _, err := f.pick(probe.dst, probe.keys...); err != nil {
			return out, err
		}
	}
	if out.ID == "" {
		return out, fmt.Errorf("booking payload without id")
	}

	switch strings.ToLower(status) {
	case "cancelled", "canceled":
		out.Status = models.BookingCancelled
	default:
		out.Status = models.BookingScheduled
	}
	if out.DurationMinutes == 0 && !out.EndTime.IsZero() {
		out.DurationMinutes = int(out.EndTime.Sub(out.StartTime) / time.Minute)
	}
	if out.EndTime.IsZero() && out.DurationMinutes > 0 {
		out.EndTime = out.StartTime.Add(time.Duration(out.DurationMinutes) * time.Minute)
	}
	return out, nil
}
