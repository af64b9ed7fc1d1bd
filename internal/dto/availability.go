package dto

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// IntervalDTO is a host-local "HH:MM" range.
type IntervalDTO struct {
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
}

// WeeklyHoursDTO is one weekday entry of a schedule.
type WeeklyHoursDTO struct {
	DayOfWeek int           `json:"day_of_week" validate:"min=0,max=6"`
	DayName   string        `json:"day_name,omitempty"`
	IsEnabled bool          `json:"is_enabled"`
	Intervals []IntervalDTO `json:"intervals" validate:"dive"`
}

// ScheduleResponse is the wire form of a weekly schedule.
type ScheduleResponse struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Timezone    string           `json:"timezone"`
	IsDefault   bool             `json:"is_default"`
	WeeklyHours []WeeklyHoursDTO `json:"weekly_hours"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// UpdateScheduleRequest fully replaces a schedule's hours and timezone.
type UpdateScheduleRequest struct {
	ScheduleID  string           `json:"schedule_id,omitempty"`
	Name        string           `json:"name" validate:"omitempty,max=100"`
	Timezone    string           `json:"timezone" validate:"required,max=50"`
	WeeklyHours []WeeklyHoursDTO `json:"weekly_hours" validate:"required,max=7,dive"`
}

// CreateScheduleRequest creates a named schedule seeded with default hours.
type CreateScheduleRequest struct {
	Name      string `json:"name" validate:"omitempty,max=100"`
	Timezone  string `json:"timezone" validate:"omitempty,max=50"`
	IsDefault bool   `json:"is_default"`
}

// TimezoneRequest changes only the schedule timezone.
type TimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required,max=50"`
}

// DateOverrideRequest upserts the override for one date. Empty intervals block the date.
type DateOverrideRequest struct {
	ScheduleID   string        `json:"schedule_id,omitempty"`
	SpecificDate string        `json:"specific_date" validate:"required,datetime=2006-01-02"`
	Intervals    []IntervalDTO `json:"intervals" validate:"dive"`
}

// DateOverrideResponse is the wire form of an override.
type DateOverrideResponse struct {
	ID           string        `json:"id"`
	ScheduleID   string        `json:"schedule_id"`
	SpecificDate string        `json:"specific_date"`
	Intervals    []IntervalDTO `json:"intervals"`
	CreatedAt    time.Time     `json:"created_at"`
}

// DateOverrideQuery bounds an override listing.
type DateOverrideQuery struct {
	ScheduleID string `form:"schedule_id"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// IntervalsFromModel converts model intervals to their wire form.
func IntervalsFromModel(intervals []models.Interval) []IntervalDTO {
	out := make([]IntervalDTO, 0, len(intervals))
	for _, interval := range intervals {
		out = append(out, IntervalDTO{StartTime: interval.Start.String(), EndTime: interval.End.String()})
	}
	return out
}

// IntervalsToModel parses wire intervals. Order and overlap are not checked here.
func IntervalsToModel(intervals []IntervalDTO) ([]models.Interval, error) {
	out := make([]models.Interval, 0, len(intervals))
	for idx, interval := range intervals {
		start, err := models.ParseLocalTime(interval.StartTime)
		if err != nil {
			return nil, fmt.Errorf("interval %d: %w", idx, err)
		}
		end, err := models.ParseLocalTime(interval.EndTime)
		if err != nil {
			return nil, fmt.Errorf("interval %d: %w", idx, err)
		}
		out = append(out, models.Interval{Start: start, End: end})
	}
	return out, nil
}

// ScheduleFromModel renders all seven weekdays, Sunday first.
func ScheduleFromModel(schedule models.WeeklySchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:          schedule.ID,
		Name:        schedule.Name,
		Timezone:    schedule.Timezone,
		IsDefault:   schedule.IsDefault,
		WeeklyHours: make([]WeeklyHoursDTO, 0, models.DaysPerWeek),
	}
	if !schedule.UpdatedAt.IsZero() {
		updated := schedule.UpdatedAt
		resp.UpdatedAt = &updated
	}
	for day, availability := range schedule.Days {
		resp.WeeklyHours = append(resp.WeeklyHours, WeeklyHoursDTO{
			DayOfWeek: day,
			DayName:   time.Weekday(day).String(),
			IsEnabled: availability.Enabled,
			Intervals: IntervalsFromModel(availability.Intervals),
		})
	}
	return resp
}

// WeeklyHoursToDays maps weekday entries onto the fixed seven-day array. Missing
// weekdays are disabled; a weekday listed twice is rejected. Disabled entries drop
// their intervals and enabled entries with none are treated as disabled.
func WeeklyHoursToDays(hours []WeeklyHoursDTO) ([models.DaysPerWeek]models.DayAvailability, error) {
	var days [models.DaysPerWeek]models.DayAvailability
	seen := make(map[int]bool, len(hours))
	for _, entry := range hours {
		if entry.DayOfWeek < 0 || entry.DayOfWeek >= models.DaysPerWeek {
			return days, fmt.Errorf("day_of_week %d out of range 0-6", entry.DayOfWeek)
		}
		if seen[entry.DayOfWeek] {
			return days, fmt.Errorf("day_of_week %d listed more than once", entry.DayOfWeek)
		}
		seen[entry.DayOfWeek] = true

		intervals, err := IntervalsToModel(entry.Intervals)
		if err != nil {
			return days, fmt.Errorf("%s: %w", time.Weekday(entry.DayOfWeek), err)
		}
		sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
		if !entry.IsEnabled || len(intervals) == 0 {
			days[entry.DayOfWeek] = models.DayAvailability{Enabled: false, Intervals: []models.Interval{}}
			continue
		}
		days[entry.DayOfWeek] = models.DayAvailability{Enabled: true, Intervals: intervals}
	}
	for day := range days {
		if days[day].Intervals == nil {
			days[day].Intervals = []models.Interval{}
		}
	}
	return days, nil
}

// DateOverrideFromModel renders an override.
func DateOverrideFromModel(override models.DateOverride) DateOverrideResponse {
	return DateOverrideResponse{
		ID:           override.ID,
		ScheduleID:   override.ScheduleID,
		SpecificDate: override.Date.String(),
		Intervals:    IntervalsFromModel(override.Intervals),
		CreatedAt:    override.CreatedAt,
	}
}

// ParseDate parses a "YYYY-MM-DD" civil date.
func ParseDate(raw string) (civil.Date, error) {
	date, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("date %q must be formatted YYYY-MM-DD", raw)
	}
	return date, nil
}
