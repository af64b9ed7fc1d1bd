package models

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DaysPerWeek is the number of weekday entries every schedule carries.
const DaysPerWeek = 7

// DefaultScheduleName names schedules created without an explicit name.
const DefaultScheduleName = "Working Hours"

// DayAvailability is one weekday's recurring availability.
// Enabled is false exactly when Intervals is empty.
type DayAvailability struct {
	Enabled   bool       `json:"is_enabled"`
	Intervals []Interval `json:"intervals"`
}

// Clone returns a deep copy.
func (d DayAvailability) Clone() DayAvailability {
	return DayAvailability{Enabled: d.Enabled, Intervals: CloneIntervals(d.Intervals)}
}

// WeeklySchedule is a host's recurring availability indexed by time.Weekday (Sunday=0).
type WeeklySchedule struct {
	ID        string                       `json:"id"`
	HostID    string                       `json:"host_id"`
	Name      string                       `json:"name"`
	Timezone  string                       `json:"timezone"`
	IsDefault bool                         `json:"is_default"`
	Days      [DaysPerWeek]DayAvailability `json:"days"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// DefaultSchedule returns the Monday to Friday 09:00-17:00 fallback schedule.
func DefaultSchedule(timezone string) WeeklySchedule {
	schedule := WeeklySchedule{Name: DefaultScheduleName, Timezone: timezone, IsDefault: true}
	for day := time.Monday; day <= time.Friday; day++ {
		schedule.Days[day] = DayAvailability{Enabled: true, Intervals: []Interval{DefaultInterval}}
	}
	return schedule
}

// Day returns the availability configured for weekday.
func (s *WeeklySchedule) Day(weekday time.Weekday) DayAvailability {
	if weekday < time.Sunday || weekday > time.Saturday {
		return DayAvailability{}
	}
	return s.Days[weekday]
}

// Clone returns a deep copy whose interval slices share nothing with s.
func (s WeeklySchedule) Clone() WeeklySchedule {
	out := s
	for i := range s.Days {
		out.Days[i] = s.Days[i].Clone()
	}
	return out
}

// Location resolves the schedule timezone with IANA rules.
func (s *WeeklySchedule) Location() (*time.Location, error) {
	return LoadLocation(s.Timezone)
}

// Validate checks the timezone and every day's intervals. Errors name the offending weekday.
func (s *WeeklySchedule) Validate(granularity int) error {
	if _, err := s.Location(); err != nil {
		return err
	}
	for day, availability := range s.Days {
		if !availability.Enabled && len(availability.Intervals) > 0 {
			return fmt.Errorf("%s: disabled day must not carry intervals", time.Weekday(day))
		}
		if availability.Enabled && len(availability.Intervals) == 0 {
			return fmt.Errorf("%s: enabled day needs at least one interval", time.Weekday(day))
		}
		if err := ValidateIntervals(availability.Intervals, granularity); err != nil {
			return fmt.Errorf("%s: %w", time.Weekday(day), err)
		}
	}
	return nil
}

// LoadLocation resolves an IANA zone identifier. The empty string is rejected rather
// than treated as UTC, and "Local" is refused because it depends on the server.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("timezone %q is not a valid IANA identifier", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q is not a valid IANA identifier", name)
	}
	return loc, nil
}

// DateOverride replaces the weekly availability for one host-local date.
// Empty Intervals means the date is fully unavailable.
type DateOverride struct {
	ID         string     `json:"id"`
	ScheduleID string     `json:"schedule_id"`
	Date       civil.Date `json:"specific_date"`
	Intervals  []Interval `json:"intervals"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OverrideIndex looks up overrides by host-local date.
type OverrideIndex map[civil.Date][]Interval

// IndexOverrides builds an OverrideIndex; later entries for the same date win.
func IndexOverrides(overrides []DateOverride) OverrideIndex {
	index := make(OverrideIndex, len(overrides))
	for _, override := range overrides {
		index[override.Date] = CloneIntervals(override.Intervals)
		if index[override.Date] == nil {
			index[override.Date] = []Interval{}
		}
	}
	return index
}

// IntervalsOn returns the intervals that apply on a host-local date: the override when
// one exists, otherwise the enabled weekday's intervals.
func (s *WeeklySchedule) IntervalsOn(date civil.Date, overrides OverrideIndex) []Interval {
	if intervals, ok := overrides[date]; ok {
		return intervals
	}
	day := s.Day(date.In(time.UTC).Weekday())
	if !day.Enabled {
		return nil
	}
	return day.Intervals
}

// ScheduleSummary is the list view of a schedule.
type ScheduleSummary struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Timezone  string `db:"timezone" json:"timezone"`
	IsDefault bool   `db:"is_default" json:"is_default"`
}
