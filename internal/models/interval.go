package models

import (
	"fmt"
	"sort"
)

// MinutesPerDay bounds LocalTime; 24:00 is accepted only as an interval end.
const MinutesPerDay = 24 * 60

// LocalTime is a host-local wall-clock time expressed as minutes since midnight.
type LocalTime int

// NewLocalTime builds a LocalTime from hours and minutes.
func NewLocalTime(hour, minute int) LocalTime {
	return LocalTime(hour*60 + minute)
}

// ParseLocalTime parses an "HH:MM" clock string.
func ParseLocalTime(raw string) (LocalTime, error) {
	if len(raw) != 5 || raw[2] != ':' || !isDigits(raw[:2]) || !isDigits(raw[3:]) {
		return 0, fmt.Errorf("time %q must be formatted HH:MM", raw)
	}
	hour := int(raw[0]-'0')*10 + int(raw[1]-'0')
	minute := int(raw[3]-'0')*10 + int(raw[4]-'0')
	if minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time %q is out of range", raw)
	}
	return NewLocalTime(hour, minute), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Hour returns the hour component.
func (t LocalTime) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t LocalTime) Minute() int { return int(t) % 60 }

// String formats the time as "HH:MM".
func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t LocalTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LocalTime) UnmarshalText(data []byte) error {
	parsed, err := ParseLocalTime(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Interval is a host-local range on one civil day, half-open [Start, End).
type Interval struct {
	Start LocalTime `json:"start_time"`
	End   LocalTime `json:"end_time"`
}

// DefaultInterval is the range seeded when a day is enabled or an interval is added.
var DefaultInterval = Interval{Start: NewLocalTime(9, 0), End: NewLocalTime(17, 0)}

// Minutes returns the interval length.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// Valid reports whether the interval lies within one day with Start before End.
func (i Interval) Valid() bool {
	return i.Start >= 0 && i.End <= MinutesPerDay && i.Start < i.End
}

// Overlaps reports whether two half-open intervals share any minute.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// ValidateIntervals checks that every interval is well formed, aligned to granularity
// minutes, sorted ascending and non-overlapping. A granularity <= 0 disables alignment.
func ValidateIntervals(intervals []Interval, granularity int) error {
	for idx, interval := range intervals {
		if !interval.Valid() {
			return fmt.Errorf("interval %d (%s): start must be before end", idx, interval)
		}
		if granularity > 0 && (int(interval.Start)%granularity != 0 || int(interval.End)%granularity != 0) {
			return fmt.Errorf("interval %d (%s): times must align to %d minutes", idx, interval, granularity)
		}
		if idx > 0 {
			prev := intervals[idx-1]
			if interval.Start < prev.Start {
				return fmt.Errorf("interval %d (%s): intervals must be sorted by start", idx, interval)
			}
			if interval.Overlaps(prev) {
				return fmt.Errorf("interval %d (%s) overlaps %s", idx, interval, prev)
			}
		}
	}
	return nil
}

// NormalizeIntervals drops malformed entries and returns the rest sorted by start.
// Overlapping entries are kept; consumers treat them as a union.
func NormalizeIntervals(intervals []Interval) []Interval {
	out := make([]Interval, 0, len(intervals))
	for _, interval := range intervals {
		if interval.Valid() {
			out = append(out, interval)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Start < out[b].Start })
	return out
}

// CloneIntervals returns an independent copy of intervals; nil stays nil.
func CloneIntervals(intervals []Interval) []Interval {
	if intervals == nil {
		return nil
	}
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	return out
}
