// Package availability turns a weekly schedule, its date overrides and the host's existing
// bookings into the dates and start times an invitee may book, in the invitee's timezone.
//
// Everything here is a pure function of its inputs, including the current time, so the
// same Params always produce the same slots.
package availability

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

// Params is the complete input of a slot computation.
type Params struct {
	Schedule  models.WeeklySchedule
	Overrides []models.DateOverride
	// Busy holds the host's non-cancelled bookings.
	Busy []models.BusyRange

	DurationMinutes int
	BufferBefore    time.Duration
	BufferAfter     time.Duration
	MinNotice       time.Duration
	// MaxDaysAhead caps the last bookable viewer date at today+MaxDaysAhead. Zero disables it.
	MaxDaysAhead int

	Viewer *time.Location
	Now    time.Time
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, fmt.Errorf("month %q must be formatted YYYY-MM", raw)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing date.
func MonthOf(date civil.Date) Month {
	return Month{Year: date.Year, Month: date.Month}
}

// First returns the first day of the month.
func (m Month) First() civil.Date {
	return civil.Date{Year: m.Year, Month: m.Month, Day: 1}
}

// Days returns every date of the month in order.
func (m Month) Days() []civil.Date {
	first := m.First()
	next := first.In(time.UTC).AddDate(0, 1, 0)
	count := civil.DateOf(next).DaysSince(first)
	days := make([]civil.Date, 0, count)
	for i := 0; i < count; i++ {
		days = append(days, first.AddDays(i))
	}
	return days
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

type prepared struct {
	params    Params
	host      *time.Location
	viewer    *time.Location
	overrides models.OverrideIndex
	duration  time.Duration
	today     civil.Date
	lastDate  civil.Date
	earliest  time.Time
}

func prepare(p Params) (*prepared, error) {
	if p.DurationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event duration must be positive")
	}
	host, err := p.Schedule.Location()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, "schedule timezone is invalid")
	}
	if p.Viewer == nil {
		p.Viewer = host
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	pr := &prepared{
		params:    p,
		host:      host,
		viewer:    p.Viewer,
		overrides: models.IndexOverrides(p.Overrides),
		duration:  time.Duration(p.DurationMinutes) * time.Minute,
		today:     civil.DateOf(p.Now.In(p.Viewer)),
		earliest:  p.Now.Add(p.MinNotice),
	}
	if p.MaxDaysAhead > 0 {
		pr.lastDate = pr.today.AddDays(p.MaxDaysAhead)
	}
	return pr, nil
}

func (pr *prepared) withinHorizon(date civil.Date) bool {
	if date.Before(pr.today) {
		return false
	}
	return pr.lastDate.IsZero() || !date.After(pr.lastDate)
}

// SlotsForDate returns the slots whose start falls on the viewer-local date, ascending.
func SlotsForDate(p Params, date civil.Date) ([]models.Slot, error) {
	pr, err := prepare(p)
	if err != nil {
		return nil, err
	}
	return pr.slotsFor(date), nil
}

// AvailableDates returns the viewer-local dates of month that offer at least one slot.
// A month starting beyond the booking horizon is rejected.
func AvailableDates(p Params, month Month) ([]civil.Date, error) {
	pr, err := prepare(p)
	if err != nil {
		return nil, err
	}
	if !pr.lastDate.IsZero() && month.First().After(pr.lastDate) {
		return nil, appErrors.Clone(appErrors.ErrOutsideHorizon,
			fmt.Sprintf("bookings open at most %d days ahead", p.MaxDaysAhead))
	}

	dates := make([]civil.Date, 0)
	for _, date := range month.Days() {
		if len(pr.slotsFor(date)) > 0 {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

// FindSlot reports whether start is exactly the start of a slot currently offered.
func FindSlot(p Params, start time.Time) (models.Slot, bool, error) {
	pr, err := prepare(p)
	if err != nil {
		return models.Slot{}, false, err
	}
	for _, slot := range pr.slotsFor(civil.DateOf(start.In(pr.viewer))) {
		if slot.Start.Equal(start) {
			return slot, true, nil
		}
	}
	return models.Slot{}, false, nil
}

func (pr *prepared) slotsFor(date civil.Date) []models.Slot {
	if !date.IsValid() || !pr.withinHorizon(date) {
		return []models.Slot{}
	}

	dayStart := date.In(pr.viewer)
	dayEnd := date.AddDays(1).In(pr.viewer)

	// Host dates whose wall-clock day intersects the viewer day.
	firstHost := civil.DateOf(dayStart.In(pr.host))
	lastHost := civil.DateOf(dayEnd.Add(-time.Nanosecond).In(pr.host))

	seen := make(map[int64]struct{})
	slots := make([]models.Slot, 0)
	for hostDate := firstHost; !hostDate.After(lastHost); hostDate = hostDate.AddDays(1) {
		for _, interval := range models.NormalizeIntervals(pr.params.Schedule.IntervalsOn(hostDate, pr.overrides)) {
			intervalStart := wallClock(hostDate, interval.Start, pr.host)
			intervalEnd := wallClock(hostDate, interval.End, pr.host)

			for start := intervalStart; !start.Add(pr.duration).After(intervalEnd); start = start.Add(pr.duration) {
				if start.Before(dayStart) || !start.Before(dayEnd) {
					continue
				}
				end := start.Add(pr.duration)
				if start.Before(pr.earliest) || pr.blocked(start, end) {
					continue
				}
				if _, dup := seen[start.Unix()]; dup {
					continue
				}
				seen[start.Unix()] = struct{}{}

				localStart := start.In(pr.viewer)
				localEnd := end.In(pr.viewer)
				slots = append(slots, models.Slot{
					Start:      localStart,
					End:        localEnd,
					LocalStart: localStart.Format("15:04"),
					LocalEnd:   localEnd.Format("15:04"),
				})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots
}

func (pr *prepared) blocked(start, end time.Time) bool {
	guardStart := start.Add(-pr.params.BufferBefore)
	guardEnd := end.Add(pr.params.BufferAfter)
	for _, busy := range pr.params.Busy {
		if busy.Overlaps(guardStart, guardEnd) {
			return true
		}
	}
	return false
}

// wallClock resolves a host-local clock time on a civil date using the zone's rules.
// 24:00 normalises to midnight of the following day.
func wallClock(date civil.Date, clock models.LocalTime, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, clock.Hour(), clock.Minute(), 0, 0, loc)
}
