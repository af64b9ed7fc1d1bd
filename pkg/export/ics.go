package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/noah-isme/slotbook-api/internal/models"
)

const productID = "-//slotbook//slotbook-api//EN"

// Invite describes one booked meeting as a calendar event.
type Invite struct {
	UID            string
	Summary        string
	Description    string
	Location       string
	Start          time.Time
	End            time.Time
	OrganizerName  string
	OrganizerEmail string
	AttendeeName   string
	AttendeeEmail  string
	Guests         []string
	Cancelled      bool
	Stamp          time.Time
}

// RenderInvite serializes a single-event iCalendar REQUEST, or a CANCEL when the
// meeting has been cancelled.
func RenderInvite(inv Invite) ([]byte, error) {
	if inv.UID == "" {
		return nil, fmt.Errorf("invite requires a uid")
	}
	if !inv.End.After(inv.Start) {
		return nil, fmt.Errorf("invite end must be after start")
	}
	stamp := inv.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	if inv.Cancelled {
		cal.SetMethod(ical.MethodCancel)
	} else {
		cal.SetMethod(ical.MethodRequest)
	}

	event := cal.AddEvent(inv.UID)
	event.SetDtStampTime(stamp.UTC())
	event.SetStartAt(inv.Start.UTC())
	event.SetEndAt(inv.End.UTC())
	event.SetSummary(inv.Summary)
	if inv.Description != "" {
		event.SetDescription(inv.Description)
	}
	if inv.Location != "" {
		event.SetLocation(inv.Location)
	}
	if inv.OrganizerEmail != "" {
		event.SetOrganizer("mailto:"+inv.OrganizerEmail, ical.WithCN(inv.OrganizerName))
	}
	if inv.AttendeeEmail != "" {
		event.AddAttendee("mailto:"+inv.AttendeeEmail,
			ical.WithCN(inv.AttendeeName),
			ical.CalendarUserTypeIndividual,
			ical.ParticipationRoleReqParticipant,
			ical.ParticipationStatusAccepted)
	}
	for _, guest := range inv.Guests {
		event.AddAttendee("mailto:"+guest,
			ical.CalendarUserTypeIndividual,
			ical.ParticipationRoleOptParticipant,
			ical.ParticipationStatusNeedsAction,
			ical.WithRSVP(true))
	}
	if inv.Cancelled {
		event.SetStatus(ical.ObjectStatusCancelled)
	} else {
		event.SetStatus(ical.ObjectStatusConfirmed)
	}

	return []byte(cal.Serialize()), nil
}

// window is one concrete availability range.
type window struct {
	start time.Time
	end   time.Time
}

// AvailabilityFeed expands a weekly schedule into concrete free windows between from and
// to. Weekly recurrences are evaluated in the schedule timezone so wall-clock hours stay
// put across DST changes, and dates with an override use the override's intervals.
func AvailabilityFeed(schedule models.WeeklySchedule, overrides []models.DateOverride, from, to time.Time) ([]byte, error) {
	loc, err := schedule.Location()
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, fmt.Errorf("feed range end must be after start")
	}
	index := models.IndexOverrides(overrides)
	windows := make([]window, 0)

	base := from.In(loc)
	for day, availability := range schedule.Days {
		if !availability.Enabled {
			continue
		}
		offset := (day - int(base.Weekday()) + models.DaysPerWeek) % models.DaysPerWeek
		for _, interval := range availability.Intervals {
			if !interval.Valid() {
				continue
			}
			dtstart := time.Date(base.Year(), base.Month(), base.Day()+offset,
				interval.Start.Hour(), interval.Start.Minute(), 0, 0, loc)
			rule, err := rrule.NewRRule(rrule.ROption{
				Freq:    rrule.WEEKLY,
				Dtstart: dtstart,
				Until:   to.In(loc),
			})
			if err != nil {
				return nil, fmt.Errorf("weekly rule for %s: %w", time.Weekday(day), err)
			}
			for _, occurrence := range rule.Between(from, to, true) {
				date := civil.DateOf(occurrence)
				if _, overridden := index[date]; overridden {
					continue
				}
				windows = append(windows, window{start: occurrence, end: wall(date, interval.End, loc)})
			}
		}
	}
	for date, intervals := range index {
		for _, interval := range intervals {
			start := wall(date, interval.Start, loc)
			if start.Before(from) || !start.Before(to) || !interval.Valid() {
				continue
			}
			windows = append(windows, window{start: start, end: wall(date, interval.End, loc)})
		}
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start.Before(windows[j].start) })

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	name := schedule.Name
	if name == "" {
		name = models.DefaultScheduleName
	}
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(schedule.Timezone)

	stamp := time.Now().UTC()
	id := strings.TrimSpace(schedule.ID)
	if id == "" {
		id = "schedule"
	}
	for _, w := range windows {
		event := cal.AddEvent(fmt.Sprintf("%s-%s@slotbook", id, w.start.UTC().Format("20060102T1504Z")))
		event.SetDtStampTime(stamp)
		event.SetStartAt(w.start.UTC())
		event.SetEndAt(w.end.UTC())
		event.SetSummary("Available")
		event.SetTimeTransparency(ical.TransparencyTransparent)
	}
	return []byte(cal.Serialize()), nil
}

func wall(date civil.Date, clock models.LocalTime, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, clock.Hour(), clock.Minute(), 0, 0, loc)
}
