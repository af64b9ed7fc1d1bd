package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
)

func parse(t *testing.T, body []byte) *ical.Calendar {
	t.Helper()
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	require.NoError(t, err)
	return cal
}

func TestRenderInvite(t *testing.T) {
	start := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	body, err := RenderInvite(Invite{
		UID:            "bk-1@slotbook",
		Summary:        "Intro Call",
		Start:          start,
		End:            start.Add(30 * time.Minute),
		OrganizerName:  "Demo Host",
		OrganizerEmail: "host@example.com",
		AttendeeName:   "Ada",
		AttendeeEmail:  "ada@example.com",
		Guests:         []string{"grace@example.com"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), "METHOD:REQUEST")

	events := parse(t, body).Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Intro Call", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	got, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, got.Equal(start))

	emails := make([]string, 0)
	for _, attendee := range events[0].Attendees() {
		emails = append(emails, attendee.Email())
	}
	assert.ElementsMatch(t, []string{"ada@example.com", "grace@example.com"}, emails)
}

func TestRenderInviteCancelled(t *testing.T) {
	start := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	body, err := RenderInvite(Invite{UID: "bk-1@slotbook", Summary: "Intro Call", Start: start, End: start.Add(time.Hour), Cancelled: true})
	require.NoError(t, err)
	assert.Contains(t, string(body), "METHOD:CANCEL")
	assert.Contains(t, string(body), "STATUS:CANCELLED")

	_, err = RenderInvite(Invite{UID: "x", Start: start, End: start})
	assert.Error(t, err)
}

func TestAvailabilityFeedFollowsWallClockAcrossDST(t *testing.T) {
	schedule := models.WeeklySchedule{ID: "sched-1", Name: "Working Hours", Timezone: "America/New_York"}
	for i := range schedule.Days {
		schedule.Days[i] = models.DayAvailability{Intervals: []models.Interval{}}
	}
	schedule.Days[time.Monday] = models.DayAvailability{Enabled: true, Intervals: []models.Interval{
		{Start: models.NewLocalTime(9, 0), End: models.NewLocalTime(10, 0)},
	}}
	overrides := []models.DateOverride{
		{Date: civil.Date{Year: 2025, Month: time.March, Day: 10}, Intervals: []models.Interval{}},
		{Date: civil.Date{Year: 2025, Month: time.March, Day: 11}, Intervals: []models.Interval{
			{Start: models.NewLocalTime(12, 0), End: models.NewLocalTime(13, 0)},
		}},
	}
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	from := time.Date(2025, time.March, 3, 0, 0, 0, 0, ny)
	to := time.Date(2025, time.March, 18, 0, 0, 0, 0, ny)

	body, err := AvailabilityFeed(schedule, overrides, from, to)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "X-WR-CALNAME:Working Hours"))

	starts := make([]time.Time, 0)
	for _, event := range parse(t, body).Events() {
		start, err := event.GetStartAt()
		require.NoError(t, err)
		starts = append(starts, start.UTC())
	}
	assert.Equal(t, []time.Time{
		time.Date(2025, time.March, 3, 14, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 11, 16, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 17, 13, 0, 0, 0, time.UTC),
	}, starts)
}

func TestAvailabilityFeedRejectsBadInput(t *testing.T) {
	now := time.Now()
	_, err := AvailabilityFeed(models.WeeklySchedule{Timezone: "Nowhere/Land"}, nil, now, now.Add(time.Hour))
	assert.Error(t, err)
	_, err = AvailabilityFeed(models.DefaultSchedule("UTC"), nil, now, now)
	assert.Error(t, err)
}
