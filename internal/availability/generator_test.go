package availability

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func clock(h, m int) models.LocalTime { return models.NewLocalTime(h, m) }

func onlyDay(tz string, day time.Weekday, intervals ...models.Interval) models.WeeklySchedule {
	schedule := models.WeeklySchedule{Name: "test", Timezone: tz}
	schedule.Days[day] = models.DayAvailability{Enabled: true, Intervals: intervals}
	return schedule
}

func everyDay(tz string, interval models.Interval) models.WeeklySchedule {
	schedule := models.WeeklySchedule{Name: "test", Timezone: tz}
	for day := range schedule.Days {
		schedule.Days[day] = models.DayAvailability{Enabled: true, Intervals: []models.Interval{interval}}
	}
	return schedule
}

func localStarts(slots []models.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.LocalStart)
	}
	return out
}

func TestSlotsConvertNewYorkToKolkata(t *testing.T) {
	params := Params{
		Schedule:        onlyDay("America/New_York", time.Monday, models.Interval{Start: clock(9, 0), End: clock(10, 0)}),
		DurationMinutes: 30,
		Viewer:          mustLoc(t, "Asia/Kolkata"),
		Now:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	slots, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.January, Day: 13})
	require.NoError(t, err)
	assert.Equal(t, []string{"19:30", "20:00"}, localStarts(slots))
	assert.True(t, slots[0].Start.Equal(time.Date(2025, 1, 13, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "20:00", slots[0].LocalEnd)
}

func TestSlotsShiftAcrossViewerMidnight(t *testing.T) {
	kolkata := mustLoc(t, "Asia/Kolkata")
	params := Params{
		Schedule:        onlyDay("America/New_York", time.Monday, models.Interval{Start: clock(21, 0), End: clock(23, 0)}),
		DurationMinutes: 30,
		Viewer:          kolkata,
		Now:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	monday, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.January, Day: 13})
	require.NoError(t, err)
	assert.Empty(t, monday)

	tuesday, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.January, Day: 14})
	require.NoError(t, err)
	assert.Equal(t, []string{"07:30", "08:00", "08:30", "09:00"}, localStarts(tuesday))

	backward := Params{
		Schedule:        onlyDay("Asia/Kolkata", time.Monday, models.Interval{Start: clock(9, 0), End: clock(10, 0)}),
		DurationMinutes: 30,
		Viewer:          mustLoc(t, "America/New_York"),
		Now:             params.Now,
	}
	sunday, err := SlotsForDate(backward, civil.Date{Year: 2025, Month: time.January, Day: 12})
	require.NoError(t, err)
	assert.Equal(t, []string{"22:30", "23:00"}, localStarts(sunday))
}

func TestSlotsFollowDSTTransition(t *testing.T) {
	params := Params{
		Schedule:        everyDay("America/New_York", models.Interval{Start: clock(9, 0), End: clock(10, 0)}),
		DurationMinutes: 60,
		Viewer:          time.UTC,
		Now:             time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	before, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.March, Day: 8})
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00"}, localStarts(before))

	after, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.March, Day: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"13:00"}, localStarts(after))

	// 01:00-04:00 on the spring-forward night is only two real hours long.
	params.Schedule = onlyDay("America/New_York", time.Sunday, models.Interval{Start: clock(1, 0), End: clock(4, 0)})
	short, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.March, Day: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"06:00", "07:00"}, localStarts(short))
}

func TestSlotsOmitBookedRange(t *testing.T) {
	params := Params{
		Schedule:        models.DefaultSchedule("UTC"),
		DurationMinutes: 30,
		Busy: []models.BusyRange{{
			Start: time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 12, 15, 10, 30, 0, 0, time.UTC),
		}},
		Viewer: time.UTC,
		Now:    time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	slots, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.December, Day: 15})
	require.NoError(t, err)
	starts := localStarts(slots)
	assert.Len(t, starts, 15)
	assert.Contains(t, starts, "09:30")
	assert.Contains(t, starts, "10:30")
	assert.NotContains(t, starts, "10:00")
	assert.Equal(t, "09:00", starts[0])
	assert.Equal(t, "16:30", starts[len(starts)-1])
}

func TestSlotsDiscardPartialTrailingSlot(t *testing.T) {
	params := Params{
		Schedule:        onlyDay("UTC", time.Monday, models.Interval{Start: clock(9, 0), End: clock(10, 30)}),
		DurationMinutes: 60,
		Viewer:          time.UTC,
		Now:             time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	slots, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.December, Day: 15})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, localStarts(slots))
}

func TestSlotsApplyBuffers(t *testing.T) {
	params := Params{
		Schedule:        models.DefaultSchedule("UTC"),
		DurationMinutes: 30,
		BufferBefore:    15 * time.Minute,
		BufferAfter:     15 * time.Minute,
		Busy: []models.BusyRange{{
			Start: time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 12, 15, 10, 30, 0, 0, time.UTC),
		}},
		Viewer: time.UTC,
		Now:    time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	slots, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.December, Day: 15})
	require.NoError(t, err)
	starts := localStarts(slots)
	assert.NotContains(t, starts, "09:30")
	assert.NotContains(t, starts, "10:30")
	assert.Contains(t, starts, "09:00")
	assert.Contains(t, starts, "11:00")
}

func TestSlotsRespectNoticeAndPast(t *testing.T) {
	params := Params{
		Schedule:        everyDay("UTC", models.Interval{Start: clock(9, 0), End: clock(17, 0)}),
		DurationMinutes: 30,
		MinNotice:       4 * time.Hour,
		Viewer:          time.UTC,
		Now:             time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC),
	}

	past, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.December, Day: 8})
	require.NoError(t, err)
	assert.Empty(t, past)

	today, err := SlotsForDate(params, civil.Date{Year: 2025, Month: time.December, Day: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"16:00", "16:30"}, localStarts(today))
}

func TestAvailableDatesHonourOverride(t *testing.T) {
	params := Params{
		Schedule:        models.DefaultSchedule("UTC"),
		Overrides:       []models.DateOverride{{Date: civil.Date{Year: 2025, Month: time.December, Day: 25}}},
		DurationMinutes: 30,
		MaxDaysAhead:    60,
		Viewer:          time.UTC,
		Now:             time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	dates, err := AvailableDates(params, Month{Year: 2025, Month: time.December})
	require.NoError(t, err)
	assert.Contains(t, dates, civil.Date{Year: 2025, Month: time.December, Day: 24})
	assert.Contains(t, dates, civil.Date{Year: 2025, Month: time.December, Day: 26})
	assert.NotContains(t, dates, civil.Date{Year: 2025, Month: time.December, Day: 25})
	assert.NotContains(t, dates, civil.Date{Year: 2025, Month: time.December, Day: 27})
	assert.Len(t, dates, 22)
}

func TestAvailableDatesAlwaysHaveSlots(t *testing.T) {
	schedule := models.DefaultSchedule("America/New_York")
	schedule.Days[time.Saturday] = models.DayAvailability{Enabled: true, Intervals: []models.Interval{{Start: clock(22, 0), End: clock(23, 30)}}}
	busy := []models.BusyRange{{
		Start: time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC),
	}}

	for _, viewer := range []string{"UTC", "Asia/Kolkata", "Pacific/Auckland", "America/Los_Angeles"} {
		params := Params{
			Schedule:        schedule,
			Busy:            busy,
			DurationMinutes: 45,
			MinNotice:       4 * time.Hour,
			MaxDaysAhead:    60,
			Viewer:          mustLoc(t, viewer),
			Now:             time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC),
		}
		dates, err := AvailableDates(params, Month{Year: 2025, Month: time.March})
		require.NoError(t, err)
		require.NotEmpty(t, dates, viewer)
		for _, date := range dates {
			slots, err := SlotsForDate(params, date)
			require.NoError(t, err)
			assert.NotEmpty(t, slots, "%s %s", viewer, date)
		}
	}
}

func TestAvailableDatesHorizon(t *testing.T) {
	params := Params{
		Schedule:        everyDay("UTC", models.Interval{Start: clock(9, 0), End: clock(17, 0)}),
		DurationMinutes: 30,
		MaxDaysAhead:    60,
		Viewer:          time.UTC,
		Now:             time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := AvailableDates(params, Month{Year: 2026, Month: time.February})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	january, err := AvailableDates(params, Month{Year: 2026, Month: time.January})
	require.NoError(t, err)
	assert.Len(t, january, 30)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.January, Day: 30}, january[len(january)-1])
}

func TestFindSlot(t *testing.T) {
	params := Params{
		Schedule:        models.DefaultSchedule("UTC"),
		DurationMinutes: 30,
		Viewer:          mustLoc(t, "Europe/Berlin"),
		Now:             time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	slot, ok, err := FindSlot(params, time.Date(2025, 12, 15, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "10:30", slot.LocalStart)

	_, ok, err = FindSlot(params, time.Date(2025, 12, 15, 9, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidInputs(t *testing.T) {
	_, err := SlotsForDate(Params{Schedule: models.DefaultSchedule("Nowhere/City"), DurationMinutes: 30}, civil.Date{Year: 2025, Month: 1, Day: 1})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	_, err = SlotsForDate(Params{Schedule: models.DefaultSchedule("UTC")}, civil.Date{Year: 2025, Month: 1, Day: 1})
	assert.Error(t, err)
}

func TestMonthHelpers(t *testing.T) {
	month, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Len(t, month.Days(), 29)
	assert.Equal(t, "2024-02", month.String())

	_, err = ParseMonth("2024/02")
	assert.Error(t, err)
}
