package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

func splitMonday() models.WeeklySchedule {
	schedule := models.DefaultSchedule("UTC")
	schedule.Days[time.Monday].Intervals = []models.Interval{
		{Start: models.NewLocalTime(9, 0), End: models.NewLocalTime(12, 0)},
		{Start: models.NewLocalTime(13, 0), End: models.NewLocalTime(17, 0)},
	}
	return schedule
}

func TestCopyIntervalsDeepCopiesAndEnables(t *testing.T) {
	schedule := splitMonday()

	applied, err := CopyIntervals(&schedule, time.Monday, []time.Weekday{time.Saturday, time.Wednesday, time.Saturday})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Wednesday}, applied)
	assert.True(t, schedule.Days[time.Saturday].Enabled)
	assert.Equal(t, schedule.Days[time.Monday].Intervals, schedule.Days[time.Wednesday].Intervals)

	schedule.Days[time.Saturday].Intervals[0].End = models.NewLocalTime(10, 0)
	assert.Equal(t, models.NewLocalTime(12, 0), schedule.Days[time.Monday].Intervals[0].End)
	assert.Equal(t, models.NewLocalTime(12, 0), schedule.Days[time.Wednesday].Intervals[0].End)
}

func TestCopyIntervalsRejectsInvalidTargets(t *testing.T) {
	schedule := splitMonday()
	original := schedule.Clone()

	_, err := CopyIntervals(&schedule, time.Monday, []time.Weekday{time.Tuesday, time.Monday})
	assert.True(t, appErrors.IsValidation(err))
	_, err = CopyIntervals(&schedule, time.Monday, nil)
	assert.True(t, appErrors.IsValidation(err))
	_, err = CopyIntervals(&schedule, time.Sunday, []time.Weekday{time.Tuesday})
	assert.True(t, appErrors.IsValidation(err))
	_, err = CopyIntervals(&schedule, time.Monday, []time.Weekday{time.Weekday(7)})
	assert.True(t, appErrors.IsValidation(err))

	assert.Equal(t, original, schedule)
}

func TestStoreCopyIntervalsMarksDirty(t *testing.T) {
	store := loadedStore(t, &gatewayStub{schedule: splitMonday()})

	require.NoError(t, store.CopyIntervals(time.Monday, []time.Weekday{time.Sunday}))
	assert.True(t, store.Dirty())
	require.NoError(t, store.UpdateInterval(time.Sunday, 1, FieldEnd, "16:00"))

	schedule := store.Schedule()
	assert.Equal(t, models.NewLocalTime(17, 0), schedule.Days[time.Monday].Intervals[1].End)
	assert.Equal(t, models.NewLocalTime(16, 0), schedule.Days[time.Sunday].Intervals[1].End)
	require.NoError(t, store.Save(context.Background()))
}
