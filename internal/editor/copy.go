package editor

import (
	"fmt"
	"time"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

// CopyIntervals deep-copies the source day's intervals onto every target day and enables
// each target. Duplicate targets are applied once; the applied weekdays are returned in
// the order given. The source may not be a target and must have at least one interval.
func CopyIntervals(schedule *models.WeeklySchedule, source time.Weekday, targets []time.Weekday) ([]time.Weekday, error) {
	if err := checkWeekday(source); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one day to copy to")
	}

	src := schedule.Days[source]
	if len(src.Intervals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s has no hours to copy", source))
	}

	applied := make([]time.Weekday, 0, len(targets))
	seen := make(map[time.Weekday]struct{}, len(targets))
	for _, target := range targets {
		if err := checkWeekday(target); err != nil {
			return nil, err
		}
		if target == source {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot copy a day onto itself")
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		applied = append(applied, target)
	}

	for _, target := range applied {
		schedule.Days[target] = models.DayAvailability{
			Enabled:   true,
			Intervals: models.CloneIntervals(src.Intervals),
		}
	}
	return applied, nil
}

func checkWeekday(day time.Weekday) error {
	if day < time.Sunday || day > time.Saturday {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d out of range 0-6", int(day)))
	}
	return nil
}
