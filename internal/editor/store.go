// Package editor holds the in-memory copy of a host's weekly schedule while it is being
// edited, tracks unsaved changes and persists them through a Gateway.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

// Gateway is the schedule backend the store reads from and writes to.
type Gateway interface {
	GetSchedule(ctx context.Context, scheduleID string) (models.WeeklySchedule, error)
	UpdateSchedule(ctx context.Context, schedule models.WeeklySchedule) (models.WeeklySchedule, error)
}

// Field selects which end of an interval UpdateInterval replaces.
type Field string

const (
	FieldStart Field = "start"
	FieldEnd   Field = "end"
)

// Options configures a Store.
type Options struct {
	// ScheduleID selects a schedule; empty loads the host's default one.
	ScheduleID string
	// DefaultTimezone is used by the fallback schedule.
	DefaultTimezone string
	// Granularity is the minute alignment enforced at save time.
	Granularity int
	Logger      *zap.Logger
}

// LoadResult describes how Load obtained the schedule.
type LoadResult struct {
	Fallback bool
	ReadOnly bool
	// Cause is the fetch error that triggered the fallback.
	Cause error
}

// Store owns one WeeklySchedule. All methods are safe for concurrent use.
type Store struct {
	gateway Gateway
	logger  *zap.Logger
	opts    Options

	mu       sync.Mutex
	schedule models.WeeklySchedule
	loaded   bool
	dirty    bool
	saving   bool
	readOnly bool
	revision uint64
}

// NewStore builds a store. Call Load before editing.
func NewStore(gateway Gateway, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	if opts.Granularity <= 0 {
		opts.Granularity = 30
	}
	return &Store{gateway: gateway, logger: opts.Logger, opts: opts}
}

// Load fetches the schedule. A failed fetch installs the Monday to Friday 09:00-17:00
// default instead and is reported through LoadResult, never as an error. An
// unauthorized fetch additionally makes the store read-only.
func (s *Store) Load(ctx context.Context) LoadResult {
	schedule, err := s.gateway.GetSchedule(ctx, s.opts.ScheduleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.dirty = false
	s.revision++
	if err == nil {
		s.schedule = schedule.Clone()
		s.readOnly = false
		return LoadResult{}
	}

	s.schedule = models.DefaultSchedule(s.opts.DefaultTimezone)
	s.readOnly = appErrors.IsUnauthorized(err)
	s.logger.Warn("schedule load failed, using default",
		zap.String("schedule_id", s.opts.ScheduleID),
		zap.Bool("read_only", s.readOnly),
		zap.Error(err))
	return LoadResult{Fallback: true, ReadOnly: s.readOnly, Cause: err}
}

// Schedule returns a deep copy of the current schedule.
func (s *Store) Schedule() models.WeeklySchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Clone()
}

// Dirty reports whether unsaved edits exist.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Saving reports whether a save is in flight.
func (s *Store) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// ReadOnly reports whether edits are rejected because there is no session.
func (s *Store) ReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly
}

// CanSave reports whether the save action should be enabled.
func (s *Store) CanSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && s.dirty && !s.saving && !s.readOnly
}

// ToggleDay flips a weekday. Enabling seeds one 09:00-17:00 interval; disabling clears all.
func (s *Store) ToggleDay(weekday time.Weekday) error {
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		if err := checkWeekday(weekday); err != nil {
			return err
		}
		if schedule.Days[weekday].Enabled {
			schedule.Days[weekday] = models.DayAvailability{Enabled: false, Intervals: []models.Interval{}}
		} else {
			schedule.Days[weekday] = models.DayAvailability{Enabled: true, Intervals: []models.Interval{models.DefaultInterval}}
		}
		return nil
	})
}

// UpdateInterval replaces one end of an interval in place. Order and overlap are left
// alone here and checked by Save.
func (s *Store) UpdateInterval(weekday time.Weekday, index int, field Field, value string) error {
	clock, err := models.ParseLocalTime(strings.TrimSpace(value))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		intervals, err := intervalsAt(schedule, weekday, index)
		if err != nil {
			return err
		}
		switch field {
		case FieldStart:
			intervals[index].Start = clock
		case FieldEnd:
			intervals[index].End = clock
		default:
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown interval field %q", field))
		}
		return nil
	})
}

// AddInterval appends a 09:00-17:00 interval and enables the day.
func (s *Store) AddInterval(weekday time.Weekday) error {
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		if err := checkWeekday(weekday); err != nil {
			return err
		}
		day := schedule.Days[weekday]
		day.Intervals = append(day.Intervals, models.DefaultInterval)
		day.Enabled = true
		schedule.Days[weekday] = day
		return nil
	})
}

// RemoveInterval deletes one interval. A day left without intervals is disabled.
func (s *Store) RemoveInterval(weekday time.Weekday, index int) error {
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		intervals, err := intervalsAt(schedule, weekday, index)
		if err != nil {
			return err
		}
		remaining := append(models.CloneIntervals(intervals[:index]), intervals[index+1:]...)
		schedule.Days[weekday] = models.DayAvailability{Enabled: len(remaining) > 0, Intervals: remaining}
		return nil
	})
}

// CopyIntervals copies the source day's intervals onto targets.
func (s *Store) CopyIntervals(source time.Weekday, targets []time.Weekday) error {
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		_, err := CopyIntervals(schedule, source, targets)
		return err
	})
}

// SetTimezone replaces the schedule timezone with a validated IANA identifier.
func (s *Store) SetTimezone(tz string) error {
	tz = strings.TrimSpace(tz)
	if _, err := models.LoadLocation(tz); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		schedule.Timezone = tz
		return nil
	})
}

// Rename sets the schedule's display name.
func (s *Store) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "schedule name is required")
	}
	return s.mutate(func(schedule *models.WeeklySchedule) error {
		schedule.Name = name
		return nil
	})
}

// Save validates the schedule locally and persists it as a full replacement. A failed
// save keeps the edits and the dirty flag. Edits made while the request is in flight
// keep the store dirty after it succeeds.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case !s.loaded:
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrInvalidState, "schedule has not been loaded")
	case s.readOnly:
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrUnauthorized, "sign in to change availability")
	case s.saving:
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrInFlight, "schedule is already being saved")
	case !s.dirty:
		s.mu.Unlock()
		return appErrors.ErrNothingToSave
	}
	if err := validateForSave(&s.schedule, s.opts.Granularity); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.schedule.Clone()
	revision := s.revision
	s.saving = true
	s.mu.Unlock()

	saved, err := s.gateway.UpdateSchedule(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false

	if err != nil {
		s.logger.Warn("schedule save failed", zap.String("schedule_id", snapshot.ID), zap.Error(err))
		if appErrors.IsUnauthorized(err) {
			s.readOnly = true
			return err
		}
		if appErrors.IsValidation(err) || appErrors.IsConflict(err) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "could not save availability, please retry")
	}

	if s.revision != revision {
		if s.schedule.ID == "" {
			s.schedule.ID = saved.ID
		}
		s.logger.Debug("schedule edited during save, keeping dirty", zap.String("schedule_id", saved.ID))
		return nil
	}
	s.schedule = saved.Clone()
	s.dirty = false
	return nil
}

func (s *Store) mutate(apply func(*models.WeeklySchedule) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return appErrors.Clone(appErrors.ErrInvalidState, "schedule has not been loaded")
	}
	if s.readOnly {
		return appErrors.Clone(appErrors.ErrUnauthorized, "sign in to change availability")
	}

	working := s.schedule.Clone()
	if err := apply(&working); err != nil {
		return err
	}
	s.schedule = working
	s.dirty = true
	s.revision++
	return nil
}

func intervalsAt(schedule *models.WeeklySchedule, weekday time.Weekday, index int) ([]models.Interval, error) {
	if err := checkWeekday(weekday); err != nil {
		return nil, err
	}
	intervals := schedule.Days[weekday].Intervals
	if index < 0 || index >= len(intervals) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s has no interval %d", weekday, index))
	}
	return intervals, nil
}

func validateForSave(schedule *models.WeeklySchedule, granularity int) error {
	if _, err := schedule.Location(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	if err := schedule.Validate(granularity); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}
	return nil
}
